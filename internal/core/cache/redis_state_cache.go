package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/frostdev-ops/pma-goveelife/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisStateCache stores capability values in one Redis hash per device. Hash
// fields are "<type>|<instance>" and values are JSON encoded.
type RedisStateCache struct {
	client      redis.UniversalClient
	logger      *logrus.Logger
	keyPrefix   string
	readTimeout time.Duration
	ttl         time.Duration
}

// NewRedisStateCache connects to Redis and returns a state cache
func NewRedisStateCache(cfg config.RedisConfig, logger *logrus.Logger) (*RedisStateCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		ReadTimeout: cfg.ReadTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"addr":       cfg.Addr,
		"db":         cfg.DB,
		"key_prefix": cfg.KeyPrefix,
		"ttl":        cfg.TTL,
	}).Info("Redis state cache initialized successfully")

	return NewRedisStateCacheWithClient(rdb, cfg.KeyPrefix, cfg.ReadTimeout, cfg.TTL, logger), nil
}

// NewRedisStateCacheWithClient wraps an existing client
func NewRedisStateCacheWithClient(client redis.UniversalClient, keyPrefix string, readTimeout, ttl time.Duration, logger *logrus.Logger) *RedisStateCache {
	if readTimeout <= 0 {
		readTimeout = 500 * time.Millisecond
	}
	return &RedisStateCache{
		client:      client,
		logger:      logger,
		keyPrefix:   keyPrefix,
		readTimeout: readTimeout,
		ttl:         ttl,
	}
}

func (r *RedisStateCache) key(deviceID string) string {
	return r.keyPrefix + deviceID
}

// GetCachedStateValue reads one capability value. Lookup failures are logged
// and reported as absent.
func (r *RedisStateCache) GetCachedStateValue(deviceID, capabilityType, instance string) (interface{}, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.readTimeout)
	defer cancel()

	data, err := r.client.HGet(ctx, r.key(deviceID), stateField(capabilityType, instance)).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.WithError(err).WithFields(logrus.Fields{
				"device_id":       deviceID,
				"capability_type": capabilityType,
				"instance":        instance,
			}).Warn("Failed to read state from Redis")
		}
		return nil, false
	}

	value, err := decodeStateValue(data)
	if err != nil {
		r.logger.WithError(err).WithField("device_id", deviceID).Warn("Failed to decode state from Redis")
		return nil, false
	}
	return value, true
}

// SetStateValue stores one capability value
func (r *RedisStateCache) SetStateValue(ctx context.Context, deviceID, capabilityType, instance string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize state value: %w", err)
	}

	key := r.key(deviceID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, stateField(capabilityType, instance), data)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.WithError(err).WithField("device_id", deviceID).Error("Failed to store state in Redis")
		return fmt.Errorf("failed to store state in Redis: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"device_id":       deviceID,
		"capability_type": capabilityType,
		"instance":        instance,
	}).Debug("State stored in Redis cache")
	return nil
}

// Seed stores several entries of one device at once
func (r *RedisStateCache) Seed(ctx context.Context, deviceID string, entries []StateEntry) error {
	for _, entry := range entries {
		if err := r.SetStateValue(ctx, deviceID, entry.Type, entry.Instance, entry.Value); err != nil {
			return err
		}
	}
	return nil
}

// DeviceState returns every stored entry of a device
func (r *RedisStateCache) DeviceState(ctx context.Context, deviceID string) ([]StateEntry, error) {
	fields, err := r.client.HGetAll(ctx, r.key(deviceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read device state from Redis: %w", err)
	}
	return decodeStateHash(fields), nil
}

// decodeStateHash converts a device hash into entries, skipping undecodable fields
func decodeStateHash(fields map[string]string) []StateEntry {
	entries := make([]StateEntry, 0, len(fields))
	for field, data := range fields {
		capabilityType, instance, ok := splitStateField(field)
		if !ok {
			continue
		}
		value, err := decodeStateValue(data)
		if err != nil {
			continue
		}
		entries = append(entries, StateEntry{Type: capabilityType, Instance: instance, Value: value})
	}
	return entries
}

func decodeStateValue(data string) (interface{}, error) {
	var value interface{}
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		return nil, err
	}
	return value, nil
}

// Health checks Redis connection health
func (r *RedisStateCache) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisStateCache) Close() error {
	return r.client.Close()
}
