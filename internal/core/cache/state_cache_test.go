package cache

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/frostdev-ops/pma-goveelife/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDevice    = "AA:BB:CC:DD:EE:FF:00:11"
	onOffType     = "devices.capabilities.on_off"
	workModeType  = "devices.capabilities.work_mode"
	powerInstance = "powerSwitch"
)

func TestMemoryStateCache_SetAndGet(t *testing.T) {
	c := NewMemoryStateCache()
	ctx := context.Background()

	_, ok := c.GetCachedStateValue(testDevice, onOffType, powerInstance)
	assert.False(t, ok)

	require.NoError(t, c.SetStateValue(ctx, testDevice, onOffType, powerInstance, float64(1)))

	value, ok := c.GetCachedStateValue(testDevice, onOffType, powerInstance)
	require.True(t, ok)
	assert.Equal(t, float64(1), value)

	_, ok = c.GetCachedStateValue("other", onOffType, powerInstance)
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.HitCount)
	assert.Equal(t, uint64(2), stats.MissCount)
	assert.Equal(t, uint64(1), stats.TotalSets)
	assert.Equal(t, 1, stats.Devices)
	assert.Equal(t, 1, stats.Entries)
}

func TestMemoryStateCache_StoresNil(t *testing.T) {
	c := NewMemoryStateCache()
	require.NoError(t, c.SetStateValue(context.Background(), testDevice, "devices.capabilities.property", "sensorTemperature", nil))

	value, ok := c.GetCachedStateValue(testDevice, "devices.capabilities.property", "sensorTemperature")
	assert.True(t, ok)
	assert.Nil(t, value)
}

func TestMemoryStateCache_Seed(t *testing.T) {
	c := NewMemoryStateCache()
	entries := []StateEntry{
		{Type: onOffType, Instance: powerInstance, Value: float64(0)},
		{Type: workModeType, Instance: "workMode", Value: map[string]interface{}{"workMode": float64(1), "modeValue": float64(2)}},
	}

	require.NoError(t, c.Seed(context.Background(), testDevice, entries))

	got := c.DeviceState(testDevice)
	sort.Slice(got, func(i, j int) bool { return got[i].Type < got[j].Type })
	assert.Equal(t, entries, got)
}

func TestMemoryStateCache_CancelledContext(t *testing.T) {
	c := NewMemoryStateCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.SetStateValue(ctx, testDevice, onOffType, powerInstance, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStateCache_Clear(t *testing.T) {
	c := NewMemoryStateCache()
	require.NoError(t, c.SetStateValue(context.Background(), testDevice, onOffType, powerInstance, 1))

	c.Clear()

	assert.Empty(t, c.DeviceState(testDevice))
	assert.Equal(t, 0, c.Stats().Devices)
}

func TestSplitStateField(t *testing.T) {
	capabilityType, instance, ok := splitStateField(stateField(onOffType, powerInstance))
	require.True(t, ok)
	assert.Equal(t, onOffType, capabilityType)
	assert.Equal(t, powerInstance, instance)

	_, _, ok = splitStateField("garbage")
	assert.False(t, ok)
}

func TestDecodeStateHash(t *testing.T) {
	entries := decodeStateHash(map[string]string{
		stateField(onOffType, powerInstance): `1`,
		stateField(workModeType, "workMode"): `{"workMode":9,"modeValue":0}`,
		"nofield":                            `1`,
		stateField(onOffType, "broken"):      `{`,
	})

	sort.Slice(entries, func(i, j int) bool { return entries[i].Type < entries[j].Type })
	require.Len(t, entries, 2)
	assert.Equal(t, float64(1), entries[0].Value)
	assert.Equal(t, map[string]interface{}{"workMode": float64(9), "modeValue": float64(0)}, entries[1].Value)
}

func TestRedisStateCache_Unreachable(t *testing.T) {
	logger, hook := test.NewNullLogger()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	c := NewRedisStateCacheWithClient(client, "test:", 200*time.Millisecond, 0, logger)
	defer c.Close()

	_, ok := c.GetCachedStateValue(testDevice, onOffType, powerInstance)
	assert.False(t, ok)
	require.NotNil(t, hook.LastEntry())

	err := c.SetStateValue(context.Background(), testDevice, onOffType, powerInstance, 1)
	assert.Error(t, err)
}

func TestNewRedisStateCache_ConnectFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := NewRedisStateCache(config.RedisConfig{
		Addr:        "127.0.0.1:1",
		ReadTimeout: 200 * time.Millisecond,
	}, logger)
	assert.Error(t, err)
}

func TestRedisStateCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	logger, _ := test.NewNullLogger()
	c, err := NewRedisStateCache(config.RedisConfig{
		Addr:        addr,
		KeyPrefix:   "goveelife:test:" + t.Name() + ":",
		ReadTimeout: time.Second,
		TTL:         time.Minute,
	}, logger)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	workMode := map[string]interface{}{"workMode": 1, "modeValue": 3}
	require.NoError(t, c.SetStateValue(ctx, testDevice, workModeType, "workMode", workMode))

	value, ok := c.GetCachedStateValue(testDevice, workModeType, "workMode")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"workMode": float64(1), "modeValue": float64(3)}, value)

	entries, err := c.DeviceState(ctx, testDevice)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NoError(t, c.Health(ctx))
}
