package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// StateEntry is one capability instance value of a device
type StateEntry struct {
	Type     string      `json:"type" yaml:"type"`
	Instance string      `json:"instance" yaml:"instance"`
	Value    interface{} `json:"value" yaml:"value"`
}

// StateStatistics tracks cache lookups
type StateStatistics struct {
	Devices   int       `json:"devices"`
	Entries   int       `json:"entries"`
	HitCount  uint64    `json:"hit_count"`
	MissCount uint64    `json:"miss_count"`
	TotalSets uint64    `json:"total_sets"`
	UpdatedAt time.Time `json:"updated_at"`
}

// stateField is the per-device key of a capability instance
func stateField(capabilityType, instance string) string {
	return capabilityType + "|" + instance
}

func splitStateField(field string) (string, string, bool) {
	i := strings.LastIndex(field, "|")
	if i < 0 {
		return "", "", false
	}
	return field[:i], field[i+1:], true
}

// MemoryStateCache keeps the last known capability values of every device in
// process memory.
type MemoryStateCache struct {
	devices map[string]map[string]interface{}
	mutex   sync.RWMutex
	stats   StateStatistics
}

// NewMemoryStateCache creates an empty state cache
func NewMemoryStateCache() *MemoryStateCache {
	return &MemoryStateCache{
		devices: make(map[string]map[string]interface{}),
	}
}

// GetCachedStateValue returns the last value of a capability instance
func (c *MemoryStateCache) GetCachedStateValue(deviceID, capabilityType, instance string) (interface{}, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	values, ok := c.devices[deviceID]
	if ok {
		var value interface{}
		if value, ok = values[stateField(capabilityType, instance)]; ok {
			c.stats.HitCount++
			return value, true
		}
	}
	c.stats.MissCount++
	return nil, false
}

// SetStateValue stores a capability instance value
func (c *MemoryStateCache) SetStateValue(ctx context.Context, deviceID, capabilityType, instance string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	values, ok := c.devices[deviceID]
	if !ok {
		values = make(map[string]interface{})
		c.devices[deviceID] = values
	}
	values[stateField(capabilityType, instance)] = value
	c.stats.TotalSets++
	c.stats.UpdatedAt = time.Now()
	return nil
}

// Seed stores several entries of one device at once
func (c *MemoryStateCache) Seed(ctx context.Context, deviceID string, entries []StateEntry) error {
	for _, entry := range entries {
		if err := c.SetStateValue(ctx, deviceID, entry.Type, entry.Instance, entry.Value); err != nil {
			return err
		}
	}
	return nil
}

// DeviceState returns a copy of every stored entry of a device
func (c *MemoryStateCache) DeviceState(deviceID string) []StateEntry {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	values := c.devices[deviceID]
	entries := make([]StateEntry, 0, len(values))
	for field, value := range values {
		capabilityType, instance, ok := splitStateField(field)
		if !ok {
			continue
		}
		entries = append(entries, StateEntry{Type: capabilityType, Instance: instance, Value: value})
	}
	return entries
}

// Stats returns a snapshot of the cache statistics
func (c *MemoryStateCache) Stats() StateStatistics {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := c.stats
	stats.Devices = len(c.devices)
	for _, values := range c.devices {
		stats.Entries += len(values)
	}
	return stats
}

// Clear removes every stored value
func (c *MemoryStateCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.devices = make(map[string]map[string]interface{})
}
