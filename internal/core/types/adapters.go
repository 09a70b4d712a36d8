package types

import (
	"context"
	"sync"
	"time"
)

// PMAAdapter is the surface a source adapter exposes to the PMA core
type PMAAdapter interface {
	GetID() string
	GetSourceType() PMASourceType
	GetName() string
	GetVersion() string

	ExecuteAction(ctx context.Context, action PMAControlAction) (*PMAControlResult, error)
	SyncEntities(ctx context.Context) ([]PMAEntity, error)
	GetLastSyncTime() *time.Time

	GetSupportedEntityTypes() []PMAEntityType
	GetSupportedCapabilities() []PMACapability
	GetMetrics() *AdapterMetrics
}

// AdapterMetrics is a point-in-time view of adapter activity
type AdapterMetrics struct {
	EntitiesManaged     int           `json:"entities_managed"`
	ActionsExecuted     int64         `json:"actions_executed"`
	SuccessfulActions   int64         `json:"successful_actions"`
	FailedActions       int64         `json:"failed_actions"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	LastSync            *time.Time    `json:"last_sync,omitempty"`
}

// ActionStats accumulates control action outcomes. The zero value is ready to use.
type ActionStats struct {
	mutex   sync.Mutex
	total   int64
	failed  int64
	elapsed time.Duration
}

// Record adds one action that took duration and ended with err
func (s *ActionStats) Record(duration time.Duration, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.total++
	s.elapsed += duration
	if err != nil {
		s.failed++
	}
}

// Snapshot returns the counters as AdapterMetrics
func (s *ActionStats) Snapshot(entities int, lastSync *time.Time) *AdapterMetrics {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := &AdapterMetrics{
		EntitiesManaged:   entities,
		ActionsExecuted:   s.total,
		SuccessfulActions: s.total - s.failed,
		FailedActions:     s.failed,
		LastSync:          lastSync,
	}
	if s.total > 0 {
		m.AverageResponseTime = s.elapsed / time.Duration(s.total)
	}
	return m
}
