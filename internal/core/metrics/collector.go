package metrics

import (
	"time"
)

// MetricsCollector defines the interface for collecting metrics
type MetricsCollector interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
	RecordWebSocketConnection(delta int)
	RecordWebSocketMessage(messageType string)
	RecordCommand(capabilityType string, applied bool)
	RecordUnmappedValue(property string)
	RecordStateBroadcast(entities int)
	SetClimateEntities(count int)
}

// MetricsConfig contains configuration for metrics collection
type MetricsConfig struct {
	Enabled bool
	Prefix  string
}
