package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements MetricsCollector using Prometheus metrics
type PrometheusCollector struct {
	registry *prometheus.Registry

	// HTTP Metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// WebSocket Metrics
	websocketConnections prometheus.Gauge
	websocketMessages    *prometheus.CounterVec

	// Climate Metrics
	climateCommands   *prometheus.CounterVec
	climateUnmapped   *prometheus.CounterVec
	climateEntities   prometheus.Gauge
	stateBroadcasts   prometheus.Counter
	broadcastEntities prometheus.Gauge
}

// NewPrometheusCollector creates a collector registering into its own registry
func NewPrometheusCollector(config *MetricsConfig) *PrometheusCollector {
	if config == nil {
		config = &MetricsConfig{
			Enabled: true,
			Prefix:  "goveelife",
		}
	}
	prefix := config.Prefix

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	collector := &PrometheusCollector{registry: registry}

	collector.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	collector.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	collector.websocketConnections = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_websocket_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	collector.websocketMessages = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_websocket_messages_total",
			Help: "Total number of WebSocket messages sent",
		},
		[]string{"type"},
	)

	collector.climateCommands = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_climate_commands_total",
			Help: "Total number of climate commands sent to devices",
		},
		[]string{"capability", "result"},
	)

	collector.climateUnmapped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_climate_unmapped_values_total",
			Help: "Total number of device readings that could not be mapped",
		},
		[]string{"property"},
	)

	collector.climateEntities = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_climate_entities",
			Help: "Number of registered climate entities",
		},
	)

	collector.stateBroadcasts = factory.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_state_broadcasts_total",
			Help: "Total number of periodic climate state broadcasts",
		},
	)

	collector.broadcastEntities = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_state_broadcast_entities",
			Help: "Number of entities in the last periodic broadcast",
		},
	)

	return collector
}

// Registry returns the registry holding the collector's metrics
func (p *PrometheusCollector) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format
func (p *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusCollector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	p.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	p.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordWebSocketConnection(delta int) {
	p.websocketConnections.Add(float64(delta))
}

func (p *PrometheusCollector) RecordWebSocketMessage(messageType string) {
	p.websocketMessages.WithLabelValues(messageType).Inc()
}

// RecordCommand implements goveelife.MetricsRecorder
func (p *PrometheusCollector) RecordCommand(capabilityType string, applied bool) {
	result := "failed"
	if applied {
		result = "applied"
	}
	p.climateCommands.WithLabelValues(capabilityType, result).Inc()
}

// RecordUnmappedValue implements goveelife.MetricsRecorder
func (p *PrometheusCollector) RecordUnmappedValue(property string) {
	p.climateUnmapped.WithLabelValues(property).Inc()
}

func (p *PrometheusCollector) RecordStateBroadcast(entities int) {
	p.stateBroadcasts.Inc()
	p.broadcastEntities.Set(float64(entities))
}

func (p *PrometheusCollector) SetClimateEntities(count int) {
	p.climateEntities.Set(float64(count))
}
