// Package metrics exposes Prometheus collectors for the pipeline.
//
// All methods are safe on a nil *Metrics, so components can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lyrics_harvester"

// Metrics groups the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	retries       *prometheus.CounterVec
	tokenRefresh  prometheus.Counter
	items         *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	sinkDocuments prometheus.Gauge
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "External requests by service and result.",
		}, []string{"service", "result"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried external requests by service and reason.",
		}, []string{"service", "reason"}),
		tokenRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Access tokens fetched from the authorization endpoint.",
		}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Work items processed by stage and outcome.",
		}, []string{"stage", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"stage"}),
		sinkDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sink_documents",
			Help:      "Documents in the sink collection at last poll.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.retries,
		m.tokenRefresh,
		m.items,
		m.stageDuration,
		m.sinkDocuments,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Request counts one external request.
func (m *Metrics) Request(service, result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(service, result).Inc()
}

// Retry counts one retried request.
func (m *Metrics) Retry(service, reason string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(service, reason).Inc()
}

// TokenRefresh counts one token fetch.
func (m *Metrics) TokenRefresh() {
	if m == nil {
		return
	}
	m.tokenRefresh.Inc()
}

// Item counts one processed work item.
func (m *Metrics) Item(stage, outcome string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(stage, outcome).Inc()
}

// StageDone records a stage's wall time in seconds.
func (m *Metrics) StageDone(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// SinkDocuments sets the last observed collection size.
func (m *Metrics) SinkDocuments(n int) {
	if m == nil {
		return
	}
	m.sinkDocuments.Set(float64(n))
}
