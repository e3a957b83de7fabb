// internal/monitoring/metrics.go
// Package monitoring exposes Prometheus metrics and a health endpoint for the
// extraction service.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks extraction outcomes. Each instance carries its own registry
// so tests and embedded uses never collide on metric registration.
type Metrics struct {
	registry *prometheus.Registry

	extractionsTotal   *prometheus.CounterVec
	fieldOutcomes      *prometheus.CounterVec
	strategyHits       *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	retrievalFailures  prometheus.Counter
}

// New creates a metrics set under the given namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dealparse"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		extractionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "requests_total",
			Help:      "Extraction requests by engine and outcome.",
		}, []string{"engine", "outcome"}),
		fieldOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "fields_total",
			Help:      "Per-field outcomes by engine.",
		}, []string{"engine", "field", "outcome"}),
		strategyHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "strategy_hits_total",
			Help:      "Successful strategy matches by field and method.",
		}, []string{"field", "method"}),
		extractionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Extraction duration by engine.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine"}),
		retrievalFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "failures_total",
			Help:      "Source page retrieval failures.",
		}),
	}
}

// RecordExtraction records one completed extraction call.
func (m *Metrics) RecordExtraction(engine string, success bool, duration time.Duration) {
	m.extractionsTotal.WithLabelValues(engine, outcome(success)).Inc()
	m.extractionDuration.WithLabelValues(engine).Observe(duration.Seconds())
}

// RecordField records one field-level outcome. method is empty on a miss.
func (m *Metrics) RecordField(engine, field, method string, found bool) {
	m.fieldOutcomes.WithLabelValues(engine, field, outcome(found)).Inc()
	if found && method != "" {
		m.strategyHits.WithLabelValues(field, method).Inc()
	}
}

// RecordRetrievalFailure records one failed page fetch.
func (m *Metrics) RecordRetrievalFailure() {
	m.retrievalFailures.Inc()
}

// Handler serves the metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
