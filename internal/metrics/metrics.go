// Package metrics holds the Prometheus collectors exported by the gateway.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "apilocale"

// Metrics wraps the collectors for the cache and translation stages.
type Metrics struct {
	registry *prometheus.Registry

	responseCache    *prometheus.CounterVec
	translations     *prometheus.CounterVec
	localized        *prometheus.CounterVec
	storeErrors      *prometheus.CounterVec
	endpointDuration *prometheus.HistogramVec
	invalidations    *prometheus.CounterVec
}

// endpoint calls are network bound, seconds
var endpointBuckets = []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// New creates a Metrics instance backed by its own registry, including the
// Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,

		responseCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "response_cache_total",
				Help:      "Response cache lookups by result (hit, miss, bypass, store_error)",
			},
			[]string{"result"},
		),

		translations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "translations_total",
				Help:      "Translated texts by the tier that served them",
			},
			[]string{"source"},
		),

		localized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "localized_objects_total",
				Help:      "Objects localized by detected record type",
			},
			[]string{"type"},
		),

		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Persistent store failures by operation",
			},
			[]string{"op"},
		),

		endpointDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "endpoint_duration_seconds",
				Help:      "Translation endpoint call latency",
				Buckets:   endpointBuckets,
			},
			[]string{"outcome"},
		),

		invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_invalidated_keys_total",
				Help:      "Response cache keys removed by scope (all, language, sweep)",
			},
			[]string{"scope"},
		),
	}

	registry.MustRegister(
		m.responseCache,
		m.translations,
		m.localized,
		m.storeErrors,
		m.endpointDuration,
		m.invalidations,
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ResponseCache(result string) {
	if m == nil {
		return
	}
	m.responseCache.WithLabelValues(result).Inc()
}

func (m *Metrics) Translation(source string) {
	if m == nil {
		return
	}
	m.translations.WithLabelValues(source).Inc()
}

func (m *Metrics) Localized(recordType string) {
	if m == nil {
		return
	}
	m.localized.WithLabelValues(recordType).Inc()
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) EndpointCall(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.endpointDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) Invalidated(scope string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invalidations.WithLabelValues(scope).Add(float64(n))
}
