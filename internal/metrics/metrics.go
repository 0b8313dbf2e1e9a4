// Package metrics exposes Prometheus instruments for the library service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	lendingTransitions  *prometheus.CounterVec
	catalogOperations   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		lendingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lms",
			Name:      "lending_transitions_total",
			Help:      "Lending workflow transitions by kind.",
		}, []string{"transition"}),
		catalogOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lms",
			Name:      "catalog_operations_total",
			Help:      "Catalog mutations by operation.",
		}, []string{"operation"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lms",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.lendingTransitions,
		m.catalogOperations,
		m.httpRequestDuration,
	)

	return m
}

// LendingTransition counts one workflow transition
func (m *Metrics) LendingTransition(transition string) {
	if m == nil {
		return
	}
	m.lendingTransitions.WithLabelValues(transition).Inc()
}

// CatalogOperation counts one catalog mutation
func (m *Metrics) CatalogOperation(operation string) {
	if m == nil {
		return
	}
	m.catalogOperations.WithLabelValues(operation).Inc()
}

// ObserveHTTP records the latency of one request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
