// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Posting outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeInsufficient = "insufficient_funds"
	OutcomeDeclined     = "declined"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
)

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
	Postings     *prometheus.CounterVec
}

// New registers every collector, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rechargehub_http_requests_total",
			Help: "Total HTTP requests processed, labeled by status code",
		}, []string{"method", "route", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rechargehub_http_request_duration_seconds",
			Help:    "Latency distribution of HTTP requests",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route"}),
		Postings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rechargehub_postings_total",
			Help: "Balance-mutation workflow executions by kind, payment method and outcome",
		}, []string{"kind", "method", "outcome"}),
	}
}

// Registry exposes the underlying registry for the HTTP exposition handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePosting counts one workflow execution. A nil receiver is a no-op.
func (m *Metrics) ObservePosting(kind, method, outcome string) {
	if m == nil {
		return
	}
	m.Postings.WithLabelValues(kind, method, outcome).Inc()
}
