package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the orchestrator's Prometheus collectors.
// All methods are safe on a nil receiver, which disables collection.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	attempts       *prometheus.CounterVec
	tokens         *prometheus.CounterVec
	cooldowns      *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewMetrics creates collectors registered on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchestrator_requests_total",
				Help: "Total number of orchestrated generation requests",
			},
			[]string{"status"}, // status: success|capacity_exhausted|all_models_failed
		),

		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchestrator_attempts_total",
				Help: "Total number of generation attempts against a model",
			},
			[]string{"provider", "model", "outcome"},
		),

		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchestrator_tokens_total",
				Help: "Total tokens reported by successful generations",
			},
			[]string{"provider", "model"},
		),

		cooldowns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orchestrator_cooldowns_triggered_total",
				Help: "Total number of cooldowns started",
			},
			[]string{"model", "reason"}, // reason: usage_threshold|rate_limited
		),

		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orchestrator_request_latency_seconds",
				Help:    "End-to-end latency of successful requests by serving model",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"model"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.attempts,
		m.tokens,
		m.cooldowns,
		m.requestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordRequest counts a finished request by status
func (m *Metrics) RecordRequest(status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(status).Inc()
}

// RecordAttempt counts one generation attempt
func (m *Metrics) RecordAttempt(provider, model, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, model, outcome).Inc()
}

// RecordTokens adds tokens consumed by a successful generation
func (m *Metrics) RecordTokens(provider, model string, tokens int) {
	if m == nil || tokens <= 0 {
		return
	}
	m.tokens.WithLabelValues(provider, model).Add(float64(tokens))
}

// RecordCooldown counts a cooldown start
func (m *Metrics) RecordCooldown(model, reason string) {
	if m == nil {
		return
	}
	m.cooldowns.WithLabelValues(model, reason).Inc()
}

// ObserveLatency records the end-to-end latency of a successful request
func (m *Metrics) ObserveLatency(model string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(model).Observe(d.Seconds())
}

// Registry exposes the underlying registry for tests and custom collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
