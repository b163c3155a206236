// Package metrics exposes Prometheus collectors for generations and AI calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scopeforge"

// Metrics groups every collector the engine reports.
type Metrics struct {
	registry *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	aiCalls            *prometheus.CounterVec
	aiDuration         *prometheus.HistogramVec
	aiTokens           *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Artifact generations by family and outcome code.",
		}, []string{"family", "outcome"}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end generation latency by family.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"family"}),
		aiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_calls_total",
			Help:      "AI provider calls by task, provider and status.",
		}, []string{"task", "provider", "status"}),
		aiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_call_duration_seconds",
			Help:      "AI provider call latency by task.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"task", "provider"}),
		aiTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_tokens_total",
			Help:      "Tokens consumed by AI calls.",
		}, []string{"task", "kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status class.",
		}, []string{"method", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.generations,
		m.generationDuration,
		m.aiCalls,
		m.aiDuration,
		m.aiTokens,
		m.httpRequests,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveGeneration is safe to call on a nil receiver.
func (m *Metrics) ObserveGeneration(family, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(family, outcome).Inc()
	m.generationDuration.WithLabelValues(family).Observe(d.Seconds())
}

// ObserveAICall is safe to call on a nil receiver.
func (m *Metrics) ObserveAICall(task, provider, status string, d time.Duration, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	m.aiCalls.WithLabelValues(task, provider, status).Inc()
	m.aiDuration.WithLabelValues(task, provider).Observe(d.Seconds())
	if promptTokens > 0 {
		m.aiTokens.WithLabelValues(task, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.aiTokens.WithLabelValues(task, "completion").Add(float64(completionTokens))
	}
}

// ObserveHTTP is safe to call on a nil receiver.
func (m *Metrics) ObserveHTTP(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
