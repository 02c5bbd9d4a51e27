package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shorten outcomes.
const (
	OutcomeCreated       = "created"
	OutcomeDeduplicated  = "deduplicated"
	OutcomeConflictRetry = "conflict_retry"
	OutcomeExhausted     = "exhausted"
)

// Metrics owns a private registry so several instances can coexist in tests.
// All methods are safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	shorten  *prometheus.CounterVec
}

// New registers the service collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		shorten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortener_shorten_total",
			Help: "Shorten calls by outcome",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.shorten,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(took.Seconds())
}

// ShortenOutcome counts one shorten result.
func (m *Metrics) ShortenOutcome(outcome string) {
	if m == nil {
		return
	}
	m.shorten.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
