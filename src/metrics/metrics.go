package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linebot"

// Route labels for resolver decisions
const (
	RouteMatch    = "match"
	RouteFallback = "fallback"
	RouteMissing  = "reply_missing"
	RouteError    = "error"
)

// Metrics holds the collectors for one process. Each instance owns its registry,
// so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	WebhookRequests   *prometheus.CounterVec
	ResolverDecisions *prometheus.CounterVec
	FallbackRequests  *prometheus.CounterVec
	ResolveDuration   prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		WebhookRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Webhook calls by the last stage reached and its outcome",
		}, []string{"stage", "outcome"}),
		ResolverDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolver_decisions_total",
			Help:      "Resolved messages by route",
		}, []string{"route"}),
		FallbackRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_requests_total",
			Help:      "Generation service calls by outcome",
		}, []string{"outcome"}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Time spent resolving one inbound message",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.WebhookRequests,
		m.ResolverDecisions,
		m.FallbackRequests,
		m.ResolveDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Webhook(stage, outcome string) {
	if m == nil {
		return
	}
	m.WebhookRequests.WithLabelValues(stage, outcome).Inc()
}

func (m *Metrics) Decision(route string) {
	if m == nil {
		return
	}
	m.ResolverDecisions.WithLabelValues(route).Inc()
}

func (m *Metrics) Fallback(outcome string) {
	if m == nil {
		return
	}
	m.FallbackRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveResolve(seconds float64) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(seconds)
}
