package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkout"

type Metrics struct {
	Requests    *prometheus.CounterVec
	LatencyMS   *prometheus.HistogramVec
	Checkouts   *prometheus.CounterVec
	Webhooks    *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	gatherer    prometheus.Gatherer
}

func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func New(reg *prometheus.Registry) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"result"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_webhooks_total",
		Help:      "Payment provider events by type and outcome.",
	}, []string{"type", "result"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Order status transitions by target status and outcome.",
	}, []string{"status", "result"})

	reg.MustRegister(requests, latency, checkouts, webhooks, transitions)
	return &Metrics{
		Requests:    requests,
		LatencyMS:   latency,
		Checkouts:   checkouts,
		Webhooks:    webhooks,
		Transitions: transitions,
		gatherer:    reg,
	}
}

// NewNop returns metrics bound to a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) CheckoutResult(result string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
}

func (m *Metrics) WebhookResult(eventType, result string) {
	if m == nil {
		return
	}
	m.Webhooks.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) TransitionResult(status, result string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status, result).Inc()
}
