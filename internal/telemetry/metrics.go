package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace_orders"

// Metrics owns its registry so several instances can coexist in tests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Checkouts     *prometheus.CounterVec
	StatusUpdates *prometheus.CounterVec
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkouts by outcome.",
		}, []string{"outcome"}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_updates_total",
			Help:      "Applied suborder status updates by target status.",
		}, []string{"status"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.Checkouts,
		m.StatusUpdates,
		m.Requests,
		m.LatencyMS,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) CheckoutOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StatusUpdated(status string) {
	if m == nil {
		return
	}
	m.StatusUpdates.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveRequest(route, status string, durationMS float64) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, status).Inc()
	m.LatencyMS.WithLabelValues(route).Observe(durationMS)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
