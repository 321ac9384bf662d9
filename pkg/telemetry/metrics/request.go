package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics covers inbound proxy traffic: a request counter and a
// duration histogram for plain HTTP, and a gauge plus counter pair for
// WebSocket sessions. The series live under sextant_http_* and
// sextant_websocket_*.
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sessionsActive  prometheus.Gauge
	sessionsTotal   prometheus.Counter
}

// NewRequestMetrics creates and registers request metrics with the provided
// registry.
func NewRequestMetrics(registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of inbound HTTP requests handled",
			},
			[]string{"method", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of inbound HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_sessions_active",
				Help:      "Number of currently open WebSocket sessions",
			},
		),

		sessionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "websocket_sessions_total",
				Help:      "Total number of WebSocket sessions established",
			},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.sessionsActive,
		rm.sessionsTotal,
	)

	return rm
}

// RecordRequest records metrics for a completed inbound request.
func (rm *RequestMetrics) RecordRequest(method, status string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(method, status).Inc()
	rm.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// SessionOpened records a newly established WebSocket session.
func (rm *RequestMetrics) SessionOpened() {
	rm.sessionsTotal.Inc()
	rm.sessionsActive.Inc()
}

// SessionClosed records the end of a WebSocket session.
func (rm *RequestMetrics) SessionClosed() {
	rm.sessionsActive.Dec()
}
