package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the verifier. It implements
// walletverify.Recorder.
type Metrics struct {
	// Verification Metrics
	verificationsTotal   *prometheus.CounterVec
	verificationDuration *prometheus.HistogramVec
	checkFailuresTotal   *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		verificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletverify_verifications_total",
				Help: "Total number of signature verifications by wallet and outcome",
			},
			[]string{"wallet", "outcome"},
		),
		verificationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletverify_verification_duration_seconds",
				Help:    "Duration of signature verifications in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"wallet"},
		),
		checkFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletverify_check_failures_total",
				Help: "Total number of failed address, challenge and signature checks",
			},
			[]string{"wallet", "check"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
	}
}

// Verification metric helpers

// RecordVerification records one verification and its duration.
func (m *Metrics) RecordVerification(wallet, outcome string, duration time.Duration) {
	m.verificationsTotal.WithLabelValues(wallet, outcome).Inc()
	if duration > 0 {
		m.verificationDuration.WithLabelValues(wallet).Observe(duration.Seconds())
	}
}

// RecordCheckFailure records a failed check of a completed verification.
func (m *Metrics) RecordCheckFailure(wallet, check string) {
	m.checkFailuresTotal.WithLabelValues(wallet, check).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
