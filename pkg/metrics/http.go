package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPClientMetrics records the traffic flowing through the API transport.
type HTTPClientMetrics struct {
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	refreshAttempts prometheus.Counter
	refreshFailures prometheus.Counter
}

// NewHTTPClientMetrics registers the transport metrics on the provided
// registerer. A nil registerer yields no-op instruments.
func NewHTTPClientMetrics(reg prometheus.Registerer) *HTTPClientMetrics {
	if reg == nil {
		return &HTTPClientMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Requests sent to the marketplace backend by method and status.",
	}, []string{"method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "Duration of backend requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	refreshAttempts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "token_refresh_attempts_total",
		Help: "Access token refresh attempts triggered by unauthorized responses.",
	})
	refreshFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "token_refresh_failures_total",
		Help: "Refresh attempts that failed and tore the session down.",
	})
	reg.MustRegister(requests, duration, refreshAttempts, refreshFailures)
	return &HTTPClientMetrics{
		requests:        requests,
		duration:        duration,
		refreshAttempts: refreshAttempts,
		refreshFailures: refreshFailures,
	}
}

// ObserveRequest records one completed request.
func (m *HTTPClientMetrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeMethod(method), strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(normalizeMethod(method)).Observe(elapsed.Seconds())
}

// IncRefreshAttempt counts a refresh triggered by a 401.
func (m *HTTPClientMetrics) IncRefreshAttempt() {
	if m == nil || m.refreshAttempts == nil {
		return
	}
	m.refreshAttempts.Inc()
}

// IncRefreshFailure counts a refresh that failed.
func (m *HTTPClientMetrics) IncRefreshFailure() {
	if m == nil || m.refreshFailures == nil {
		return
	}
	m.refreshFailures.Inc()
}

func normalizeMethod(method string) string {
	if method == "" {
		return "unknown"
	}
	return method
}
