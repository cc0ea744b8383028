package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	providerCallsTotal   *prometheus.CounterVec
	providerCallDuration *prometheus.HistogramVec
	connectAttemptsTotal *prometheus.CounterVec
	notificationsTotal   *prometheus.CounterVec
	httpRequestsTotal    *prometheus.CounterVec
	wsActiveClients      prometheus.Gauge
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		providerCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletdash_provider_calls_total",
				Help: "Total number of wallet provider calls by operation and status",
			},
			[]string{"operation", "status"},
		),
		providerCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletdash_provider_call_duration_seconds",
				Help:    "Duration of wallet provider calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"operation"},
		),
		connectAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletdash_connect_attempts_total",
				Help: "Total number of wallet connect attempts by outcome",
			},
			[]string{"outcome"},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletdash_notifications_total",
				Help: "Total number of user notifications by level",
			},
			[]string{"level"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletdash_http_requests_total",
				Help: "Total number of API requests by handler, method and status class",
			},
			[]string{"handler", "method", "status"},
		),
		wsActiveClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "walletdash_ws_active_clients",
				Help: "Number of connected WebSocket clients",
			},
		),
	}
}

// RecordProviderCall records one provider call with its duration.
func (m *Metrics) RecordProviderCall(operation string, duration float64, err error) {
	if m == nil {
		return
	}
	m.providerCallsTotal.WithLabelValues(operation, statusOf(err)).Inc()
	m.providerCallDuration.WithLabelValues(operation).Observe(duration)
}

// RecordConnect records a connect attempt. outcome is a short label such as
// "success", "unsupported" or "rejected".
func (m *Metrics) RecordConnect(outcome string) {
	if m == nil {
		return
	}
	m.connectAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordNotification records a notification shown to the user.
func (m *Metrics) RecordNotification(level string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(level).Inc()
}

// RecordHTTPRequest records an API request.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(handler, method, statusCodeToString(statusCode)).Inc()
}

// RecordWSClientChange records a change in WebSocket client count.
func (m *Metrics) RecordWSClientChange(delta float64) {
	if m == nil {
		return
	}
	m.wsActiveClients.Add(delta)
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func statusCodeToString(code int) string {
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
