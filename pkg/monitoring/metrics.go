package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Generative-AI gateway metrics
	assistantCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_calls_total",
			Help: "Total number of generative-AI gateway calls",
		},
		[]string{"operation", "status", "service"},
	)

	assistantCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_call_duration_seconds",
			Help:    "Duration of generative-AI gateway calls in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"operation", "service"},
	)

	// SOS alert metrics
	sosAlertsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sos_alerts_active",
			Help: "Number of currently active SOS alerts",
		},
		[]string{"service"},
	)

	sosAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sos_alerts_total",
			Help: "Total number of SOS alerts raised",
		},
		[]string{"service"},
	)

	// Store operation metrics
	storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of application store operations",
		},
		[]string{"operation", "outcome", "service"},
	)
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		assistantCallsTotal,
		assistantCallDuration,
		sosAlertsActive,
		sosAlertsTotal,
		storeOperationsTotal,
	)

	return &MetricsCollector{
		serviceName: serviceName,
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordAssistantCall records generative-AI gateway call metrics
func (m *MetricsCollector) RecordAssistantCall(operation, status string, duration time.Duration) {
	assistantCallsTotal.WithLabelValues(operation, status, m.serviceName).Inc()
	assistantCallDuration.WithLabelValues(operation, m.serviceName).Observe(duration.Seconds())
}

// RecordSOSAlert records a newly raised SOS alert
func (m *MetricsCollector) RecordSOSAlert() {
	sosAlertsTotal.WithLabelValues(m.serviceName).Inc()
}

// SetActiveAlerts updates the active SOS alert gauge
func (m *MetricsCollector) SetActiveAlerts(count int) {
	sosAlertsActive.WithLabelValues(m.serviceName).Set(float64(count))
}

// RecordStoreOperation records a store operation outcome
func (m *MetricsCollector) RecordStoreOperation(operation, outcome string) {
	storeOperationsTotal.WithLabelValues(operation, outcome, m.serviceName).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware creates middleware for HTTP request metrics
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		statusCode := strconv.Itoa(wrapper.statusCode)

		m.RecordHTTPRequest(r.Method, r.URL.Path, statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
