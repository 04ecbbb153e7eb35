package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "poolwatch"

// check-user outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Session events.
const (
	SessionCreated     = "created"
	SessionValidated   = "validated"
	SessionExpired     = "expired"
	SessionInvalid     = "invalid"
	SessionInvalidated = "invalidated"
	SessionSwept       = "swept"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Accounts
	CheckUserTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_user_total",
			Help:      "Total number of check-user requests by outcome",
		},
		[]string{"outcome"},
	)

	// Sessions
	SessionEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Total number of session lifecycle events",
		},
		[]string{"event"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Current number of sessions held in memory",
		},
	)

	// Data source
	DatasourceAcquireDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "datasource_acquire_duration_seconds",
			Help:      "Time to open the tunnel and database connection",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"driver"},
	)

	DatasourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasource_errors_total",
			Help:      "Total number of failed data source acquisitions",
		},
		[]string{"driver"},
	)

	// Export
	ExportErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_errors_total",
			Help:      "Total number of failed snapshot exports by sink",
		},
		[]string{"sink"},
	)
)

// RecordHTTPRequest records the latency of a completed request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordCheckUser counts a check-user outcome.
func RecordCheckUser(outcome string) {
	CheckUserTotal.WithLabelValues(outcome).Inc()
}

// RecordSessionEvent counts a session lifecycle event.
func RecordSessionEvent(event string) {
	SessionEventsTotal.WithLabelValues(event).Inc()
}

// RecordSessionsSwept counts sessions removed by a sweep.
func RecordSessionsSwept(n int) {
	SessionEventsTotal.WithLabelValues(SessionSwept).Add(float64(n))
}

// SetActiveSessions sets the active session gauge.
func SetActiveSessions(n int) {
	ActiveSessions.Set(float64(n))
}

// RecordAcquire records a data source acquisition attempt.
func RecordAcquire(driver string, duration time.Duration, err error) {
	DatasourceAcquireDuration.WithLabelValues(driver).Observe(duration.Seconds())
	if err != nil {
		DatasourceErrorsTotal.WithLabelValues(driver).Inc()
	}
}

// RecordExportError counts a failed export to sink.
func RecordExportError(sink string) {
	ExportErrorsTotal.WithLabelValues(sink).Inc()
}
