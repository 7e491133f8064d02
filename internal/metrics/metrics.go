// Package metrics holds the Prometheus collectors of the auth service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	EventRegister      = "register"
	EventAdminRegister = "admin_register"
	EventLogin         = "login"
	EventAdminLogin    = "admin_login"
	EventGoogleLogin   = "google_login"
	EventRefresh       = "refresh"
	EventLogout        = "logout"
	EventPasswordReset = "password_reset"
	EventVerifyEmail   = "verify_email"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vegbazar_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vegbazar_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vegbazar_auth_events_total",
			Help: "Auth flow outcomes by event",
		},
		[]string{"event", "result"},
	)

	EmailFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vegbazar_email_failures_total",
			Help: "Transactional emails that could not be delivered",
		},
		[]string{"kind"},
	)
)

// RecordAuthEvent counts the outcome of an auth flow.
func RecordAuthEvent(event string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	AuthEventsTotal.WithLabelValues(event, result).Inc()
}

// RecordEmailFailure counts an undelivered email of the given kind.
func RecordEmailFailure(kind string) {
	EmailFailuresTotal.WithLabelValues(kind).Inc()
}
