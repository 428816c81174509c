package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_http_requests_total",
		Help: "The total number of HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobtracker_http_request_duration_seconds",
		Help:    "The HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SlowRequestsTotal counts requests that crossed the slow request threshold.
	SlowRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_http_slow_requests_total",
		Help: "The total number of requests slower than the configured threshold",
	}, []string{"method", "route"})

	// SessionEventsTotal counts session protocol operations by outcome.
	SessionEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobtracker_session_events_total",
		Help: "The total number of register, login, refresh and logout operations by outcome",
	}, []string{"operation", "outcome"})
)

func ObserveSessionEvent(operation, outcome string) {
	SessionEventsTotal.WithLabelValues(operation, outcome).Inc()
}
