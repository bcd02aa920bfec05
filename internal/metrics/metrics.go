// Package metrics holds the Prometheus collectors for the service. They are
// registered with the default registry at init and exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Toggles counts like/follow toggles by kind ("like", "follow") and the
	// resulting state ("on", "off").
	Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postagram_toggles_total",
		Help: "Total number of like and follow toggles by resulting state",
	}, []string{"kind", "state"})

	// ToggleRaces counts inserts that lost a race to a concurrent toggle and
	// were collapsed to the current state.
	ToggleRaces = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postagram_toggle_races_total",
		Help: "Toggle inserts that found the edge already present",
	}, []string{"kind"})

	// NotificationsCreated counts notifications by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postagram_notifications_created_total",
		Help: "Total number of notifications created by type",
	}, []string{"type"})

	// ContentCreated counts posts and comments.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postagram_content_created_total",
		Help: "Total number of posts and comments created",
	}, []string{"kind"})

	// HTTPRequestDuration records request latency by route pattern, method
	// and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postagram_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

// RecordToggle increments Toggles for the resulting state.
func RecordToggle(kind string, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	Toggles.WithLabelValues(kind, state).Inc()
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(route, method string, status int, start time.Time) {
	HTTPRequestDuration.
		WithLabelValues(route, method, strconv.Itoa(status)).
		Observe(time.Since(start).Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
