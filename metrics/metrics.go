package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain events, labeled by what happened (e.g. "follow", "unfollow").
	RelationshipEvents *prometheus.CounterVec
	EngagementEvents   *prometheus.CounterVec
	UploadedBytes      prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the metrics singleton, registering the collectors on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tunefeed_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tunefeed_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "route"},
			),
			RelationshipEvents: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tunefeed_relationship_events_total",
					Help: "Follow and unfollow operations",
				},
				[]string{"event"},
			),
			EngagementEvents: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tunefeed_engagement_events_total",
					Help: "Likes, unlikes, comments and posts",
				},
				[]string{"event"},
			),
			UploadedBytes: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "tunefeed_uploaded_bytes_total",
					Help: "Bytes of media stored",
				},
			),
		}
	})
	return instance
}

// Relationship records a follow graph event.
func Relationship(event string) {
	Get().RelationshipEvents.WithLabelValues(event).Inc()
}

// Engagement records a like, unlike, comment or post event.
func Engagement(event string) {
	Get().EngagementEvents.WithLabelValues(event).Inc()
}
