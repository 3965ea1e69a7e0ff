package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	endpointPosts      = "posts"
	endpointFeatured   = "featured_post"
	endpointPost       = "post"
	endpointCategories = "categories"
	endpointHit        = "post_hit"
)

var (
	apiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mediafront_api_request_duration_seconds",
		Help:    "Duration of requests to the news API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediafront_api_requests_total",
		Help: "Total number of requests to the news API.",
	}, []string{"endpoint", "status"})
)

// observe records one API round trip; status is the HTTP code or "error" for transport failures.
func observe(endpoint, status string, elapsed time.Duration) {
	apiDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	apiRequests.WithLabelValues(endpoint, status).Inc()
}
