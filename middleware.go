package main

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/debemdeboas/mediafront/internal/cache"
	"github.com/debemdeboas/mediafront/internal/config"
	"github.com/debemdeboas/mediafront/internal/routes"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mediafront_http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "code"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediafront_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"path", "method", "code"})
)

// instrument records RED metrics labelled with the route pattern rather
// than the raw path, so slugs do not explode the label set.
func instrument(pattern string, h http.HandlerFunc) http.HandlerFunc {
	labels := prometheus.Labels{"path": pattern}
	return promhttp.InstrumentHandlerDuration(
		httpDuration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(httpRequests.MustCurryWith(labels), h),
	)
}

func cacheIt(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set(config.HVary, "Cookie")

		// Add etag header to response if it's a static file
		if hash, ok := cache.GetStaticHash(r.URL.Path); ok {
			w.Header().Set(config.HCacheControl, "public, max-age=3600")
			w.Header().Set(config.HETag, hash)

			if match := r.Header.Get("If-None-Match"); match == hash {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		h(w, r)
	}
}

func secureHeaders(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "same-origin")

		h(w, r)
	}
}

// htmxOnly sends plain browser visits of a fragment URL to the full page.
func htmxOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(config.HHxRequest) == "" {
			http.Redirect(w, r, routes.RootPath, http.StatusSeeOther)
			return
		}
		h(w, r)
	}
}

// compress gzips responses except the event stream, which must flush
// every message as it is written.
func compress(h http.Handler) http.HandlerFunc {
	gz := gzhttp.GzipHandler(h)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == routes.SSEPath {
			h.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	}
}
