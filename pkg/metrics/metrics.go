// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ott_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ott_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Recommendation Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ott_recommendation_requests_total",
			Help: "Recommendation requests served, by kind and whether a child filter applied",
		},
		[]string{"kind", "child_filter"},
	)

	RecommendationResultSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ott_recommendation_result_size",
			Help:    "Number of items returned per recommendation request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
		[]string{"kind"},
	)

	// Watch Progress Metrics
	ProgressUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ott_watch_progress_upserts_total",
			Help: "Watch progress upserts, by completion state",
		},
		[]string{"completed"},
	)

	// Geolocation Metrics
	GeolocationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ott_geolocation_cache_hits_total",
			Help: "Country lookups answered from cache",
		},
	)

	GeolocationLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ott_geolocation_lookups_total",
			Help: "Remote country lookups, by result",
		},
		[]string{"result"}, // result: "success", "failure", "rejected"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ott_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ott_events_published_total",
			Help: "Domain events forwarded to the broker, by type and result",
		},
		[]string{"event_type", "result"},
	)
)

// HTTPMiddleware records request counts and latency per route pattern.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		APIRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		APIRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}
