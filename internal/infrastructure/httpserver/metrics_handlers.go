package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "The HTTP request latencies in seconds, by cache outcome (HIT, MISS, STALE, none)",
		},
		[]string{"method", "endpoint", "cache"},
	)

	cacheResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_cache_responses_total",
			Help: "Stats responses by platform and source (fresh_cache, upstream, stale_cache, error)",
		},
		[]string{"platform", "source"},
	)

	cleanupDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_cache_cleanup_deleted_total",
			Help: "Expired cache entries removed by cleanup runs",
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(cacheResponsesTotal)
	prometheus.MustRegister(cleanupDeletedTotal)
}

// ObserveCleanup adds a cleanup run's deleted count; the scheduled cleaner reports here too.
func ObserveCleanup(deleted int64) {
	if deleted > 0 {
		cleanupDeletedTotal.Add(float64(deleted))
	}
}

// GetRequestsTotal returns the requests total metric for middleware use
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDuration returns the request duration metric for middleware use
func GetRequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

// LogMetricsInitialization logs that metrics have been initialized
func (s *Server) LogMetricsInitialization() {
	if s.logger != nil {
		s.logger.Info("Prometheus metrics initialized and registered")
		s.logger.WithFields(map[string]interface{}{
			"http_requests_total":    "Counter for HTTP requests by method, endpoint, status",
			"http_request_duration":  "Histogram for HTTP request duration by method, endpoint, cache",
			"social_cache_responses": "Counter for stats responses by platform, source",
			"social_cache_cleanup":   "Counter for expired cache entries removed",
			"metrics_endpoint":       "/metrics",
		}).Debug("Available Prometheus metrics")
	}
}

// Metrics handler
func (s *Server) metricsHandler() http.Handler {
	return promhttp.Handler()
}

// metricsEndpoint wraps the metrics handler with logging
func (s *Server) metricsEndpoint(c echo.Context) error {
	if s.logger != nil {
		s.logger.Debug("Serving Prometheus metrics")
	}
	handler := s.metricsHandler()
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
