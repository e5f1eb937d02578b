package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// cacheHeader is set by the stats handlers to HIT, MISS or STALE.
const cacheHeader = "X-Cache"

// MetricsMiddleware records request counts and latencies. Latency is also split
// by cache outcome so fresh hits and upstream round trips can be told apart.
type MetricsMiddleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewMetricsMiddleware(requests *prometheus.CounterVec, latency *prometheus.HistogramVec) *MetricsMiddleware {
	return &MetricsMiddleware{requests: requests, latency: latency}
}

// CollectHTTPMetrics labels by route template, never by raw path, so company ids
// do not explode label cardinality.
func (m *MetricsMiddleware) CollectHTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo render the error first so the recorded status is the real one
				c.Error(err)
				err = nil
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.latency.WithLabelValues(method, route, cacheOutcome(c)).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func cacheOutcome(c echo.Context) string {
	if v := c.Response().Header().Get(cacheHeader); v != "" {
		return v
	}
	return "none"
}
