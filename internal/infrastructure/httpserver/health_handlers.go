package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

const healthProbeTimeout = 2 * time.Second

type healthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Timestamp    string            `json:"timestamp"`
	Dependencies map[string]string `json:"dependencies"`
}

// healthCheck probes every dependency in parallel; any failure degrades the
// service and answers 503 so load balancers drain the instance.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthProbeTimeout)
	defer cancel()

	resp := healthResponse{
		Status:       "healthy",
		Service:      "social-analytics-cache",
		Version:      "1.0.0",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Dependencies: make(map[string]string, len(s.healthCheckers)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		hc := hc
		wg.Add(1)
		go func() {
			defer wg.Done()
			state := "healthy"
			if err := hc.Check(ctx); err != nil {
				state = "unhealthy"
				if s.logger != nil {
					s.logger.WithField("dependency", hc.Name()).WithError(err).Warn("health probe failed")
				}
			}
			mu.Lock()
			resp.Dependencies[hc.Name()] = state
			if state != "healthy" {
				resp.Status = "degraded"
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
