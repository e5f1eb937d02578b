package httpserver

import (
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	origins := []string{"*"}
	if s.config != nil && len(s.config.AllowedOrigins) > 0 {
		origins = s.config.AllowedOrigins
	}
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: origins}))

	s.echo.Use(s.middleware.Metrics.CollectHTTPMetrics())
	s.echo.Use(s.middleware.Logging.RequestLogging())
}
