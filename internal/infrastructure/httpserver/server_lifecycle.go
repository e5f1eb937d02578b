package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Start blocks serving HTTP (or HTTPS when both TLS files are configured) until
// Shutdown is called. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.LogMetricsInitialization()

	addr := net.JoinHostPort(s.config.Host, s.config.Port)
	tls := s.config.TLSCertFile != "" && s.config.TLSKeyFile != ""
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"addr": addr, "tls": tls, "environment": s.config.Environment}).Info("starting stats API")
		if !tls {
			s.logger.Warn("TLS certificates not configured, serving plain HTTP")
		}
	}

	var err error
	if tls {
		err = s.echo.StartTLS(addr, s.config.TLSCertFile, s.config.TLSKeyFile)
	} else {
		err = s.echo.StartServer(&http.Server{
			Addr:         addr,
			ReadTimeout:  s.config.ReadTimeout,
			WriteTimeout: s.config.WriteTimeout,
			IdleTimeout:  s.config.IdleTimeout,
		})
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("stopping stats API")
	}
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
