package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/httpserver/helpers"
)

type RateLimitMiddleware struct {
	limiter ports.RateLimiterService
	logger  *logrus.Logger
}

func NewRateLimitMiddleware(limiter ports.RateLimiterService, logger *logrus.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, logger: logger}
}

// PerCompany limits requests by the company resolved from the path. It must run
// after ResolveCompany; routes without a company pass through.
func (r *RateLimitMiddleware) PerCompany() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.limiter == nil {
				return next(c)
			}
			companyID, ok := helpers.GetCompanyIDRaw(c)
			if !ok {
				return next(c)
			}

			d, err := r.limiter.Allow(c.Request().Context(), companyID.String())
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			if err != nil && r.logger != nil {
				r.logger.WithField("company_id", companyID).WithError(err).Warn("rate limiter unavailable, allowing request")
			}
			if d.Allowed || err != nil {
				return next(c)
			}

			h.Set("Retry-After", strconv.Itoa(int(d.RetryAfter(time.Now()).Seconds())))
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
	}
}
