package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/httpserver/helpers"
)

// CompanyMiddleware resolves the :company_id and :platform path params into request context.
type CompanyMiddleware struct {
	logger *logrus.Logger
}

func NewCompanyMiddleware(logger *logrus.Logger) *CompanyMiddleware {
	return &CompanyMiddleware{logger: logger}
}

func (m *CompanyMiddleware) ResolveCompany() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := uuid.Parse(c.Param("company_id"))
			if err != nil {
				if m.logger != nil {
					m.logger.WithField("company_id", c.Param("company_id")).Debug("rejecting malformed company id")
				}
				return echo.NewHTTPError(http.StatusBadRequest, "invalid company_id")
			}
			helpers.SetCompanyID(c, id)
			return next(c)
		}
	}
}

// ResolvePlatform normalizes :platform ("x" -> TWITTER) and rejects unsupported platforms.
func (m *CompanyMiddleware) ResolvePlatform() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := socialcache.NormalizePlatform(c.Param("platform"))
			if !p.Supported() {
				return echo.NewHTTPError(http.StatusBadRequest, socialcache.ErrUnsupportedPlatform.Error()+": "+c.Param("platform"))
			}
			helpers.SetPlatform(c, p)
			return next(c)
		}
	}
}
