package helpers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
)

func GetCompanyIDFromContext(c echo.Context) (uuid.UUID, error) {
	id, ok := GetCompanyIDRaw(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid company context")
	}
	return id, nil
}

func GetPlatformFromContext(c echo.Context) (socialcache.Platform, error) {
	p, ok := GetPlatformRaw(c)
	if !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid platform context")
	}
	return p, nil
}

// CacheKeyFromContext combines the resolved company and platform with the profile_id query param.
func CacheKeyFromContext(c echo.Context) (socialcache.CacheKey, error) {
	companyID, err := GetCompanyIDFromContext(c)
	if err != nil {
		return socialcache.CacheKey{}, err
	}
	platform, err := GetPlatformFromContext(c)
	if err != nil {
		return socialcache.CacheKey{}, err
	}
	return socialcache.CacheKey{CompanyID: companyID, Platform: platform, ProfileID: strings.TrimSpace(c.QueryParam("profile_id"))}, nil
}

// ParseUUIDParam reads an optional UUID query parameter.
func ParseUUIDParam(c echo.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// ParseTimeParam reads an optional RFC 3339 query parameter.
func ParseTimeParam(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &t, nil
}

// ParseIntParam reads an optional non-negative integer query parameter.
func ParseIntParam(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}
