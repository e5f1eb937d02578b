package httpserver

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/httpserver/helpers"
)

func (s *Server) listPlatformCache(c echo.Context) error {
	companyID, err := helpers.GetCompanyIDFromContext(c)
	if err != nil {
		return err
	}
	platform, err := helpers.GetPlatformFromContext(c)
	if err != nil {
		return err
	}
	entries, err := s.cacheSvc.GetCompanyPlatformData(c.Request().Context(), companyID, platform)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if entries == nil {
		entries = []*socialcache.CacheEntry{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"entries": entries, "total": len(entries)})
}

// storePlatformCache is a manual write, e.g. for backfills or connector pushes.
func (s *Server) storePlatformCache(c echo.Context) error {
	companyID, err := helpers.GetCompanyIDFromContext(c)
	if err != nil {
		return err
	}
	platform, err := helpers.GetPlatformFromContext(c)
	if err != nil {
		return err
	}

	var req socialcache.StoreDataRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	data := req.Data
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		data = nil
	}
	status := req.FetchStatus
	if status == "" {
		status = socialcache.FetchStatusSuccess
	}
	if data == nil && status != socialcache.FetchStatusError {
		return echo.NewHTTPError(http.StatusBadRequest, "data may only be null for ERROR writes")
	}

	key := socialcache.CacheKey{CompanyID: companyID, Platform: platform, ProfileID: req.ProfileID}
	ctx := c.Request().Context()
	if err := s.cacheSvc.StoreData(ctx, key, data, status, req.ErrorMessage); err != nil {
		if errors.Is(err, socialcache.ErrInvalidFetchStatus) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	entry := s.cacheSvc.GetData(ctx, key)
	if entry == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) getCacheStats(c echo.Context) error {
	companyID, err := helpers.ParseUUIDParam(c, "company_id")
	if err != nil {
		return err
	}
	stats, err := s.cacheSvc.GetCacheStats(c.Request().Context(), companyID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) cleanupCache(c echo.Context) error {
	deleted, err := s.cacheSvc.CleanupExpired(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	ObserveCleanup(deleted)
	if s.logger != nil {
		s.logger.WithField("deleted", deleted).Info("manual cache cleanup completed")
	}
	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}
