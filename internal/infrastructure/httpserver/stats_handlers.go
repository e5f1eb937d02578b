package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/httpserver/helpers"
)

const headerXCache = "X-Cache"

var cacheHeaderBySource = map[socialcache.Source]string{
	socialcache.SourceFreshCache: "HIT",
	socialcache.SourceUpstream:   "MISS",
	socialcache.SourceStaleCache: "STALE",
}

// getPlatformStats serves fresh cache, then upstream, then last-known data.
// Only the stale fallback is annotated; the other two are returned as stored.
func (s *Server) getPlatformStats(c echo.Context) error {
	key, err := helpers.CacheKeyFromContext(c)
	if err != nil {
		return err
	}
	refresh := false
	if raw := c.QueryParam("refresh"); raw != "" {
		if refresh, err = strconv.ParseBool(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid refresh")
		}
	}

	ctx := c.Request().Context()
	var res *ports.StatsResult
	if refresh {
		res, err = s.statsSvc.RefreshStats(ctx, key)
	} else {
		res, err = s.statsSvc.GetStats(ctx, key)
	}
	if err != nil {
		cacheResponsesTotal.WithLabelValues(string(key.Platform), "error").Inc()
		if errors.Is(err, socialcache.ErrUnsupportedPlatform) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("failed to fetch %s stats: %v", key.Platform, err))
	}

	cacheResponsesTotal.WithLabelValues(string(key.Platform), string(res.Source)).Inc()
	c.Response().Header().Set(headerXCache, cacheHeaderBySource[res.Source])

	if res.Source != socialcache.SourceStaleCache {
		return c.JSONBlob(http.StatusOK, res.Data)
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"company_id": key.CompanyID, "platform": key.Platform, "profile_id": key.ProfileID}).WithError(res.UpstreamErr).Warn("serving stale cache after upstream failure")
	}
	body, err := socialcache.Annotate(res.Entry, socialcache.MessageStaleOnError)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSONBlob(http.StatusOK, body)
}

// getCachedStats reads the cache only; it never calls the upstream API.
func (s *Server) getCachedStats(c echo.Context) error {
	key, err := helpers.CacheKeyFromContext(c)
	if err != nil {
		return err
	}
	entry := s.cacheSvc.GetData(c.Request().Context(), key)
	if entry == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no cached data")
	}

	header := "STALE"
	if s.cacheSvc.IsFresh(entry) {
		header = "HIT"
	}
	c.Response().Header().Set(headerXCache, header)

	body, err := socialcache.Annotate(entry, socialcache.MessageCached)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSONBlob(http.StatusOK, body)
}
