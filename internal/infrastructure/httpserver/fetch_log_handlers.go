package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/fetchlog"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/httpserver/helpers"
)

func (s *Server) getFetchLogs(c echo.Context) error {
	var filter fetchlog.FetchLogFilter
	var err error

	if filter.CompanyID, err = helpers.ParseUUIDParam(c, "company_id"); err != nil {
		return err
	}
	if raw := strings.TrimSpace(c.QueryParam("platform")); raw != "" {
		p := string(socialcache.NormalizePlatform(raw))
		filter.Platform = &p
	}
	if raw := strings.TrimSpace(c.QueryParam("outcome")); raw != "" {
		o := fetchlog.Outcome(strings.ToLower(raw))
		if !o.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid outcome")
		}
		filter.Outcome = &o
	}
	if filter.StartTime, err = helpers.ParseTimeParam(c, "start_time"); err != nil {
		return err
	}
	if filter.EndTime, err = helpers.ParseTimeParam(c, "end_time"); err != nil {
		return err
	}
	if filter.Limit, err = helpers.ParseIntParam(c, "limit", 0); err != nil {
		return err
	}
	if filter.Offset, err = helpers.ParseIntParam(c, "offset", 0); err != nil {
		return err
	}

	logs, total, err := s.fetchLogSvc.GetFetchLogs(c.Request().Context(), &filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"logs": logs, "total": total, "limit": filter.Limit, "offset": filter.Offset})
}
