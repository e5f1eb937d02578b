package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/avatarctic/social-analytics-cache/go/internal/application/services"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/httpserver"
	tmocks "github.com/avatarctic/social-analytics-cache/go/test/mocks"
)

// StatsFlowSuite drives the full request path (handlers, services, in-memory
// store) through a cache entry's lifecycle.
type StatsFlowSuite struct {
	suite.Suite
	mu       sync.Mutex
	now      time.Time
	upstream func() (json.RawMessage, error)
	repo     *tmocks.MemorySocialCacheRepository
	server   *httpserver.Server
	company  uuid.UUID
}

func (s *StatsFlowSuite) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *StatsFlowSuite) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *StatsFlowSuite) SetupTest() {
	s.now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	s.company = uuid.New()
	s.repo = tmocks.NewMemorySocialCacheRepository()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cache, err := services.NewSocialCacheService(s.repo, &services.SocialCacheConfig{Now: s.clock}, logger)
	s.Require().NoError(err)
	fetcher := &tmocks.DataFetcherMock{FetchFn: func(ctx context.Context, companyID uuid.UUID, profileID string) (json.RawMessage, error) {
		return s.upstream()
	}}
	fetchLogs := services.NewFetchLogService(&tmocks.MemoryFetchLogRepository{}, logger)
	stats := services.NewPlatformStatsService(services.PlatformStatsDeps{
		Cache:     cache,
		Fetchers:  tmocks.FetcherRegistryMock{socialcache.PlatformFacebook: fetcher},
		FetchLogs: fetchLogs,
	}, logger)

	s.server = httpserver.NewServer(&httpserver.ServerConfig{}, logger, httpserver.ServerDeps{
		SocialCacheService:   cache,
		PlatformStatsService: stats,
		FetchLogService:      fetchLogs,
	})
}

func (s *StatsFlowSuite) get(path string) (int, string, map[string]interface{}) {
	rec := doRequest(s.server, http.MethodGet, path, "")
	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec.Code, rec.Header().Get("X-Cache"), body
}

func (s *StatsFlowSuite) TestLifecycle() {
	path := statsPath(s.company, "facebook") + "?profile_id=page"

	s.upstream = func() (json.RawMessage, error) { return json.RawMessage(`{"likes":10}`), nil }
	code, xcache, body := s.get(path)
	s.Equal(http.StatusOK, code)
	s.Equal("MISS", xcache)
	s.Equal(float64(10), body["likes"])
	s.NotContains(body, "_cached")

	s.upstream = func() (json.RawMessage, error) { return json.RawMessage(`{"likes":11}`), nil }
	s.advance(time.Minute)
	code, xcache, body = s.get(path)
	s.Equal(http.StatusOK, code)
	s.Equal("HIT", xcache)
	s.Equal(float64(10), body["likes"], "fresh entry served without an upstream call")

	s.upstream = func() (json.RawMessage, error) { return nil, errors.New("graph api down") }
	s.advance(10 * time.Minute)
	code, xcache, body = s.get(path)
	s.Equal(http.StatusOK, code)
	s.Equal("STALE", xcache)
	s.Equal(float64(10), body["likes"])
	s.Equal(true, body["_cached"])
	s.Equal("Using cached data due to API error", body["_message"])
	s.Equal("2024-06-01T08:00:00.000Z", body["_lastFetchedAt"])

	stored, err := s.repo.Find(context.Background(), socialcache.NewCacheKey(s.company, "FACEBOOK", "page"))
	s.Require().NoError(err)
	s.JSONEq(`{"likes":10}`, string(stored.Data), "annotation never reaches the store")

	s.advance(30 * time.Minute)
	code, _, _ = s.get(path)
	s.Equal(http.StatusBadGateway, code, "expired entries are not a fallback")

	rec := doRequest(s.server, http.MethodPost, "/api/v1/cache/cleanup", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"deleted":1}`, rec.Body.String())
	rec = doRequest(s.server, http.MethodPost, "/api/v1/cache/cleanup", "")
	s.JSONEq(`{"deleted":0}`, rec.Body.String())

	code, _, body = s.get("/api/v1/fetch-logs?company_id=" + s.company.String())
	s.Equal(http.StatusOK, code)
	s.Equal(float64(4), body["total"])
	logs := body["logs"].([]interface{})
	s.Equal("failed", logs[0].(map[string]interface{})["outcome"])
	s.Equal("upstream", logs[3].(map[string]interface{})["outcome"])
}

func (s *StatsFlowSuite) TestManualWriteThenCachedStats() {
	base := "/api/v1/companies/" + s.company.String() + "/platforms/facebook"

	rec := doRequest(s.server, http.MethodPut, base+"/cache", `{"data":{"reach":3}}`)
	s.Equal(http.StatusOK, rec.Code)

	rec = doRequest(s.server, http.MethodPut, base+"/cache", `{"data":null,"fetch_status":"ERROR","error_message":"token expired"}`)
	s.Equal(http.StatusOK, rec.Code)

	code, xcache, body := s.get(base + "/cached-stats")
	s.Equal(http.StatusOK, code)
	s.Equal("HIT", xcache)
	s.Equal(float64(3), body["reach"], "ERROR write without data keeps the last payload")
	s.Equal("ERROR", body["_fetchStatus"])

	code, _, body = s.get("/api/v1/cache/stats?company_id=" + s.company.String())
	s.Equal(http.StatusOK, code)
	s.Equal(float64(1), body["total"])
	s.Equal(float64(1), body["valid"])
}

func (s *StatsFlowSuite) TestErrorWriteWithoutDataDoesNotShadowUpstream() {
	base := "/api/v1/companies/" + s.company.String() + "/platforms/facebook"
	rec := doRequest(s.server, http.MethodPut, base+"/cache", `{"data":null,"fetch_status":"ERROR","error_message":"connector down"}`)
	s.Equal(http.StatusOK, rec.Code)

	calls := 0
	s.upstream = func() (json.RawMessage, error) {
		calls++
		return json.RawMessage(`{"likes":4}`), nil
	}
	code, xcache, body := s.get(base + "/stats")
	s.Equal(http.StatusOK, code)
	s.Equal("MISS", xcache)
	s.Equal(float64(4), body["likes"])
	s.Equal(1, calls)
}

func TestStatsFlowSuite(t *testing.T) {
	suite.Run(t, new(StatsFlowSuite))
}
