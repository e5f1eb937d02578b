package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/fetchlog"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
)

// PlatformStatsService serves platform stats from a fresh cache entry, a new
// upstream fetch, or the last known entry when the fetch fails.
type PlatformStatsService struct {
	cache        ports.SocialCacheService
	fetchers     ports.FetcherRegistry
	limiter      ports.RateLimiterService
	fetchLogs    ports.FetchLogService
	logger       *logrus.Logger
	fetchTimeout time.Duration

	// in-flight upstream fetches, keyed by cache key; process-local only
	inflight singleflight.Group
}

// PlatformStatsDeps groups the collaborators of PlatformStatsService. Limiter and
// FetchLogs are optional.
type PlatformStatsDeps struct {
	Cache     ports.SocialCacheService
	Fetchers  ports.FetcherRegistry
	Limiter   ports.RateLimiterService
	FetchLogs ports.FetchLogService

	// FetchTimeout bounds one shared upstream fetch; defaults to 30s
	FetchTimeout time.Duration
}

const defaultFetchTimeout = 30 * time.Second

func NewPlatformStatsService(deps PlatformStatsDeps, logger *logrus.Logger) *PlatformStatsService {
	timeout := deps.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &PlatformStatsService{
		cache:        deps.Cache,
		fetchers:     deps.Fetchers,
		limiter:      deps.Limiter,
		fetchLogs:    deps.FetchLogs,
		logger:       logger,
		fetchTimeout: timeout,
	}
}

func (s *PlatformStatsService) GetStats(ctx context.Context, key socialcache.CacheKey) (*ports.StatsResult, error) {
	return s.serve(ctx, key.Normalized(), true)
}

func (s *PlatformStatsService) RefreshStats(ctx context.Context, key socialcache.CacheKey) (*ports.StatsResult, error) {
	return s.serve(ctx, key.Normalized(), false)
}

func (s *PlatformStatsService) serve(ctx context.Context, key socialcache.CacheKey, allowFresh bool) (*ports.StatsResult, error) {
	start := time.Now()

	if allowFresh {
		// a fresh row without payload (ERROR write on a new key) still needs a fetch
		if entry := s.cache.GetData(ctx, key); entry != nil && entry.HasData() && s.cache.IsFresh(entry) {
			s.record(ctx, key, fetchlog.OutcomeFreshCache, nil, start)
			return &ports.StatsResult{Key: key, Source: socialcache.SourceFreshCache, Data: entry.Data, Entry: entry}, nil
		}
	}

	fetcher, ok := s.fetchers.Fetcher(key.Platform)
	if !ok {
		return nil, fmt.Errorf("%w: %s", socialcache.ErrUnsupportedPlatform, key.Platform)
	}

	data, upErr := s.fetchUpstream(ctx, key, fetcher)
	if upErr == nil {
		s.record(ctx, key, fetchlog.OutcomeUpstream, nil, start)
		return &ports.StatsResult{Key: key, Source: socialcache.SourceUpstream, Data: data}, nil
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"company_id": key.CompanyID, "platform": key.Platform, "profile_id": key.ProfileID}).WithError(upErr).Warn("upstream fetch failed; trying cached data")
	}
	if entry := s.cache.GetData(ctx, key); entry != nil && entry.HasData() {
		s.record(ctx, key, fetchlog.OutcomeStaleCache, upErr, start)
		return &ports.StatsResult{Key: key, Source: socialcache.SourceStaleCache, Data: entry.Data, Entry: entry, UpstreamErr: upErr}, nil
	}

	s.record(ctx, key, fetchlog.OutcomeFailed, upErr, start)
	return nil, upErr
}

// fetchUpstream performs one upstream call per key at a time within this process
// and writes a successful result through to the cache. Cache write failures are
// logged and never hide the fetched payload. The shared call runs detached from
// any single caller; each caller stops waiting when its own ctx ends.
func (s *PlatformStatsService) fetchUpstream(ctx context.Context, key socialcache.CacheKey, fetcher ports.DataFetcher) (json.RawMessage, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key.String(), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(shared, s.fetchTimeout)
		defer cancel()
		if s.limiter != nil {
			if d, err := s.limiter.Allow(fetchCtx, string(key.Platform)); err == nil && !d.Allowed {
				return nil, fmt.Errorf("%w: %s", socialcache.ErrUpstreamThrottled, key.Platform)
			}
		}
		data, err := fetcher.Fetch(fetchCtx, key.CompanyID, key.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s stats: %w", key.Platform, err)
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("failed to fetch %s stats: upstream returned invalid JSON", key.Platform)
		}
		if err := s.cache.StoreData(fetchCtx, key, data, socialcache.FetchStatusSuccess, ""); err != nil && s.logger != nil {
			s.logger.WithFields(logrus.Fields{"company_id": key.CompanyID, "platform": key.Platform, "profile_id": key.ProfileID}).WithError(err).Error("failed to cache fetched stats")
		}
		return data, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to fetch %s stats: %w", key.Platform, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"key": key.String()}).Debug("joined in-flight upstream fetch")
	}
	data, ok := res.Val.(json.RawMessage)
	if !ok {
		return nil, errors.New("unexpected type from singleflight result")
	}
	return data, nil
}

func (s *PlatformStatsService) record(ctx context.Context, key socialcache.CacheKey, outcome fetchlog.Outcome, cause error, start time.Time) {
	if s.fetchLogs == nil {
		return
	}
	req := &fetchlog.CreateFetchLogRequest{
		CompanyID: key.CompanyID,
		Platform:  string(key.Platform),
		ProfileID: key.ProfileID,
		Outcome:   outcome,
		Duration:  time.Since(start),
	}
	if cause != nil {
		req.ErrorMessage = cause.Error()
	}
	if err := s.fetchLogs.LogFetch(ctx, req); err != nil && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"company_id": key.CompanyID, "platform": key.Platform, "outcome": outcome}).WithError(err).Warn("failed to record fetch log")
	}
}
