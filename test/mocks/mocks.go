package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/fetchlog"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
	"github.com/google/uuid"
)

// SocialCacheServiceMock is a lightweight mock implementing ports.SocialCacheService
type SocialCacheServiceMock struct {
	StoreDataFn              func(ctx context.Context, key socialcache.CacheKey, data json.RawMessage, status socialcache.FetchStatus, errorMessage string) error
	GetDataFn                func(ctx context.Context, key socialcache.CacheKey) *socialcache.CacheEntry
	HasFreshDataFn           func(ctx context.Context, key socialcache.CacheKey) bool
	IsFreshFn                func(entry *socialcache.CacheEntry) bool
	GetCompanyPlatformDataFn func(ctx context.Context, companyID uuid.UUID, platform socialcache.Platform) ([]*socialcache.CacheEntry, error)
	CleanupExpiredFn         func(ctx context.Context) (int64, error)
	GetCacheStatsFn          func(ctx context.Context, companyID *uuid.UUID) (*socialcache.CacheStats, error)
}

func (m *SocialCacheServiceMock) StoreData(ctx context.Context, key socialcache.CacheKey, data json.RawMessage, status socialcache.FetchStatus, errorMessage string) error {
	if m.StoreDataFn != nil {
		return m.StoreDataFn(ctx, key, data, status, errorMessage)
	}
	return nil
}
func (m *SocialCacheServiceMock) GetData(ctx context.Context, key socialcache.CacheKey) *socialcache.CacheEntry {
	if m.GetDataFn != nil {
		return m.GetDataFn(ctx, key)
	}
	return nil
}
func (m *SocialCacheServiceMock) HasFreshData(ctx context.Context, key socialcache.CacheKey) bool {
	if m.HasFreshDataFn != nil {
		return m.HasFreshDataFn(ctx, key)
	}
	return false
}
func (m *SocialCacheServiceMock) IsFresh(entry *socialcache.CacheEntry) bool {
	if m.IsFreshFn != nil {
		return m.IsFreshFn(entry)
	}
	return false
}
func (m *SocialCacheServiceMock) GetCompanyPlatformData(ctx context.Context, companyID uuid.UUID, platform socialcache.Platform) ([]*socialcache.CacheEntry, error) {
	if m.GetCompanyPlatformDataFn != nil {
		return m.GetCompanyPlatformDataFn(ctx, companyID, platform)
	}
	return nil, nil
}
func (m *SocialCacheServiceMock) CleanupExpired(ctx context.Context) (int64, error) {
	if m.CleanupExpiredFn != nil {
		return m.CleanupExpiredFn(ctx)
	}
	return 0, nil
}
func (m *SocialCacheServiceMock) GetCacheStats(ctx context.Context, companyID *uuid.UUID) (*socialcache.CacheStats, error) {
	if m.GetCacheStatsFn != nil {
		return m.GetCacheStatsFn(ctx, companyID)
	}
	return &socialcache.CacheStats{ByPlatform: map[socialcache.Platform]int{}}, nil
}

// PlatformStatsServiceMock implements ports.PlatformStatsService
type PlatformStatsServiceMock struct {
	GetStatsFn     func(ctx context.Context, key socialcache.CacheKey) (*ports.StatsResult, error)
	RefreshStatsFn func(ctx context.Context, key socialcache.CacheKey) (*ports.StatsResult, error)
}

func (m *PlatformStatsServiceMock) GetStats(ctx context.Context, key socialcache.CacheKey) (*ports.StatsResult, error) {
	if m.GetStatsFn != nil {
		return m.GetStatsFn(ctx, key)
	}
	return nil, fmt.Errorf("not implemented")
}
func (m *PlatformStatsServiceMock) RefreshStats(ctx context.Context, key socialcache.CacheKey) (*ports.StatsResult, error) {
	if m.RefreshStatsFn != nil {
		return m.RefreshStatsFn(ctx, key)
	}
	return nil, fmt.Errorf("not implemented")
}

// DataFetcherMock implements ports.DataFetcher
type DataFetcherMock struct {
	FetchFn func(ctx context.Context, companyID uuid.UUID, profileID string) (json.RawMessage, error)
}

func (m *DataFetcherMock) Fetch(ctx context.Context, companyID uuid.UUID, profileID string) (json.RawMessage, error) {
	if m.FetchFn != nil {
		return m.FetchFn(ctx, companyID, profileID)
	}
	return nil, fmt.Errorf("upstream unavailable")
}

// FetcherRegistryMock maps platforms to fetchers
type FetcherRegistryMock map[socialcache.Platform]ports.DataFetcher

func (m FetcherRegistryMock) Fetcher(platform socialcache.Platform) (ports.DataFetcher, bool) {
	f, ok := m[platform]
	return f, ok
}

// RateLimiterMock implements ports.RateLimiterService
type RateLimiterMock struct {
	AllowFn func(ctx context.Context, subject string) (ports.RateLimitDecision, error)
}

func (m *RateLimiterMock) Allow(ctx context.Context, subject string) (ports.RateLimitDecision, error) {
	if m.AllowFn != nil {
		return m.AllowFn(ctx, subject)
	}
	return ports.RateLimitDecision{Allowed: true, Limit: 1, Remaining: 1, ResetAt: time.Now().Add(time.Minute)}, nil
}

// FetchLogServiceMock implements ports.FetchLogService
type FetchLogServiceMock struct {
	LogFetchFn     func(ctx context.Context, req *fetchlog.CreateFetchLogRequest) error
	GetFetchLogsFn func(ctx context.Context, filter *fetchlog.FetchLogFilter) ([]*fetchlog.FetchLog, int, error)
}

func (m *FetchLogServiceMock) LogFetch(ctx context.Context, req *fetchlog.CreateFetchLogRequest) error {
	if m.LogFetchFn != nil {
		return m.LogFetchFn(ctx, req)
	}
	return nil
}
func (m *FetchLogServiceMock) GetFetchLogs(ctx context.Context, filter *fetchlog.FetchLogFilter) ([]*fetchlog.FetchLog, int, error) {
	if m.GetFetchLogsFn != nil {
		return m.GetFetchLogsFn(ctx, filter)
	}
	return nil, 0, nil
}

// HealthCheckerMock implements ports.HealthChecker
type HealthCheckerMock struct {
	NameValue string
	Err       error
}

func (m *HealthCheckerMock) Name() string                    { return m.NameValue }
func (m *HealthCheckerMock) Check(ctx context.Context) error { return m.Err }
