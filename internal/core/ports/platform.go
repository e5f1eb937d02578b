package ports

import (
	"context"
	"encoding/json"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/google/uuid"
)

// DataFetcher calls a third-party platform API and returns a JSON payload.
type DataFetcher interface {
	Fetch(ctx context.Context, companyID uuid.UUID, profileID string) (json.RawMessage, error)
}

// FetcherRegistry resolves the fetcher for a normalized platform.
type FetcherRegistry interface {
	Fetcher(platform socialcache.Platform) (DataFetcher, bool)
}

// TokenSource supplies platform access tokens. Acquisition and refresh happen elsewhere.
type TokenSource interface {
	AccessToken(ctx context.Context, companyID uuid.UUID, platform socialcache.Platform) (string, error)
}

// StatsResult is the outcome of a fetch-and-fallback request.
type StatsResult struct {
	Key    socialcache.CacheKey
	Source socialcache.Source
	// Data is the payload exactly as stored or fetched.
	Data json.RawMessage
	// Entry is set when the payload came from the cache.
	Entry *socialcache.CacheEntry
	// UpstreamErr is set when a stale entry was served because the fetch failed.
	UpstreamErr error
}

// PlatformStatsService implements the fresh-cache / upstream / stale-on-error protocol.
type PlatformStatsService interface {
	GetStats(ctx context.Context, key socialcache.CacheKey) (*StatsResult, error)
	// RefreshStats skips the freshness short-circuit but still falls back on failure.
	RefreshStats(ctx context.Context, key socialcache.CacheKey) (*StatsResult, error)
}
