package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/google/uuid"
)

// SocialCacheRepository persists cache entries keyed by (company, platform, profile).
// Upsert must be atomic per key; concurrent writers resolve as last-writer-wins.
type SocialCacheRepository interface {
	Upsert(ctx context.Context, entry *socialcache.CacheEntry) error
	// Find returns nil, nil when no row exists. No freshness filtering is applied.
	Find(ctx context.Context, key socialcache.CacheKey) (*socialcache.CacheEntry, error)
	FindAllByCompanyPlatform(ctx context.Context, companyID uuid.UUID, platform socialcache.Platform) ([]*socialcache.CacheEntry, error)
	// DeleteExpired removes rows whose expires_at is before the given instant.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	// FindAll returns every row, optionally scoped to one company.
	FindAll(ctx context.Context, companyID *uuid.UUID) ([]*socialcache.CacheEntry, error)
}

// SocialCacheService is the freshness/expiry policy over SocialCacheRepository.
type SocialCacheService interface {
	StoreData(ctx context.Context, key socialcache.CacheKey, data json.RawMessage, status socialcache.FetchStatus, errorMessage string) error
	// GetData returns nil when the entry is absent, expired, or the store could not be read.
	GetData(ctx context.Context, key socialcache.CacheKey) *socialcache.CacheEntry
	HasFreshData(ctx context.Context, key socialcache.CacheKey) bool
	IsFresh(entry *socialcache.CacheEntry) bool
	GetCompanyPlatformData(ctx context.Context, companyID uuid.UUID, platform socialcache.Platform) ([]*socialcache.CacheEntry, error)
	CleanupExpired(ctx context.Context) (int64, error)
	GetCacheStats(ctx context.Context, companyID *uuid.UUID) (*socialcache.CacheStats, error)
}
