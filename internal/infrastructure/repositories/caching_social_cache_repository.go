package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
)

// writeFence is how long a key stays unfillable after an Upsert. A Find that read
// the row before the write either loses SETNX to the marker or, if it took longer
// than the fence, skips the fill.
const writeFence = 5 * time.Second

// writtenMarker is not JSON, so it can never decode as a cached entry.
var writtenMarker = []byte("~written")

// Utility helpers
func cacheAddSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = c.SetIfAbsent(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok || bytes.Equal(b, writtenMarker) {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// CachingSocialCacheRepository decorates a SocialCacheRepository with a Redis
// read-through for point lookups. Listing and stats queries always hit the inner store.
type CachingSocialCacheRepository struct {
	inner ports.SocialCacheRepository
	cache ports.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewCachingSocialCacheRepository(inner ports.SocialCacheRepository, cache ports.Cache, ttl time.Duration) ports.SocialCacheRepository {
	return &CachingSocialCacheRepository{inner: inner, cache: cache, ttl: ttl, now: time.Now}
}

func entryCacheKey(key socialcache.CacheKey) string {
	return "entry:" + key.String()
}

func (c *CachingSocialCacheRepository) fence() time.Duration {
	if c.ttl < writeFence {
		return c.ttl
	}
	return writeFence
}

// Upsert writes through to the inner store and overwrites the cached copy with a
// short-lived marker. The final row may keep older data (ERROR writes without
// payload), so it is not re-cached here.
func (c *CachingSocialCacheRepository) Upsert(ctx context.Context, entry *socialcache.CacheEntry) error {
	if err := c.inner.Upsert(ctx, entry); err != nil {
		return err
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, entryCacheKey(entry.Key()), writtenMarker, c.fence()); err != nil {
			_ = c.cache.Delete(ctx, entryCacheKey(entry.Key()))
		}
	}
	return nil
}

func (c *CachingSocialCacheRepository) Find(ctx context.Context, key socialcache.CacheKey) (*socialcache.CacheEntry, error) {
	ck := entryCacheKey(key)
	if v, ok := cacheGet[socialcache.CacheEntry](c.cache, ctx, ck); ok {
		return v, nil
	}
	start := c.now()
	e, err := c.inner.Find(ctx, key)
	if err != nil || e == nil {
		return e, err
	}
	// a marker set during a slow read may already have expired
	if c.now().Sub(start) >= c.fence() {
		return e, nil
	}
	cacheAddSilently(c.cache, ctx, ck, e, c.ttlFor(e))
	return e, nil
}

// ttlFor never lets a cached copy outlive the row's own expiry.
func (c *CachingSocialCacheRepository) ttlFor(e *socialcache.CacheEntry) time.Duration {
	ttl := c.ttl
	if remaining := e.ExpiresAt.Sub(c.now()); remaining < ttl {
		ttl = remaining
	}
	return ttl
}

func (c *CachingSocialCacheRepository) FindAllByCompanyPlatform(ctx context.Context, companyID uuid.UUID, platform socialcache.Platform) ([]*socialcache.CacheEntry, error) {
	return c.inner.FindAllByCompanyPlatform(ctx, companyID, platform)
}

// DeleteExpired needs no invalidation: cached copies expire no later than their rows.
func (c *CachingSocialCacheRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return c.inner.DeleteExpired(ctx, before)
}

func (c *CachingSocialCacheRepository) FindAll(ctx context.Context, companyID *uuid.UUID) ([]*socialcache.CacheEntry, error) {
	return c.inner.FindAll(ctx, companyID)
}
