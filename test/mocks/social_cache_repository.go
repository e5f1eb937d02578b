package mocks

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/google/uuid"
)

// MemorySocialCacheRepository is an in-memory ports.SocialCacheRepository with the
// same upsert semantics as the Postgres implementation. Fail* hooks inject errors.
type MemorySocialCacheRepository struct {
	mu   sync.Mutex
	rows map[socialcache.CacheKey]*socialcache.CacheEntry

	FailFind    error
	FailUpsert  error
	FailFindAll error
	FailDelete  error
	UpsertCalls int
	FindCalls   int
}

func NewMemorySocialCacheRepository() *MemorySocialCacheRepository {
	return &MemorySocialCacheRepository{rows: make(map[socialcache.CacheKey]*socialcache.CacheEntry)}
}

func (r *MemorySocialCacheRepository) Upsert(ctx context.Context, entry *socialcache.CacheEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.UpsertCalls++
	if r.FailUpsert != nil {
		return r.FailUpsert
	}
	key := entry.Key()
	stored := *entry
	stored.Data = cloneRaw(entry.Data)
	if existing, ok := r.rows[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
		if entry.FetchStatus == socialcache.FetchStatusError && len(entry.Data) == 0 {
			stored.Data = cloneRaw(existing.Data)
		}
	} else {
		stored.ID = uuid.New()
		stored.CreatedAt = entry.LastFetchedAt
	}
	stored.UpdatedAt = entry.LastFetchedAt
	r.rows[key] = &stored
	return nil
}

func (r *MemorySocialCacheRepository) Find(ctx context.Context, key socialcache.CacheKey) (*socialcache.CacheEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindCalls++
	if r.FailFind != nil {
		return nil, r.FailFind
	}
	e, ok := r.rows[key]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *MemorySocialCacheRepository) FindAllByCompanyPlatform(ctx context.Context, companyID uuid.UUID, platform socialcache.Platform) ([]*socialcache.CacheEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailFindAll != nil {
		return nil, r.FailFindAll
	}
	var out []*socialcache.CacheEntry
	for _, e := range r.sorted() {
		if e.CompanyID == companyID && e.Platform == platform {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemorySocialCacheRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailDelete != nil {
		return 0, r.FailDelete
	}
	var n int64
	for k, e := range r.rows {
		if e.ExpiresAt.Before(before) {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

func (r *MemorySocialCacheRepository) FindAll(ctx context.Context, companyID *uuid.UUID) ([]*socialcache.CacheEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailFindAll != nil {
		return nil, r.FailFindAll
	}
	var out []*socialcache.CacheEntry
	for _, e := range r.sorted() {
		if companyID != nil && e.CompanyID != *companyID {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// Put stores an entry verbatim, bypassing upsert bookkeeping. Used to seed aged rows.
func (r *MemorySocialCacheRepository) Put(entry *socialcache.CacheEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	r.rows[cp.Key()] = &cp
}

// Len returns the number of stored rows.
func (r *MemorySocialCacheRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *MemorySocialCacheRepository) sorted() []*socialcache.CacheEntry {
	out := make([]*socialcache.CacheEntry, 0, len(r.rows))
	for _, e := range r.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastFetchedAt.After(out[j].LastFetchedAt) })
	return out
}

func cloneRaw(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	return append(json.RawMessage(nil), b...)
}
