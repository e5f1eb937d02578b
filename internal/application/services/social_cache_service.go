package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
)

const (
	DefaultCacheTTL        = 30 * time.Minute
	DefaultFreshnessWindow = 5 * time.Minute
)

// SocialCacheConfig groups the cache policy windows.
type SocialCacheConfig struct {
	TTL             time.Duration
	FreshnessWindow time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// SocialCacheService holds no state of its own beyond the two windows; every
// mutable bit lives in the repository.
type SocialCacheService struct {
	repo            ports.SocialCacheRepository
	ttl             time.Duration
	freshnessWindow time.Duration
	now             func() time.Time
	logger          *logrus.Logger
}

func NewSocialCacheService(repo ports.SocialCacheRepository, cfg *SocialCacheConfig, logger *logrus.Logger) (*SocialCacheService, error) {
	ttl := DefaultCacheTTL
	fw := DefaultFreshnessWindow
	now := time.Now
	if cfg != nil {
		if cfg.TTL > 0 {
			ttl = cfg.TTL
		}
		if cfg.FreshnessWindow > 0 {
			fw = cfg.FreshnessWindow
		}
		if cfg.Now != nil {
			now = cfg.Now
		}
	}
	if ttl <= fw {
		return nil, fmt.Errorf("cache TTL %s must be greater than freshness window %s", ttl, fw)
	}
	return &SocialCacheService{repo: repo, ttl: ttl, freshnessWindow: fw, now: now, logger: logger}, nil
}

func (s *SocialCacheService) TTL() time.Duration             { return s.ttl }
func (s *SocialCacheService) FreshnessWindow() time.Duration { return s.freshnessWindow }

// StoreData upserts the payload for key. The payload replaces the stored one for
// every status except an ERROR write carrying no payload, which keeps the last
// known data (the repository enforces that part).
func (s *SocialCacheService) StoreData(ctx context.Context, key socialcache.CacheKey, data json.RawMessage, status socialcache.FetchStatus, errorMessage string) error {
	key = key.Normalized()
	if status == "" {
		status = socialcache.FetchStatusSuccess
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", socialcache.ErrInvalidFetchStatus, status)
	}
	if status != socialcache.FetchStatusError {
		errorMessage = ""
	}

	now := s.now()
	entry := &socialcache.CacheEntry{
		CompanyID:     key.CompanyID,
		Platform:      key.Platform,
		ProfileID:     key.ProfileID,
		Data:          data,
		FetchStatus:   status,
		ErrorMessage:  errorMessage,
		LastFetchedAt: now,
		ExpiresAt:     now.Add(s.ttl),
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"company_id": key.CompanyID, "platform": key.Platform, "profile_id": key.ProfileID}).WithError(err).Error("failed to store social media cache entry")
		}
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"company_id": key.CompanyID, "platform": key.Platform, "profile_id": key.ProfileID, "status": status}).Debug("social media cache entry stored")
	}
	return nil
}

// GetData returns the entry for key, or nil when it is missing, expired or unreadable.
func (s *SocialCacheService) GetData(ctx context.Context, key socialcache.CacheKey) *socialcache.CacheEntry {
	key = key.Normalized()
	entry, err := s.repo.Find(ctx, key)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"company_id": key.CompanyID, "platform": key.Platform, "profile_id": key.ProfileID}).WithError(err).Warn("cache read failed; treating as miss")
		}
		return nil
	}
	if entry == nil {
		return nil
	}
	if entry.IsExpired(s.now()) {
		return nil
	}
	return entry
}

func (s *SocialCacheService) HasFreshData(ctx context.Context, key socialcache.CacheKey) bool {
	return s.IsFresh(s.GetData(ctx, key))
}

// IsFresh applies the freshness window to an entry already obtained from GetData.
func (s *SocialCacheService) IsFresh(entry *socialcache.CacheEntry) bool {
	if entry == nil {
		return false
	}
	return entry.IsFresh(s.now(), s.freshnessWindow)
}

func (s *SocialCacheService) GetCompanyPlatformData(ctx context.Context, companyID uuid.UUID, platform socialcache.Platform) ([]*socialcache.CacheEntry, error) {
	platform = socialcache.NormalizePlatform(string(platform))
	entries, err := s.repo.FindAllByCompanyPlatform(ctx, companyID, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	now := s.now()
	valid := make([]*socialcache.CacheEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsExpired(now) {
			valid = append(valid, e)
		}
	}
	return valid, nil
}

func (s *SocialCacheService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to delete expired cache entries")
		}
		return 0, fmt.Errorf("failed to cleanup expired cache entries: %w", err)
	}
	if s.logger != nil {
		s.logger.WithField("deleted", deleted).Info("expired cache entries removed")
	}
	return deleted, nil
}

func (s *SocialCacheService) GetCacheStats(ctx context.Context, companyID *uuid.UUID) (*socialcache.CacheStats, error) {
	entries, err := s.repo.FindAll(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache entries: %w", err)
	}
	now := s.now()
	stats := &socialcache.CacheStats{ByPlatform: make(map[socialcache.Platform]int)}
	for _, e := range entries {
		stats.Total++
		if e.IsExpired(now) {
			stats.Expired++
		} else {
			stats.Valid++
		}
		stats.ByPlatform[e.Platform]++
	}
	return stats, nil
}
