package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/db"
)

const cacheColumns = `id, company_id, platform, profile_id, data, fetch_status, error_message, last_fetched_at, expires_at, created_at, updated_at`

// socialCacheRow mirrors social_media_cache; nullable columns are scanned here
// and converted to the domain entry.
type socialCacheRow struct {
	ID            uuid.UUID      `db:"id"`
	CompanyID     uuid.UUID      `db:"company_id"`
	Platform      string         `db:"platform"`
	ProfileID     string         `db:"profile_id"`
	Data          []byte         `db:"data"`
	FetchStatus   string         `db:"fetch_status"`
	ErrorMessage  sql.NullString `db:"error_message"`
	LastFetchedAt time.Time      `db:"last_fetched_at"`
	ExpiresAt     time.Time      `db:"expires_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *socialCacheRow) toEntry() *socialcache.CacheEntry {
	e := &socialcache.CacheEntry{
		ID:            r.ID,
		CompanyID:     r.CompanyID,
		Platform:      socialcache.Platform(r.Platform),
		ProfileID:     r.ProfileID,
		FetchStatus:   socialcache.FetchStatus(r.FetchStatus),
		LastFetchedAt: r.LastFetchedAt,
		ExpiresAt:     r.ExpiresAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.Data != nil {
		e.Data = append([]byte(nil), r.Data...)
	}
	if r.ErrorMessage.Valid {
		e.ErrorMessage = r.ErrorMessage.String
	}
	return e
}

type socialCacheRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewSocialCacheRepository creates the Postgres-backed cache store
func NewSocialCacheRepository(database *db.Database, logger *logrus.Logger) ports.SocialCacheRepository {
	return &socialCacheRepository{db: database, logger: logger}
}

// Upsert inserts or overwrites the row for the entry's key. An ERROR write with no
// payload keeps the stored data.
func (r *socialCacheRepository) Upsert(ctx context.Context, entry *socialcache.CacheEntry) error {
	// only used on insert; an existing row keeps its id
	id := entry.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	// jsonb is bound as text; nil binds SQL NULL
	var data any
	if len(entry.Data) > 0 {
		data = string(entry.Data)
	}
	var errMsg sql.NullString
	if entry.ErrorMessage != "" {
		errMsg = sql.NullString{String: entry.ErrorMessage, Valid: true}
	}

	query := `
		INSERT INTO social_media_cache (
			id, company_id, platform, profile_id, data, fetch_status, error_message, last_fetched_at, expires_at
		) VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9)
		ON CONFLICT (company_id, platform, profile_id) DO UPDATE SET
			data = CASE
				WHEN EXCLUDED.fetch_status = 'ERROR' AND EXCLUDED.data IS NULL THEN social_media_cache.data
				ELSE EXCLUDED.data
			END,
			fetch_status = EXCLUDED.fetch_status,
			error_message = EXCLUDED.error_message,
			last_fetched_at = EXCLUDED.last_fetched_at,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()`

	_, err := r.db.DB.ExecContext(ctx, query,
		id,
		entry.CompanyID,
		string(entry.Platform),
		entry.ProfileID,
		data,
		string(entry.FetchStatus),
		errMsg,
		entry.LastFetchedAt,
		entry.ExpiresAt,
	)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"company_id": entry.CompanyID, "platform": entry.Platform, "profile_id": entry.ProfileID}).WithError(err).Error("db: failed to upsert social media cache")
		}
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// Find returns the row for key or nil when none exists
func (r *socialCacheRepository) Find(ctx context.Context, key socialcache.CacheKey) (*socialcache.CacheEntry, error) {
	var row socialCacheRow
	query := `SELECT ` + cacheColumns + ` FROM social_media_cache
		WHERE company_id = $1 AND platform = $2 AND profile_id = $3`

	err := r.db.DB.GetContext(ctx, &row, query, key.CompanyID, string(key.Platform), key.ProfileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return row.toEntry(), nil
}

func (r *socialCacheRepository) FindAllByCompanyPlatform(ctx context.Context, companyID uuid.UUID, platform socialcache.Platform) ([]*socialcache.CacheEntry, error) {
	var rows []socialCacheRow
	query := `SELECT ` + cacheColumns + ` FROM social_media_cache
		WHERE company_id = $1 AND platform = $2
		ORDER BY last_fetched_at DESC`

	if err := r.db.DB.SelectContext(ctx, &rows, query, companyID, string(platform)); err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	return toEntries(rows), nil
}

// DeleteExpired removes rows that expired before the given time
func (r *socialCacheRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.DB.ExecContext(ctx, `DELETE FROM social_media_cache WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"deleted": rowsAffected, "before": before}).Debug("db: expired cache entries deleted")
	}
	return rowsAffected, nil
}

func (r *socialCacheRepository) FindAll(ctx context.Context, companyID *uuid.UUID) ([]*socialcache.CacheEntry, error) {
	var rows []socialCacheRow
	query := `SELECT ` + cacheColumns + ` FROM social_media_cache`
	var args []interface{}
	if companyID != nil {
		query += ` WHERE company_id = $1`
		args = append(args, *companyID)
	}
	query += ` ORDER BY company_id, platform, profile_id`

	if err := r.db.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	return toEntries(rows), nil
}

func toEntries(rows []socialCacheRow) []*socialcache.CacheEntry {
	entries := make([]*socialcache.CacheEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toEntry())
	}
	return entries
}
