package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/db"
)

func newMockDB(t *testing.T) (*db.Database, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return db.NewFromSQLX(sqlx.NewDb(mockDB, "postgres")), mock
}

var rowColumns = []string{"id", "company_id", "platform", "profile_id", "data", "fetch_status", "error_message", "last_fetched_at", "expires_at", "created_at", "updated_at"}

func TestSocialCacheRepository_Upsert(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSocialCacheRepository(database, nil)
	now := time.Now().UTC()
	entry := &socialcache.CacheEntry{
		CompanyID:     uuid.New(),
		Platform:      socialcache.PlatformFacebook,
		ProfileID:     "page",
		Data:          []byte(`{"likes":1}`),
		FetchStatus:   socialcache.FetchStatusSuccess,
		LastFetchedAt: now,
		ExpiresAt:     now.Add(30 * time.Minute),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO social_media_cache")).
		WithArgs(sqlmock.AnyArg(), entry.CompanyID, "FACEBOOK", "page", `{"likes":1}`, "SUCCESS", sql.NullString{}, entry.LastFetchedAt, entry.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), entry))
	require.Equal(t, uuid.Nil, entry.ID, "caller's entry is not mutated")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSocialCacheRepository_UpsertErrorWithoutData(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSocialCacheRepository(database, nil)
	entry := &socialcache.CacheEntry{
		CompanyID:    uuid.New(),
		Platform:     socialcache.PlatformLinkedIn,
		FetchStatus:  socialcache.FetchStatusError,
		ErrorMessage: "boom",
	}

	mock.ExpectExec(regexp.QuoteMeta("WHEN EXCLUDED.fetch_status = 'ERROR' AND EXCLUDED.data IS NULL")).
		WithArgs(sqlmock.AnyArg(), entry.CompanyID, "LINKEDIN", "", nil, "ERROR", sql.NullString{String: "boom", Valid: true}, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSocialCacheRepository_UpsertPropagatesError(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSocialCacheRepository(database, nil)
	mock.ExpectExec("INSERT INTO social_media_cache").WillReturnError(errors.New("conn reset"))

	err := repo.Upsert(context.Background(), &socialcache.CacheEntry{CompanyID: uuid.New(), Platform: socialcache.PlatformFacebook, FetchStatus: socialcache.FetchStatusSuccess})
	require.Error(t, err)
	require.Contains(t, err.Error(), "conn reset")
}

func TestSocialCacheRepository_Find(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSocialCacheRepository(database, nil)
	key := socialcache.NewCacheKey(uuid.New(), "instagram", "acct")
	now := time.Now().UTC()
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM social_media_cache")).
		WithArgs(key.CompanyID, "INSTAGRAM", "acct").
		WillReturnRows(sqlmock.NewRows(rowColumns).AddRow(
			id.String(), key.CompanyID.String(), "INSTAGRAM", "acct", []byte(`{"followers":10}`), "SUCCESS", nil, now, now.Add(time.Hour), now, now,
		))

	e, err := repo.Find(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, e)
	require.Equal(t, id, e.ID)
	require.Equal(t, socialcache.PlatformInstagram, e.Platform)
	require.JSONEq(t, `{"followers":10}`, string(e.Data))
	require.Empty(t, e.ErrorMessage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSocialCacheRepository_FindMissing(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSocialCacheRepository(database, nil)
	key := socialcache.NewCacheKey(uuid.New(), "facebook", "")

	mock.ExpectQuery("FROM social_media_cache").WillReturnRows(sqlmock.NewRows(rowColumns))

	e, err := repo.Find(context.Background(), key)
	require.NoError(t, err)
	require.Nil(t, e)
}

func TestSocialCacheRepository_DeleteExpired(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSocialCacheRepository(database, nil)
	before := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM social_media_cache WHERE expires_at < $1")).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), before)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestSocialCacheRepository_FindAllFiltersByCompany(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewSocialCacheRepository(database, nil)
	company := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM social_media_cache WHERE company_id = $1 ORDER BY company_id, platform, profile_id")).
		WithArgs(company).
		WillReturnRows(sqlmock.NewRows(rowColumns).
			AddRow(uuid.NewString(), company.String(), "FACEBOOK", "", nil, "ERROR", "timeout", now, now, now, now).
			AddRow(uuid.NewString(), company.String(), "TWITTER", "h", []byte(`[]`), "SUCCESS", nil, now, now, now, now))

	entries, err := repo.FindAll(context.Background(), &company)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.False(t, entries[0].HasData())
	require.Equal(t, "timeout", entries[0].ErrorMessage)
	require.Equal(t, socialcache.PlatformTwitter, entries[1].Platform)

	mock.ExpectQuery(regexp.QuoteMeta("FROM social_media_cache ORDER BY")).
		WillReturnRows(sqlmock.NewRows(rowColumns))
	entries, err = repo.FindAll(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}
