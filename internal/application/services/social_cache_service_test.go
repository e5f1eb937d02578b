package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	impl "github.com/avatarctic/social-analytics-cache/go/internal/application/services"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	tmocks "github.com/avatarctic/social-analytics-cache/go/test/mocks"
)

const (
	testTTL       = 30 * time.Minute
	testFreshness = 5 * time.Minute
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newCacheService(t *testing.T, repo *tmocks.MemorySocialCacheRepository) (*impl.SocialCacheService, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)}
	svc, err := impl.NewSocialCacheService(repo, &impl.SocialCacheConfig{TTL: testTTL, FreshnessWindow: testFreshness, Now: clock.Now}, logrus.New())
	require.NoError(t, err)
	return svc, clock
}

func TestNewSocialCacheService_RejectsFreshnessNotBelowTTL(t *testing.T) {
	_, err := impl.NewSocialCacheService(tmocks.NewMemorySocialCacheRepository(), &impl.SocialCacheConfig{TTL: time.Minute, FreshnessWindow: time.Minute}, nil)
	require.Error(t, err)
}

func TestNewSocialCacheService_Defaults(t *testing.T) {
	svc, err := impl.NewSocialCacheService(tmocks.NewMemorySocialCacheRepository(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, 30*time.Minute, svc.TTL())
	require.Equal(t, 5*time.Minute, svc.FreshnessWindow())
}

func TestStoreData_SecondWriteOverwritesSingleRow(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	svc, clock := newCacheService(t, repo)
	ctx := context.Background()
	key := socialcache.NewCacheKey(uuid.New(), "facebook", "page-1")

	require.NoError(t, svc.StoreData(ctx, key, json.RawMessage(`{"likes":1}`), socialcache.FetchStatusSuccess, ""))
	first := svc.GetData(ctx, key)
	require.NotNil(t, first)

	clock.Advance(time.Minute)
	require.NoError(t, svc.StoreData(ctx, key, json.RawMessage(`{"likes":2}`), socialcache.FetchStatusPending, ""))

	require.Equal(t, 1, repo.Len())
	got := svc.GetData(ctx, key)
	require.NotNil(t, got)
	require.JSONEq(t, `{"likes":2}`, string(got.Data))
	require.Equal(t, socialcache.FetchStatusPending, got.FetchStatus)
	require.Equal(t, clock.Now(), got.LastFetchedAt)
	require.Equal(t, clock.Now().Add(testTTL), got.ExpiresAt)
	require.Equal(t, first.ID, got.ID)
}

func TestStoreData_PlatformCaseInsensitive(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	svc, _ := newCacheService(t, repo)
	ctx := context.Background()
	company := uuid.New()

	require.NoError(t, svc.StoreData(ctx, socialcache.CacheKey{CompanyID: company, Platform: "facebook", ProfileID: "p"}, json.RawMessage(`{"a":1}`), "", ""))

	got := svc.GetData(ctx, socialcache.CacheKey{CompanyID: company, Platform: "FACEBOOK", ProfileID: "p"})
	require.NotNil(t, got)
	require.Equal(t, socialcache.PlatformFacebook, got.Platform)
	require.Equal(t, socialcache.FetchStatusSuccess, got.FetchStatus)
}

func TestStoreData_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newCacheService(t, tmocks.NewMemorySocialCacheRepository())
	err := svc.StoreData(context.Background(), socialcache.NewCacheKey(uuid.New(), "x", ""), json.RawMessage(`{}`), "DONE", "")
	require.ErrorIs(t, err, socialcache.ErrInvalidFetchStatus)
}

func TestStoreData_PropagatesStoreFailure(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	repo.FailUpsert = errors.New("db down")
	svc, _ := newCacheService(t, repo)
	err := svc.StoreData(context.Background(), socialcache.NewCacheKey(uuid.New(), "linkedin", ""), json.RawMessage(`{}`), socialcache.FetchStatusSuccess, "")
	require.Error(t, err)
	require.ErrorIs(t, err, repo.FailUpsert)
}

func TestStoreData_ErrorWithoutPayloadKeepsLastKnownData(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	svc, _ := newCacheService(t, repo)
	ctx := context.Background()
	key := socialcache.NewCacheKey(uuid.New(), "instagram", "ig")

	require.NoError(t, svc.StoreData(ctx, key, json.RawMessage(`{"reach":10}`), socialcache.FetchStatusSuccess, ""))
	require.NoError(t, svc.StoreData(ctx, key, nil, socialcache.FetchStatusError, "token expired"))

	got := svc.GetData(ctx, key)
	require.NotNil(t, got)
	require.JSONEq(t, `{"reach":10}`, string(got.Data))
	require.Equal(t, socialcache.FetchStatusError, got.FetchStatus)
	require.Equal(t, "token expired", got.ErrorMessage)

	require.NoError(t, svc.StoreData(ctx, key, json.RawMessage(`{"reach":0}`), socialcache.FetchStatusError, "partial"))
	got = svc.GetData(ctx, key)
	require.JSONEq(t, `{"reach":0}`, string(got.Data))
}

func TestGetData_ExpiryBoundary(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	svc, clock := newCacheService(t, repo)
	ctx := context.Background()
	now := clock.Now()

	expiredKey := socialcache.NewCacheKey(uuid.New(), "facebook", "old")
	fetched := now.Add(-testTTL - time.Second)
	repo.Put(&socialcache.CacheEntry{CompanyID: expiredKey.CompanyID, Platform: expiredKey.Platform, ProfileID: expiredKey.ProfileID, Data: json.RawMessage(`{}`), FetchStatus: socialcache.FetchStatusSuccess, LastFetchedAt: fetched, ExpiresAt: fetched.Add(testTTL)})
	require.Nil(t, svc.GetData(ctx, expiredKey))

	validKey := socialcache.NewCacheKey(uuid.New(), "facebook", "young")
	fetched = now.Add(-testTTL + time.Second)
	repo.Put(&socialcache.CacheEntry{CompanyID: validKey.CompanyID, Platform: validKey.Platform, ProfileID: validKey.ProfileID, Data: json.RawMessage(`{}`), FetchStatus: socialcache.FetchStatusSuccess, LastFetchedAt: fetched, ExpiresAt: fetched.Add(testTTL)})
	require.NotNil(t, svc.GetData(ctx, validKey))
}

func TestHasFreshData_StricterThanExpiry(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	svc, clock := newCacheService(t, repo)
	ctx := context.Background()
	key := socialcache.NewCacheKey(uuid.New(), "twitter", "acct")

	require.NoError(t, svc.StoreData(ctx, key, json.RawMessage(`{"tweets":4}`), socialcache.FetchStatusSuccess, ""))
	require.True(t, svc.HasFreshData(ctx, key))

	clock.Advance(testFreshness + time.Second)
	require.False(t, svc.HasFreshData(ctx, key))
	require.NotNil(t, svc.GetData(ctx, key), "stale-but-valid entry must still be readable")

	clock.Advance(testTTL)
	require.False(t, svc.HasFreshData(ctx, key))
	require.Nil(t, svc.GetData(ctx, key))
}

func TestGetData_NeverStoredKey(t *testing.T) {
	svc, _ := newCacheService(t, tmocks.NewMemorySocialCacheRepository())
	key := socialcache.NewCacheKey(uuid.New(), "facebook", "none")
	require.Nil(t, svc.GetData(context.Background(), key))
	require.False(t, svc.HasFreshData(context.Background(), key))
}

func TestGetData_ReadFailureIsAMiss(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	svc, _ := newCacheService(t, repo)
	ctx := context.Background()
	key := socialcache.NewCacheKey(uuid.New(), "facebook", "p")
	require.NoError(t, svc.StoreData(ctx, key, json.RawMessage(`{}`), socialcache.FetchStatusSuccess, ""))

	repo.FailFind = errors.New("connection refused")
	require.Nil(t, svc.GetData(ctx, key))
	require.False(t, svc.HasFreshData(ctx, key))
}

func TestGetCompanyPlatformData_FiltersExpired(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	svc, clock := newCacheService(t, repo)
	ctx := context.Background()
	company := uuid.New()
	now := clock.Now()

	repo.Put(&socialcache.CacheEntry{CompanyID: company, Platform: socialcache.PlatformLinkedIn, ProfileID: "a", LastFetchedAt: now, ExpiresAt: now.Add(testTTL)})
	repo.Put(&socialcache.CacheEntry{CompanyID: company, Platform: socialcache.PlatformLinkedIn, ProfileID: "b", LastFetchedAt: now.Add(-time.Hour), ExpiresAt: now.Add(-30 * time.Minute)})
	repo.Put(&socialcache.CacheEntry{CompanyID: company, Platform: socialcache.PlatformFacebook, ProfileID: "c", LastFetchedAt: now, ExpiresAt: now.Add(testTTL)})

	entries, err := svc.GetCompanyPlatformData(ctx, company, "linkedin")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a", entries[0].ProfileID)
}

func TestGetCacheStats_Aggregates(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	svc, clock := newCacheService(t, repo)
	ctx := context.Background()
	company := uuid.New()
	now := clock.Now()
	valid := now.Add(10 * time.Minute)
	expired := now.Add(-time.Minute)

	repo.Put(&socialcache.CacheEntry{CompanyID: company, Platform: "X1", ProfileID: "1", ExpiresAt: valid})
	repo.Put(&socialcache.CacheEntry{CompanyID: company, Platform: "X1", ProfileID: "2", ExpiresAt: valid})
	repo.Put(&socialcache.CacheEntry{CompanyID: company, Platform: "X1", ProfileID: "3", ExpiresAt: expired})
	repo.Put(&socialcache.CacheEntry{CompanyID: company, Platform: "Y1", ProfileID: "1", ExpiresAt: valid})
	repo.Put(&socialcache.CacheEntry{CompanyID: company, Platform: "Y1", ProfileID: "2", ExpiresAt: valid})
	repo.Put(&socialcache.CacheEntry{CompanyID: uuid.New(), Platform: "Y1", ProfileID: "other", ExpiresAt: valid})

	stats, err := svc.GetCacheStats(ctx, &company)
	require.NoError(t, err)
	require.Equal(t, &socialcache.CacheStats{
		Total:      5,
		Valid:      4,
		Expired:    1,
		ByPlatform: map[socialcache.Platform]int{"X1": 3, "Y1": 2},
	}, stats)

	all, err := svc.GetCacheStats(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 6, all.Total)
}

func TestCleanupExpired_Idempotent(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	svc, clock := newCacheService(t, repo)
	ctx := context.Background()
	now := clock.Now()

	repo.Put(&socialcache.CacheEntry{CompanyID: uuid.New(), Platform: socialcache.PlatformFacebook, ExpiresAt: now.Add(-time.Second)})
	repo.Put(&socialcache.CacheEntry{CompanyID: uuid.New(), Platform: socialcache.PlatformFacebook, ExpiresAt: now.Add(-time.Hour)})
	repo.Put(&socialcache.CacheEntry{CompanyID: uuid.New(), Platform: socialcache.PlatformFacebook, ExpiresAt: now.Add(time.Hour)})

	n, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	n, err = svc.CleanupExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
	require.Equal(t, 1, repo.Len())
}

func TestCleanupExpired_PropagatesError(t *testing.T) {
	repo := tmocks.NewMemorySocialCacheRepository()
	repo.FailDelete = errors.New("boom")
	svc, _ := newCacheService(t, repo)
	_, err := svc.CleanupExpired(context.Background())
	require.Error(t, err)
}
