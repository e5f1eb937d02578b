package socialcache_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
)

func TestNormalizePlatform(t *testing.T) {
	cases := map[string]socialcache.Platform{
		"facebook":    socialcache.PlatformFacebook,
		" Instagram ": socialcache.PlatformInstagram,
		"LINKEDIN":    socialcache.PlatformLinkedIn,
		"x":           socialcache.PlatformTwitter,
		"twitter":     socialcache.PlatformTwitter,
		"tiktok":      socialcache.Platform("TIKTOK"),
	}
	for in, want := range cases {
		assert.Equal(t, want, socialcache.NormalizePlatform(in), in)
	}
	assert.False(t, socialcache.Platform("TIKTOK").Supported())
	assert.True(t, socialcache.PlatformLinkedIn.Supported())
}

func TestCacheEntry_ExpiryAndFreshness(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := &socialcache.CacheEntry{LastFetchedAt: now.Add(-6 * time.Minute), ExpiresAt: now.Add(24 * time.Minute)}
	assert.False(t, e.IsExpired(now))
	assert.False(t, e.IsFresh(now, 5*time.Minute))
	assert.True(t, e.IsFresh(now, 10*time.Minute))
	assert.True(t, e.IsExpired(now.Add(25*time.Minute)))
}

func TestAnnotate_ObjectPayload(t *testing.T) {
	fetched := time.Date(2024, 3, 1, 11, 58, 30, 123000000, time.UTC)
	entry := &socialcache.CacheEntry{
		CompanyID:     uuid.New(),
		Platform:      socialcache.PlatformFacebook,
		Data:          json.RawMessage(`{"followers":120,"posts":[1,2]}`),
		FetchStatus:   socialcache.FetchStatusSuccess,
		LastFetchedAt: fetched,
	}
	original := string(entry.Data)

	out, err := socialcache.Annotate(entry, socialcache.MessageStaleOnError)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, float64(120), got["followers"])
	assert.Equal(t, true, got["_cached"])
	assert.Equal(t, "SUCCESS", got["_fetchStatus"])
	assert.Equal(t, "2024-03-01T11:58:30.123Z", got["_lastFetchedAt"])
	assert.Equal(t, socialcache.MessageStaleOnError, got["_message"])
	assert.Equal(t, original, string(entry.Data), "stored data must not be modified")
}

func TestAnnotate_NonObjectPayloadIsWrapped(t *testing.T) {
	entry := &socialcache.CacheEntry{Data: json.RawMessage(`[1,2,3]`), FetchStatus: socialcache.FetchStatusSuccess}
	out, err := socialcache.Annotate(entry, "m")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, got["data"])
	assert.Equal(t, true, got["_cached"])
}

func TestCacheEntry_HasData(t *testing.T) {
	assert.False(t, (&socialcache.CacheEntry{}).HasData())
	assert.False(t, (&socialcache.CacheEntry{Data: json.RawMessage("null")}).HasData())
	assert.True(t, (&socialcache.CacheEntry{Data: json.RawMessage("{}")}).HasData())
}
