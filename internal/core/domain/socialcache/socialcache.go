package socialcache

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Platform string

const (
	PlatformFacebook  Platform = "FACEBOOK"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformLinkedIn  Platform = "LINKEDIN"
	PlatformTwitter   Platform = "TWITTER"
)

// platformAliases maps alternative spellings onto a canonical platform.
var platformAliases = map[string]Platform{
	"X": PlatformTwitter,
}

// NormalizePlatform returns the canonical uppercase form used in cache keys.
func NormalizePlatform(p string) Platform {
	up := strings.ToUpper(strings.TrimSpace(p))
	if alias, ok := platformAliases[up]; ok {
		return alias
	}
	return Platform(up)
}

// Supported reports whether p is one of the platforms the service knows how to fetch.
func (p Platform) Supported() bool {
	switch p {
	case PlatformFacebook, PlatformInstagram, PlatformLinkedIn, PlatformTwitter:
		return true
	default:
		return false
	}
}

type FetchStatus string

const (
	FetchStatusSuccess FetchStatus = "SUCCESS"
	FetchStatusError   FetchStatus = "ERROR"
	FetchStatusPending FetchStatus = "PENDING"
)

func (s FetchStatus) Valid() bool {
	switch s {
	case FetchStatusSuccess, FetchStatusError, FetchStatusPending:
		return true
	default:
		return false
	}
}

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrUpstreamThrottled   = errors.New("upstream request budget exhausted")
	ErrInvalidFetchStatus  = errors.New("invalid fetch status")
)

// CacheKey identifies one cached snapshot. ProfileID may be empty for company-level data.
type CacheKey struct {
	CompanyID uuid.UUID `json:"company_id"`
	Platform  Platform  `json:"platform"`
	ProfileID string    `json:"profile_id"`
}

func NewCacheKey(companyID uuid.UUID, platform string, profileID string) CacheKey {
	return CacheKey{
		CompanyID: companyID,
		Platform:  NormalizePlatform(platform),
		ProfileID: profileID,
	}
}

// Normalized returns a copy of the key with the platform in canonical form.
func (k CacheKey) Normalized() CacheKey {
	k.Platform = NormalizePlatform(string(k.Platform))
	return k
}

func (k CacheKey) String() string {
	return k.CompanyID.String() + ":" + string(k.Platform) + ":" + k.ProfileID
}

type CacheEntry struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	CompanyID     uuid.UUID       `json:"company_id" db:"company_id"`
	Platform      Platform        `json:"platform" db:"platform"`
	ProfileID     string          `json:"profile_id" db:"profile_id"`
	Data          json.RawMessage `json:"data" db:"data"`
	FetchStatus   FetchStatus     `json:"fetch_status" db:"fetch_status"`
	ErrorMessage  string          `json:"error_message,omitempty" db:"error_message"`
	LastFetchedAt time.Time       `json:"last_fetched_at" db:"last_fetched_at"`
	ExpiresAt     time.Time       `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

func (e *CacheEntry) Key() CacheKey {
	return CacheKey{CompanyID: e.CompanyID, Platform: e.Platform, ProfileID: e.ProfileID}
}

// IsExpired reports whether now is past ExpiresAt.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// IsFresh reports whether the entry was fetched within window of now.
func (e *CacheEntry) IsFresh(now time.Time, window time.Duration) bool {
	return e.LastFetchedAt.After(now.Add(-window))
}

// HasData reports whether the entry carries a usable payload.
func (e *CacheEntry) HasData() bool {
	d := strings.TrimSpace(string(e.Data))
	return d != "" && d != "null"
}

type CacheStats struct {
	Total      int              `json:"total"`
	Expired    int              `json:"expired"`
	Valid      int              `json:"valid"`
	ByPlatform map[Platform]int `json:"by_platform"`
}

// StoreDataRequest is the body accepted by the manual cache write endpoint.
// Data must be present, but `required` cannot reject a literal null: the handler
// treats null as no payload and accepts it only with FetchStatus ERROR.
type StoreDataRequest struct {
	ProfileID    string          `json:"profile_id"`
	Data         json.RawMessage `json:"data" validate:"required"`
	FetchStatus  FetchStatus     `json:"fetch_status" validate:"omitempty,oneof=SUCCESS ERROR PENDING"`
	ErrorMessage string          `json:"error_message"`
}
