package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
)

const maxResponseBytes = 4 << 20

var (
	// ErrInvalidPayload is returned when the connector answers 2xx with a body that is not JSON.
	ErrInvalidPayload = errors.New("upstream returned invalid JSON")
	// ErrResponseTooLarge is returned when the body exceeds maxResponseBytes.
	ErrResponseTooLarge = errors.New("upstream response too large")
)

// UpstreamError is a non-2xx answer from a platform connector.
type UpstreamError struct {
	Platform   socialcache.Platform
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API returned status %d", e.Platform, e.StatusCode)
	}
	return fmt.Sprintf("%s API returned status %d: %s", e.Platform, e.StatusCode, e.Body)
}

// HTTPFetcher pulls analytics for one platform from its connector endpoint:
// GET {base}/companies/{company}/stats?profile_id=...
type HTTPFetcher struct {
	platform socialcache.Platform
	baseURL  string
	client   *http.Client
	tokens   ports.TokenSource
	logger   *logrus.Logger
}

func NewHTTPFetcher(platform socialcache.Platform, baseURL string, client *http.Client, tokens ports.TokenSource, logger *logrus.Logger) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPFetcher{
		platform: platform,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		tokens:   tokens,
		logger:   logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, companyID uuid.UUID, profileID string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/companies/%s/stats", f.baseURL, url.PathEscape(companyID.String()))
	if profileID != "" {
		endpoint += "?" + url.Values{"profile_id": {profileID}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", f.platform, err)
	}
	req.Header.Set("Accept", "application/json")

	if f.tokens != nil {
		token, err := f.tokens.AccessToken(ctx, companyID, f.platform)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s access token: %w", f.platform, err)
		}
		if token != "" {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", f.platform, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", f.platform, err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", f.platform, ErrResponseTooLarge, maxResponseBytes)
	}
	if f.logger != nil {
		f.logger.WithFields(logrus.Fields{
			"platform":    f.platform,
			"company_id":  companyID,
			"profile_id":  profileID,
			"status":      resp.StatusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("upstream fetch completed")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Platform: f.platform, StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), 256)}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%s: %w", f.platform, ErrInvalidPayload)
	}
	return json.RawMessage(body), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
