package platforms

import (
	"context"

	"github.com/google/uuid"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
)

// StaticTokenSource hands out one configured token per platform for every company.
type StaticTokenSource map[socialcache.Platform]string

func (s StaticTokenSource) AccessToken(ctx context.Context, companyID uuid.UUID, platform socialcache.Platform) (string, error) {
	return s[platform], nil
}
