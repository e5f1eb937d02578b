package helpers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
)

type ctxKey string

const (
	keyCompanyID ctxKey = "company_id"
	keyPlatform  ctxKey = "platform"
)

func SetCompanyID(c echo.Context, id uuid.UUID) { c.Set(string(keyCompanyID), id) }
func GetCompanyIDRaw(c echo.Context) (uuid.UUID, bool) {
	v := c.Get(string(keyCompanyID))
	id, ok := v.(uuid.UUID)
	return id, ok
}

func SetPlatform(c echo.Context, p socialcache.Platform) { c.Set(string(keyPlatform), p) }
func GetPlatformRaw(c echo.Context) (socialcache.Platform, bool) {
	v := c.Get(string(keyPlatform))
	p, ok := v.(socialcache.Platform)
	return p, ok
}
