package platforms

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/social-analytics-cache/go/configs"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/socialcache"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
)

// Registry maps normalized platforms to their fetchers.
type Registry struct {
	fetchers map[socialcache.Platform]ports.DataFetcher
}

func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[socialcache.Platform]ports.DataFetcher)}
}

// Register adds or replaces the fetcher for a platform.
func (r *Registry) Register(platform socialcache.Platform, f ports.DataFetcher) {
	r.fetchers[socialcache.NormalizePlatform(string(platform))] = f
}

func (r *Registry) Fetcher(platform socialcache.Platform) (ports.DataFetcher, bool) {
	f, ok := r.fetchers[platform]
	return f, ok
}

// NewRegistryFromConfig builds an HTTPFetcher per configured connector, sharing one
// HTTP client and a static token source.
func NewRegistryFromConfig(cfg *configs.UpstreamConfig, logger *logrus.Logger) *Registry {
	reg := NewRegistry()
	client := &http.Client{Timeout: cfg.Timeout}
	tokens := StaticTokenSource{}
	for name, pc := range cfg.Platforms {
		platform := socialcache.NormalizePlatform(name)
		if !platform.Supported() {
			if logger != nil {
				logger.WithField("platform", name).Warn("ignoring connector for unsupported platform")
			}
			continue
		}
		tokens[platform] = pc.AccessToken
		reg.Register(platform, NewHTTPFetcher(platform, pc.BaseURL, client, tokens, logger))
	}
	if logger != nil {
		logger.WithField("platforms", len(reg.fetchers)).Info("upstream connectors configured")
	}
	return reg
}
