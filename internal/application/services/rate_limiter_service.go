package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
)

const (
	defaultRequestsPerWindow = 120
	defaultRateLimitPrefix   = "ratelimit"
)

// RateLimiterConfig describes one fixed-window policy. The same service type
// guards API calls per company and upstream calls per platform; only the prefix
// and numbers differ between the two instances.
type RateLimiterConfig struct {
	DefaultRequestsPerMinute int
	// BurstMultiplier scales the hard ceiling above the advertised limit
	BurstMultiplier float64
	Window          time.Duration
	KeyPrefix       string
}

// RateLimiterService implements ports.RateLimiterService over a shared counter store.
type RateLimiterService struct {
	counter ports.RateLimitRepository
	limit   int
	ceiling int
	window  time.Duration
	prefix  string
	logger  *logrus.Logger
}

func NewRateLimiterService(counter ports.RateLimitRepository, cfg *RateLimiterConfig, logger *logrus.Logger) *RateLimiterService {
	s := &RateLimiterService{
		counter: counter,
		limit:   defaultRequestsPerWindow,
		window:  time.Minute,
		prefix:  defaultRateLimitPrefix,
		logger:  logger,
	}
	burst := 1.0
	if cfg != nil {
		if cfg.DefaultRequestsPerMinute > 0 {
			s.limit = cfg.DefaultRequestsPerMinute
		}
		if cfg.BurstMultiplier > 0 {
			burst = cfg.BurstMultiplier
		}
		if cfg.Window > 0 {
			s.window = cfg.Window
		}
		if cfg.KeyPrefix != "" {
			s.prefix = cfg.KeyPrefix
		}
	}
	s.ceiling = int(float64(s.limit) * burst)
	return s
}

// Allow fails open: a counter error yields an allowing decision plus the error.
func (s *RateLimiterService) Allow(ctx context.Context, subject string) (ports.RateLimitDecision, error) {
	count, start, err := s.counter.IncrementWindow(ctx, s.prefix+":"+subject, s.window)
	decision := ports.RateLimitDecision{Allowed: true, Limit: s.limit, Remaining: s.ceiling, ResetAt: start.Add(s.window)}
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"subject": subject, "prefix": s.prefix}).WithError(err).Error("rate limiter: counter unavailable")
		}
		return decision, err
	}

	if count > s.ceiling {
		decision.Allowed = false
		decision.Remaining = 0
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"subject": subject, "prefix": s.prefix, "count": count}).Debug("rate limiter: denied")
		}
		return decision, nil
	}
	decision.Remaining = s.ceiling - count
	return decision, nil
}
