package ports

import (
	"context"
	"time"
)

// RateLimitRepository counts hits in fixed windows. Implementations must be
// atomic across processes sharing the same backend.
type RateLimitRepository interface {
	// IncrementWindow bumps the counter for key in the window containing now and
	// returns the new count together with the window start.
	IncrementWindow(ctx context.Context, key string, window time.Duration) (count int, windowStart time.Time, err error)
}

// RateLimitDecision is the outcome of one Allow call.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long a denied caller should wait, rounded up to whole seconds.
func (d RateLimitDecision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return 0
	}
	return (wait + time.Second - 1).Truncate(time.Second)
}

// RateLimiterService guards a subject (a company id, an upstream platform).
// Safe for concurrent use.
type RateLimiterService interface {
	// Allow consumes one unit for subject. A non-nil error means the counter was
	// unavailable; the returned decision then allows the call.
	Allow(ctx context.Context, subject string) (RateLimitDecision, error)
}
