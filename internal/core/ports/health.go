package ports

import "context"

// HealthChecker probes one backing dependency (Postgres, Redis) for /health.
// A nil error means healthy.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
