package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	defaultCleanupSpec = "@every 10m"
	defaultRunTimeout  = time.Minute
)

// ExpiredCleaner deletes cache rows past their expiry and reports how many went.
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Cleaner runs cache cleanup on a cron schedule.
type Cleaner struct {
	target   ExpiredCleaner
	cron     *cron.Cron
	logger   *logrus.Logger
	schedule string
	timeout  time.Duration
	observe  func(deleted int64)
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification, e.g. "@every 5m" or "*/15 * * * *".
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithTimeout bounds a single cleanup run.
func WithTimeout(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.timeout = d
		}
	}
}

// WithObserver is called with the deleted row count after every successful run.
func WithObserver(fn func(deleted int64)) Option {
	return func(cleaner *Cleaner) {
		cleaner.observe = fn
	}
}

func NewCleaner(target ExpiredCleaner, logger *logrus.Logger, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		target:   target,
		logger:   logger,
		schedule: defaultCleanupSpec,
		timeout:  defaultRunTimeout,
	}
	for _, opt := range opts {
		opt(cleaner)
	}
	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Start registers the cleanup job and launches the scheduler. A nil target is a no-op.
func (c *Cleaner) Start() error {
	if c.target == nil {
		return nil
	}
	if _, err := c.cron.AddFunc(c.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		_, _ = c.RunOnce(ctx)
	}); err != nil {
		return err
	}
	c.cron.Start()
	if c.logger != nil {
		c.logger.WithField("schedule", c.schedule).Info("cache cleanup scheduled")
	}
	return nil
}

// Stop halts the scheduler; the returned context is done once a running job finishes.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce performs a single cleanup pass.
func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	if c.target == nil {
		return 0, nil
	}
	deleted, err := c.target.CleanupExpired(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.WithError(err).Warn("cache cleanup failed")
		}
		return 0, err
	}
	if c.observe != nil {
		c.observe(deleted)
	}
	if c.logger != nil && deleted > 0 {
		c.logger.WithField("deleted", deleted).Info("expired cache entries removed")
	}
	return deleted, nil
}
