package repositories

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimitRedisRepository keeps one INCR counter per key and window. Counters
// live for two windows so a late request near the boundary still finds its key.
type RateLimitRedisRepository struct {
	r   redis.Cmdable
	now func() time.Time
}

func NewRateLimitRedisRepository(r redis.Cmdable) *RateLimitRedisRepository {
	return &RateLimitRedisRepository{r: r, now: time.Now}
}

func (repo *RateLimitRedisRepository) IncrementWindow(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	start := repo.now().Truncate(window)
	windowKey := key + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := repo.r.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.Expire(ctx, windowKey, 2*window)
		return nil
	})
	if err != nil {
		return 0, start, err
	}
	return int(incr.Val()), start, nil
}
