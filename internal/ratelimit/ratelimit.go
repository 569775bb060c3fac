package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter answers whether one more request is allowed for a given
// user+action. Implementations must be safe for concurrent use across
// independent server instances.
type Limiter interface {
	Allow(ctx context.Context, userID, action string) (bool, error)
}

// RedisLimiter counts requests in fixed UTC-aligned windows. The
// increment is a single atomic redis operation, so concurrent requests
// from the same user cannot slip past the ceiling.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

func NewRedisLimiter(client *redis.Client, window time.Duration, max int) *RedisLimiter {
	if window <= 0 {
		window = 10 * time.Minute
	}
	if max <= 0 {
		max = 3
	}
	return &RedisLimiter{client: client, window: window, max: max}
}

// BucketKey returns the counter key for the window containing now.
// Windows are aligned to the epoch, so all server instances agree on
// bucket boundaries.
func BucketKey(userID, action string, now time.Time, window time.Duration) string {
	bucket := now.UTC().Truncate(window).Unix()
	return fmt.Sprintf("rl:%s:%s:%d", userID, action, bucket)
}

func (l *RedisLimiter) Allow(ctx context.Context, userID, action string) (bool, error) {
	key := BucketKey(userID, action, time.Now(), l.window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	return incr.Val() <= int64(l.max), nil
}
