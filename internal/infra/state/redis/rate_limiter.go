package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimiter is a request counter kept in Redis; every hit refreshes the
// window. Counters live under keyPrefix.
type RateLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRateLimiter creates a RateLimiter.
func NewRateLimiter(client *redis.Client, keyPrefix string) *RateLimiter {
	if client == nil {
		panic("redis client cannot be nil for RateLimiter")
	}
	if keyPrefix == "" {
		keyPrefix = "wb:"
	}
	return &RateLimiter{client: client, keyPrefix: keyPrefix}
}

func (r *RateLimiter) counterKey(key string) string {
	return fmt.Sprintf("%sratelimit:%s", r.keyPrefix, key)
}

// Allow increments the counter for key and reports whether it is still
// within limit for the current window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	counterKey := r.counterKey(key)
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, counterKey)
	pipe.Expire(ctx, counterKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: pipeline failed for rate limit check on key %s: %w", counterKey, err)
	}
	count, err := incrCmd.Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to get incr result for rate limit on key %s: %w", counterKey, err)
	}
	return count <= int64(limit), nil
}
