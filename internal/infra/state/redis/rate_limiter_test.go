package redisstate

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_CounterKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	assert.Equal(t, "wb:ratelimit:10.0.0.1", NewRateLimiter(client, "").counterKey("10.0.0.1"))
	assert.Equal(t, "test:ratelimit:x", NewRateLimiter(client, "test:").counterKey("x"))
}

func TestRateLimiter_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	_, err := NewRateLimiter(client, "test:").Allow(context.Background(), "k", 1, time.Second)
	assert.Error(t, err)
}

// Runs against a real server when REDIS_ADDR is set.
func TestRateLimiter_Allow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	limiter := NewRateLimiter(client, "wbtest:")
	key := "client-" + time.Now().Format("150405.000000000")
	defer client.Del(ctx, limiter.counterKey(key))

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i+1)
	}
	ok, err := limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}
