package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "vegbazar:login_failures:a@b.com|10.0.0.1", redisKey("a@b.com|10.0.0.1"))
}

func TestRedisLimiter_Unreachable(t *testing.T) {
	// Nothing listens on port 1, so every command fails fast.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLimiter(client)
	ctx := context.Background()

	_, err := l.Failures(ctx, "a@b.com|10.0.0.1")
	require.Error(t, err)

	_, err = l.RecordFailure(ctx, "a@b.com|10.0.0.1", time.Minute)
	require.Error(t, err)

	assert.Error(t, l.Reset(ctx, "a@b.com|10.0.0.1"))
}
