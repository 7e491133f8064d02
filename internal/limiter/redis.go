// Package limiter counts failed login attempts in Redis.
package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "vegbazar:login_failures:"

type RedisLimiter struct {
	client redis.Cmdable
}

func NewRedisLimiter(client redis.Cmdable) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// Failures returns the failures recorded for key in the current window.
func (l *RedisLimiter) Failures(ctx context.Context, key string) (int, error) {
	n, err := l.client.Get(ctx, redisKey(key)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// RecordFailure increments the counter and pushes its expiry out to window.
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey(key))
	pipe.Expire(ctx, redisKey(key), window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, redisKey(key)).Err()
}

func redisKey(key string) string {
	return keyPrefix + key
}
