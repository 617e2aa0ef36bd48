package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCounter keeps fixed-window request counters in Redis.
type RedisCounter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCounter creates a counter. Keys are namespaced with keyPrefix,
// "lf:" when empty.
func NewRedisCounter(client *redis.Client, keyPrefix string) *RedisCounter {
	if client == nil {
		panic("redis client cannot be nil for RedisCounter")
	}
	if keyPrefix == "" {
		keyPrefix = "lf:"
	}
	return &RedisCounter{client: client, keyPrefix: keyPrefix}
}

func (r *RedisCounter) key(name string) string {
	return r.keyPrefix + "ratelimit:" + name
}

// Incr increments the counter for name and returns the post-increment value.
// The expiry is armed by the first hit of a window so that steady traffic
// cannot keep extending it.
func (r *RedisCounter) Incr(ctx context.Context, name string, window time.Duration) (int64, error) {
	key := r.key(name)
	pipe := r.client.TxPipeline()
	incrCmd := pipe.Incr(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis: incr %s: %w", key, err)
	}
	count := incrCmd.Val()
	// PTTL reports a negative duration for a key without expiry.
	if count == 1 || ttlCmd.Val() < 0 {
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("redis: expire %s: %w", key, err)
		}
	}
	return count, nil
}

// Ping checks the Redis connection.
func (r *RedisCounter) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}
