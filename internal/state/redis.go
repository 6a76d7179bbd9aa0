// Package state holds ephemeral evaluation state. The Redis cache keeps
// baseline aggregates warm between batch runs so repeated percentage_change
// conditions do not re-query a week of history every minute.
package state

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed baseline cache
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis at the given address
func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// GetBaseline returns a cached baseline aggregate. The second return value
// reports whether the key was present.
func (c *RedisCache) GetBaseline(ctx context.Context, key string) (float64, bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse cached baseline %s: %w", key, err)
	}
	return v, true, nil
}

// SetBaseline caches a baseline aggregate with a TTL
func (c *RedisCache) SetBaseline(ctx context.Context, key string, value float64, ttl time.Duration) error {
	raw := strconv.FormatFloat(value, 'f', -1, 64)
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping verifies connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
