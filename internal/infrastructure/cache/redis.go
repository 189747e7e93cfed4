package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"YTVeille/internal/ports"
)

const (
	keyPrefix  = "ytveille:"
	DefaultTTL = 10 * time.Minute
	scanCount  = 100
)

// RedisCache is a cache-aside store for read responses. A nil client turns
// every operation into a no-op.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ ports.Cache = (*RedisCache)(nil)

// Connect dials redisURL. Caching is disabled, not failed, when the URL is
// empty, invalid or unreachable.
func Connect(ctx context.Context, redisURL string, ttl time.Duration, log *slog.Logger) *RedisCache {
	if redisURL == "" {
		log.Info("redis: no URL configured, caching disabled")
		return New(nil, ttl)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn("redis: invalid URL, caching disabled", "error", err)
		return New(nil, ttl)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		log.Warn("redis: connection failed, caching disabled", "error", err)
		return New(nil, ttl)
	}

	log.Info("redis: connected, caching enabled")
	return New(rdb, ttl)
}

// New wraps an existing client.
func New(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a client is attached.
func (c *RedisCache) Enabled() bool {
	return c.rdb != nil
}

// Get returns nil on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, keyPrefix+key, value, c.ttl).Err()
}

// Invalidate drops every key owned by this application.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}

	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", scanCount).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	return nil
}

// Close shuts down the Redis connection.
func (c *RedisCache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
