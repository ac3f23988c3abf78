// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rockae/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin cache-aside layer over Redis. A nil *Cache is valid and
// disables caching, so callers never need to branch on configuration.
type Cache struct {
	client *redis.Client
}

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// Connect builds a cache from REDIS_URL. An empty address returns a nil cache.
// Accepts either a redis:// URL or a bare host:port.
func Connect(ctx context.Context, addr string) (*Cache, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, nil
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	observability.Logger.InfoContext(ctx, "Redis connected successfully")
	return New(client), nil
}

// New wraps an existing client.
func New(client *redis.Client) *Cache {
	client.AddHook(metricsHook{})
	return &Cache{client: client}
}

// Client returns the underlying Redis client, or nil when caching is disabled.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

// Close releases the Redis connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Aside reads key into dest. On a miss it calls load, which must fill dest,
// and stores the result for ttl. Redis failures degrade to calling load.
func (c *Cache) Aside(ctx context.Context, name, key string, dest any, ttl time.Duration, load func() error) error {
	if c == nil {
		return load()
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheLookups.WithLabelValues(name, "hit").Inc()
			return nil
		}
		observability.Logger.WarnContext(ctx, "discarding undecodable cache entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		observability.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	observability.CacheLookups.WithLabelValues(name, "miss").Inc()

	if err := load(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		observability.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate removes keys. Failures are logged, never returned.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		observability.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}
