// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"snapgram/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

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

// InitRedis initializes the Redis client with the given address. A failed
// connection leaves the cache disabled; every helper then falls through to the loader.
func InitRedis(addr string) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			observability.GlobalLogger.Warn("invalid REDIS_URL, continuing without cache", "addr", addr, "error", err)
			client = nil
			return
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client = redis.NewClient(opts)
	client.AddHook(metricsHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		observability.GlobalLogger.Warn("redis connection failed, continuing without cache", "error", err)
		client = nil
	} else {
		observability.GlobalLogger.Info("redis connected")
	}
}

// GetClient returns the current Redis client instance, or nil when caching is off.
func GetClient() *redis.Client {
	return client
}

// SetClient replaces the client. Tests point it at miniredis.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(metricsHook{})
	}
	client = c
}

// Close releases the client.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// Aside reads key into dest, or calls load and stores dest under key for ttl.
// load is expected to fill dest. Cache failures never fail the call.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, load func() error) error {
	if client == nil {
		return load()
	}

	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			observability.CacheLookups.WithLabelValues("hit").Inc()
			return nil
		}
		observability.GlobalLogger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		observability.GlobalLogger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}
	observability.CacheLookups.WithLabelValues("miss").Inc()

	if err := load(); err != nil {
		return err
	}

	encoded, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return nil
}
