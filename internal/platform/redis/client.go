// Package redis opens the optional Redis connection shared by the duty-type
// cache and the rate limiter.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"guardhouse/internal/platform/config"
)

const healthTimeout = 2 * time.Second

type Client struct {
	*redis.Client
}

// New dials Redis and pings it once. A nil client and nil error mean Redis is
// not configured and callers fall back to in-process state.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Health(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	for dst, v := range map[*time.Duration]time.Duration{
		&opts.DialTimeout:  cfg.DialTimeout,
		&opts.ReadTimeout:  cfg.ReadTimeout,
		&opts.WriteTimeout: cfg.WriteTimeout,
	} {
		if v > 0 {
			*dst = v
		}
	}
	return opts, nil
}

// Health pings with its own short deadline so /readyz never hangs on Redis.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
