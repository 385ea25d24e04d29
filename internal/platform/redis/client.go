// Package redis dials the optional redis instance backing the shared
// evidence cache entry store.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"smartkyc/internal/platform/config"
)

// New opens a client for the configured URL and verifies connectivity
// with a ping before handing it out, so a bad address fails at startup
// rather than on the first cache write. A nil client with a nil error
// means redis is not configured and the caller falls back to the
// process-local entry store.
func New(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
