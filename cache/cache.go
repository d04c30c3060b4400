// Package cache stores serialized analyses keyed by request fingerprint.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Store is a byte cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Backend() string
	Close() error
}

// Options selects the backend. An empty RedisAddr means memory only.
type Options struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// MaxEntries bounds the in-memory store.
	MaxEntries int
}

// Open returns a Redis store when an address is configured and reachable,
// and an in-memory store otherwise.
func Open(ctx context.Context, opts Options, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RedisAddr != "" {
		store, err := NewRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
		if err == nil {
			logger.Info("Analysis cache backed by redis", "addr", opts.RedisAddr, "db", opts.RedisDB)
			return store
		}
		logger.Warn("Redis unavailable, falling back to memory cache", "addr", opts.RedisAddr, "error", err)
	}
	logger.Info("Analysis cache backed by memory", "maxEntries", opts.MaxEntries)
	return NewMemory(opts.MaxEntries, 5*time.Minute)
}
