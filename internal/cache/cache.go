package cache

import (
	"context"
	"fmt"

	"github.com/adelsaramii/verdict/internal/domain"
)

// New creates a signal cache based on configuration.
// For Community tier: returns the in-process map.
// For Pro tier with two-phase: returns TwoPhaseCache wrapping memory + Redis.
// For Pro tier without two-phase: returns the Redis cache.
func New(cfg domain.CacheConfig) (domain.SignalCache, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryCache(), nil

	case "redis":
		if cfg.EnableTwoPhase {
			return NewTwoPhaseCache(cfg)
		}
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	case "twophase":
		return NewTwoPhaseCache(cfg)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// TwoPhaseCache layers the caches:
// L1: local map for fast reads
// L2: Redis for sharing entries across nodes and restarts
type TwoPhaseCache struct {
	local  *MemoryCache
	remote *RedisCache
}

// NewTwoPhaseCache creates a two-phase cache with memory + Redis.
func NewTwoPhaseCache(cfg domain.CacheConfig) (*TwoPhaseCache, error) {
	remote, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis cache: %w", err)
	}

	return &TwoPhaseCache{
		local:  NewMemoryCache(),
		remote: remote,
	}, nil
}

// Get retrieves from L1 first, then L2. Populates L1 on an L2 hit.
func (c *TwoPhaseCache) Get(ctx context.Context, key string) (domain.TextSignals, bool, error) {
	signals, ok, err := c.local.Get(ctx, key)
	if err != nil {
		return domain.TextSignals{}, false, err
	}
	if ok {
		return signals, true, nil
	}

	signals, ok, err = c.remote.Get(ctx, key)
	if err != nil {
		return domain.TextSignals{}, false, err
	}
	if ok {
		_ = c.local.Set(ctx, key, signals)
	}
	return signals, ok, nil
}

// Set writes to both L1 and L2.
func (c *TwoPhaseCache) Set(ctx context.Context, key string, signals domain.TextSignals) error {
	if err := c.local.Set(ctx, key, signals); err != nil {
		return err
	}
	return c.remote.Set(ctx, key, signals)
}

// Ping checks both L1 and L2 health.
func (c *TwoPhaseCache) Ping(ctx context.Context) error {
	if err := c.local.Ping(ctx); err != nil {
		return fmt.Errorf("L1 ping failed: %w", err)
	}
	if err := c.remote.Ping(ctx); err != nil {
		return fmt.Errorf("L2 ping failed: %w", err)
	}
	return nil
}

// Close closes both L1 and L2.
func (c *TwoPhaseCache) Close() error {
	_ = c.local.Close()
	return c.remote.Close()
}

// Stats returns L1 cache statistics.
func (c *TwoPhaseCache) Stats() (size int, hits, misses int64) {
	return c.local.Stats()
}
