package domain

import (
	"context"
)

// SignalCache stores extracted text signals keyed by the MD5 hex of the
// complaint text. Entries are write-once: the same text always yields the
// same signals for the life of the process, so implementations never evict
// or expire.
type SignalCache interface {
	// Get returns the cached signals for a key and whether they were present.
	Get(ctx context.Context, key string) (TextSignals, bool, error)

	// Set stores signals for a key. Overwriting an existing key is allowed
	// and must be idempotent.
	Set(ctx context.Context, key string, signals TextSignals) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for signal cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory", "redis", or "twophase"
	Type string `yaml:"type"`

	// Redis settings (Pro tier)
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// EnableTwoPhase layers a local map in front of Redis
	EnableTwoPhase bool `yaml:"enable_two_phase"`
}
