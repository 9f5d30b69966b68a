// Package cache provides signal cache implementations for Verdict.
package cache

import (
	"context"
	"sync"

	"github.com/adelsaramii/verdict/internal/domain"
)

// MemoryCache is a thread-safe in-process signal cache.
// Used as the Community tier cache and as L1 in two-phase caching.
// Entries are write-once facts about a piece of text, so the map grows
// unbounded and nothing is ever evicted or expired.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]domain.TextSignals
	hits    int64
	misses  int64
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]domain.TextSignals),
	}
}

// Get retrieves cached signals.
func (c *MemoryCache) Get(ctx context.Context, key string) (domain.TextSignals, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	signals, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return signals, ok, nil
}

// Set stores signals for a key. Concurrent first writes for the same
// key may race; last writer wins, which is fine because identical text
// converges to identical signals.
func (c *MemoryCache) Set(ctx context.Context, key string, signals domain.TextSignals) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = signals
	return nil
}

// Ping checks cache health.
func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Close cleans up the cache.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]domain.TextSignals)
	return nil
}

// Stats returns entry count plus hit and miss counters.
func (c *MemoryCache) Stats() (size int, hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), c.hits, c.misses
}
