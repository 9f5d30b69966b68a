package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adelsaramii/verdict/internal/domain"
)

const redisKeyPrefix = "verdict:signals:"

// RedisCache implements the signal cache on Redis.
// Used as the Pro tier cache and as L2 in two-phase caching. Entries
// are stored without a TTL; the extraction contract says a text's
// signals never change, so they survive process restarts on purpose.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves cached signals from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) (domain.TextSignals, bool, error) {
	val, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return domain.TextSignals{}, false, nil
	}
	if err != nil {
		return domain.TextSignals{}, false, err
	}

	var signals domain.TextSignals
	if err := json.Unmarshal(val, &signals); err != nil {
		return domain.TextSignals{}, false, err
	}
	return signals, true, nil
}

// Set stores signals in Redis without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, signals domain.TextSignals) error {
	bytes, err := json.Marshal(signals)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, redisKeyPrefix+key, bytes, 0).Err()
}

// Ping checks Redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
