package geocoding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/walkplan/walkplan/pkg/polyline"
)

// Cache stores reverse-geocoded names keyed by quantized coordinate.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, name string, ttl time.Duration) error
}

// cacheKey quantizes a point to four decimals (about 11 m).
func cacheKey(p polyline.Coordinate) string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon)
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a Redis cache; keys are namespaced under prefix.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "walkplan:revgeo:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Get returns the cached name for key.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	name, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return name, true, nil
}

// Set stores name under key for ttl.
func (c *RedisCache) Set(ctx context.Context, key, name string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, name, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// MemoryCache is a process-local Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	name      string
	expiresAt time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns the cached name for key if it has not expired.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.name, true, nil
}

// Set stores name under key for ttl.
func (c *MemoryCache) Set(_ context.Context, key, name string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = memoryEntry{name: name, expiresAt: c.now().Add(ttl)}
	return nil
}
