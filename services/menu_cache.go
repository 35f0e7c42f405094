package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kendall-kelly/chillas-api/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	publicMenuCacheKey = "menu:public"
	menuGenerationKey  = "menu:generation"
	menuCacheTTL       = 10 * time.Minute
)

// MenuCache stores the rendered public menu between catalog writes
type MenuCache interface {
	// Get unmarshals the cached value into dest and reports a hit
	Get(ctx context.Context, key string, dest interface{}) bool
	// Generation changes on every Invalidate. A negative value means the
	// generation is unknown and nothing should be stored.
	Generation(ctx context.Context) int64
	// Set stores value unless the cache was invalidated after generation was read
	Set(ctx context.Context, key string, value interface{}, generation int64) error
	Invalidate(ctx context.Context) error
}

var menuCacheInstance MenuCache = NoopMenuCache{}

// GetMenuCache returns the configured menu cache. It is never nil.
func GetMenuCache() MenuCache {
	return menuCacheInstance
}

// SetMenuCache replaces the menu cache (primarily for testing)
func SetMenuCache(cache MenuCache) {
	if cache == nil {
		cache = NoopMenuCache{}
	}
	menuCacheInstance = cache
}

// RedisMenuCache keeps menu snapshots in Redis as JSON
type RedisMenuCache struct {
	client *redis.Client
	ttl    time.Duration
}

// InitRedisMenuCache connects to Redis and installs it as the menu cache.
// On a failed ping the no-op cache stays in place and the error is returned
// so the caller can log it.
func InitRedisMenuCache(ctx context.Context, addr, password string) (MenuCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("warning: failed to close redis client: %v", closeErr)
		}
		return nil, fmt.Errorf("menu cache: redis ping: %w", err)
	}

	cache := &RedisMenuCache{client: client, ttl: menuCacheTTL}
	SetMenuCache(cache)
	return cache, nil
}

func (c *RedisMenuCache) Get(ctx context.Context, key string, dest interface{}) bool {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("menu cache get %s: %v", key, err)
		}
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues("redis").Inc()
	return true
}

func (c *RedisMenuCache) Generation(ctx context.Context) int64 {
	gen, err := c.client.Get(ctx, menuGenerationKey).Int64()
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		log.Printf("menu cache generation: %v", err)
		return -1
	}
	return gen
}

// Set writes inside a WATCH on the generation key so an Invalidate that lands
// after the menu was read from the database discards the write.
func (c *RedisMenuCache) Set(ctx context.Context, key string, value interface{}, generation int64) error {
	if generation < 0 {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, menuGenerationKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, menuGenerationKey)
	if err == redis.TxFailedErr {
		return nil
	}
	return err
}

func (c *RedisMenuCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, menuGenerationKey)
		pipe.Del(ctx, publicMenuCacheKey)
		return nil
	})
	return err
}

// NoopMenuCache never stores anything; used when Redis is not configured
type NoopMenuCache struct{}

func (NoopMenuCache) Get(context.Context, string, interface{}) bool         { return false }
func (NoopMenuCache) Generation(context.Context) int64                      { return 0 }
func (NoopMenuCache) Set(context.Context, string, interface{}, int64) error { return nil }
func (NoopMenuCache) Invalidate(context.Context) error                      { return nil }

// MockMenuCache is an in-memory MenuCache for testing
type MockMenuCache struct {
	entries       map[string][]byte
	invalidations int
	mu            sync.RWMutex
}

// NewMockMenuCache creates an empty mock cache
func NewMockMenuCache() *MockMenuCache {
	return &MockMenuCache{entries: make(map[string][]byte)}
}

// SetAsMockForTesting sets this mock as the global menu cache for testing
func (m *MockMenuCache) SetAsMockForTesting() {
	SetMenuCache(m)
}

func (m *MockMenuCache) Get(_ context.Context, key string, dest interface{}) bool {
	m.mu.RLock()
	data, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (m *MockMenuCache) Generation(context.Context) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(m.invalidations)
}

func (m *MockMenuCache) Set(_ context.Context, key string, value interface{}, generation int64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if generation != int64(m.invalidations) {
		return nil
	}
	m.entries[key] = data
	return nil
}

func (m *MockMenuCache) Invalidate(context.Context) error {
	m.mu.Lock()
	delete(m.entries, publicMenuCacheKey)
	m.invalidations++
	m.mu.Unlock()
	return nil
}

// Has reports whether key is cached (for testing assertions)
func (m *MockMenuCache) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[key]
	return ok
}

// Invalidations returns how many times the cache was invalidated
func (m *MockMenuCache) Invalidations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.invalidations
}
