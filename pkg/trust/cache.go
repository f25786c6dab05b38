package trust

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a short-lived store for registry rows. It exists only to absorb
// bursts of lookups between status re-checks; the connection pool cache is
// the single long-lived cache in the router, so entries here must expire
// within one status-recheck window.
type Cache interface {
	// Get retrieves a trust from cache by normalized code.
	Get(ctx context.Context, code string) (*Trust, bool)

	// Set stores a trust in cache with the given TTL.
	Set(ctx context.Context, code string, t *Trust, ttl time.Duration)

	// Delete removes a trust from cache.
	Delete(ctx context.Context, code string)

	// Close releases any resources held by the cache.
	Close() error
}

type memoryCacheItem struct {
	trust     *Trust
	expiresAt time.Time
}

// memoryCache is the default in-process cache with a background sweeper.
type memoryCache struct {
	mu     sync.RWMutex
	items  map[string]memoryCacheItem
	stop   chan struct{}
	done   chan struct{}
	closed bool
}

// NewMemoryCache creates an in-memory cache with periodic expiry cleanup.
func NewMemoryCache() Cache {
	c := &memoryCache{
		items: make(map[string]memoryCacheItem),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *memoryCache) Get(ctx context.Context, code string) (*Trust, bool) {
	c.mu.RLock()
	item, ok := c.items[code]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		c.Delete(ctx, code)
		return nil, false
	}
	return item.trust, true
}

func (c *memoryCache) Set(_ context.Context, code string, t *Trust, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[code] = memoryCacheItem{trust: t, expiresAt: time.Now().Add(ttl)}
}

func (c *memoryCache) Delete(_ context.Context, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, code)
}

func (c *memoryCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for code, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, code)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

func (c *memoryCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

// redisCache shares registry rows across instances of the platform, so a
// status flip observed by one instance expires everywhere at once.
type redisCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisCache creates a Redis-backed cache. The client is owned by the
// caller; Close here is a no-op on the connection.
func NewRedisCache(client redis.UniversalClient) Cache {
	return &redisCache{client: client, keyPrefix: "trust:registry:"}
}

func (c *redisCache) Get(ctx context.Context, code string) (*Trust, bool) {
	data, err := c.client.Get(ctx, c.keyPrefix+code).Bytes()
	if err != nil {
		return nil, false
	}

	var t Trust
	if err := json.Unmarshal(data, &t); err != nil {
		// Corrupt entry, drop it rather than serve garbage.
		c.client.Del(ctx, c.keyPrefix+code)
		return nil, false
	}
	return &t, true
}

func (c *redisCache) Set(ctx context.Context, code string, t *Trust, ttl time.Duration) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.keyPrefix+code, data, ttl)
}

func (c *redisCache) Delete(ctx context.Context, code string) {
	c.client.Del(ctx, c.keyPrefix+code)
}

func (c *redisCache) Close() error {
	return nil
}

// noOpCache disables registry caching; every lookup hits the system
// database. Useful in tests and single-instance deployments.
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache.
func NewNoOpCache() Cache {
	return noOpCache{}
}

func (noOpCache) Get(context.Context, string) (*Trust, bool)          { return nil, false }
func (noOpCache) Set(context.Context, string, *Trust, time.Duration) {}
func (noOpCache) Delete(context.Context, string)                     {}
func (noOpCache) Close() error                                       { return nil }
