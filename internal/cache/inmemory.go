package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// InMemoryCache is a Cache backed by patrickmn/go-cache.
type InMemoryCache struct {
	store *gocache.Cache
}

var (
	inMemoryInstance *InMemoryCache
	inMemoryOnce     sync.Once
)

// InitializeInMemoryCache initializes the singleton in-memory cache.
func InitializeInMemoryCache() {
	inMemoryOnce.Do(func() {
		inMemoryInstance = &InMemoryCache{
			store: gocache.New(ExpiryDefaultInMemory, ExpiryCleanupInterval),
		}
	})
}

// GetInMemoryCache returns the singleton in-memory cache.
func GetInMemoryCache() *InMemoryCache {
	if inMemoryInstance == nil {
		InitializeInMemoryCache()
	}
	return inMemoryInstance
}

func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = ExpiryDefaultInMemory
	}
	c.store.Set(key, value, ttl)
}

func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.store.Delete(key)
}

func (c *InMemoryCache) Flush(_ context.Context) {
	c.store.Flush()
}
