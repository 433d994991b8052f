package cache

import (
	"github.com/loopcart/loopcart/internal/config"
	"github.com/loopcart/loopcart/internal/logger"
)

// CacheType represents the type of cache to use
type CacheType string

const (
	// CacheTypeInMemory represents an in-memory cache
	CacheTypeInMemory CacheType = "inmemory"
)

// Initialize initializes the cache system based on the specified type
func Initialize(cfg *config.Configuration, log *logger.Logger) Cache {
	log.Infow("initializing cache system", "type", cfg.Cache.Type)

	// Only the in-memory backend is supported; unknown types fall back to it.
	InitializeInMemoryCache()
	cache := GetInMemoryCache()

	log.Infow("cache system initialized", "type", cfg.Cache.Type)
	return cache
}
