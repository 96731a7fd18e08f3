package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/aletheia/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// New builds a cache from configuration. Disabled caching yields a no-op
// cache so callers never have to branch. A cache directory enables the
// disk layer behind the in-memory one.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return NoopCache{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.TTL, defaultCleanupInterval)
	}
	return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
}

// Key generates a cache key from a namespace and a value such as a URL
// or query string. The namespace keeps search results and page bodies
// from colliding.
func Key(namespace, value string) string {
	hash := sha256.Sum256([]byte(value))
	return "aletheia:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// NoopCache stores nothing and never hits.
type NoopCache struct{}

func (NoopCache) Get(key string) ([]byte, bool) { return nil, false }

func (NoopCache) Set(key string, value []byte, ttl time.Duration) error { return nil }

func (NoopCache) Delete(key string) error { return nil }

func (NoopCache) Clear() error { return nil }
