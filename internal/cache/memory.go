package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// defaultCleanupInterval is how often expired entries are swept from
// the in-memory layer.
const defaultCleanupInterval = 10 * time.Minute

// MemoryCache holds entries in process memory with per-entry expiry.
type MemoryCache struct {
	entries *gocache.Cache
}

// NewMemoryCache creates a memory cache whose entries expire after
// defaultTTL unless Set overrides it.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{entries: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a value.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.entries.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value for ttl. A zero ttl uses the cache default.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.entries.Set(key, value, ttl)
	return nil
}

// Delete removes a value.
func (c *MemoryCache) Delete(key string) error {
	c.entries.Delete(key)
	return nil
}

// Clear drops every entry.
func (c *MemoryCache) Clear() error {
	c.entries.Flush()
	return nil
}
