package cache

import "time"

// LayeredCache reads through memory into disk. The memory layer absorbs
// repeated lookups within a run; the disk layer carries entries across
// runs.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a layered cache with the given memory TTL and
// a disk layer rooted at diskDir.
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, defaultCleanupInterval),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// Get checks memory first, then disk. A disk hit is promoted into
// memory for the entry's remaining lifetime, not a fresh TTL.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}
	if val, expiresAt, found := c.disk.lookup(key); found {
		if remaining := time.Until(expiresAt); remaining > 0 {
			_ = c.memory.Set(key, val, remaining)
		}
		return val, true
	}
	return nil, false
}

// Set writes through to both layers. A disk failure leaves the memory
// entry in place, so callers degrade to per-run caching.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes the entry from both layers.
func (c *LayeredCache) Delete(key string) error {
	if err := c.memory.Delete(key); err != nil {
		return err
	}
	return c.disk.Delete(key)
}

// Clear drops both layers.
func (c *LayeredCache) Clear() error {
	if err := c.memory.Clear(); err != nil {
		return err
	}
	return c.disk.Clear()
}
