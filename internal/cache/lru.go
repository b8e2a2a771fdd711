package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// LRUCache is a size-bounded cache implementation using ristretto.
type LRUCache struct {
	cache      *ristretto.Cache
	defaultTTL time.Duration
	now        func() time.Time
}

// cacheItem wraps the body with its timestamps.
type cacheItem struct {
	body      []byte
	storedAt  time.Time
	expiresAt time.Time
}

// NewLRU creates a new LRU cache with the given configuration.
// maxSizeMB is the maximum size of the cache in megabytes.
// maxEntries is the expected number of entries, used to size the admission counters.
// defaultTTL is the default time-to-live for cache entries.
func NewLRU(maxSizeMB int64, maxEntries int64, defaultTTL time.Duration) (*LRUCache, error) {
	// NumCounters should be ~10x the number of entries for optimal performance
	numCounters := maxEntries * 10
	if numCounters < 1000 {
		numCounters = 1000
	}
	maxCost := maxSizeMB * 1024 * 1024
	if maxCost <= 0 {
		maxCost = 1024 * 1024
	}

	config := &ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64, // Number of keys per Get buffer
		Metrics:     true,
	}

	cache, err := ristretto.NewCache(config)
	if err != nil {
		return nil, err
	}

	return &LRUCache{
		cache:      cache,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Get retrieves an item from the cache by key.
func (c *LRUCache) Get(key string) (Item, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return Item{}, false
	}

	item, ok := val.(*cacheItem)
	if !ok {
		// Invalid item type, delete it
		c.cache.Del(key)
		return Item{}, false
	}

	if c.now().After(item.expiresAt) {
		c.cache.Del(key)
		return Item{}, false
	}

	return Item{Body: item.body, StoredAt: item.storedAt}, true
}

// Set stores a body in the cache with the given key and TTL.
func (c *LRUCache) Set(key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	now := c.now()
	item := &cacheItem{
		body:      body,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}

	// Set returns false when the item is dropped by admission; ristretto handles eviction internally
	_ = c.cache.SetWithTTL(key, item, int64(len(body)), ttl)

	// Wait for value to pass through buffers so an immediate Get observes it
	c.cache.Wait()
}

// Delete removes an item from the cache.
func (c *LRUCache) Delete(key string) {
	c.cache.Del(key)
}

// Clear removes all items from the cache.
func (c *LRUCache) Clear() {
	c.cache.Clear()
}

// Stats returns cache statistics.
func (c *LRUCache) Stats() Stats {
	metrics := c.cache.Metrics

	return Stats{
		Hits:      metrics.Hits(),
		Misses:    metrics.Misses(),
		KeysAdded: metrics.KeysAdded(),
		Evictions: metrics.KeysEvicted(),
		Size:      int64(metrics.CostAdded() - metrics.CostEvicted()), // Approximate current size
		Items:     int64(metrics.KeysAdded() - metrics.KeysEvicted()),
	}
}

// Close closes the cache and releases resources.
func (c *LRUCache) Close() {
	c.cache.Close()
}
