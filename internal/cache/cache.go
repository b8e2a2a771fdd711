// Package cache stores raw upstream response bodies so a failed network
// request can fall back to the last good answer.
package cache

import "time"

// Item is a stored response body.
type Item struct {
	Body     []byte
	StoredAt time.Time
}

// Age reports how old the item is at now.
func (i Item) Age(now time.Time) time.Duration {
	return now.Sub(i.StoredAt)
}

// Cache defines the interface for caching serialized responses with TTL.
type Cache interface {
	// Get retrieves an item from the cache by key.
	// Returns the item and true if found and not expired.
	Get(key string) (Item, bool)

	// Set stores a body in the cache with the given key and TTL.
	// TTL of 0 means use the default cache TTL.
	Set(key string, body []byte, ttl time.Duration)

	// Delete removes an item from the cache.
	Delete(key string)

	// Clear removes all items from the cache.
	Clear()

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats represents cache statistics.
type Stats struct {
	Hits      uint64 `json:"hits"`       // Total cache hits
	Misses    uint64 `json:"misses"`     // Total cache misses
	KeysAdded uint64 `json:"keys_added"` // Total keys added
	Evictions uint64 `json:"evictions"`  // Total evictions
	Size      int64  `json:"size_bytes"` // Approximate size in bytes
	Items     int64  `json:"items"`      // Current number of items
}
