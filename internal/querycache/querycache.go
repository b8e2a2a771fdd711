package querycache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/onnwee/resep-nusantara/backend/internal/logger"
	"github.com/onnwee/resep-nusantara/backend/internal/metrics"
)

// DefaultTTL is how long an entry stays fresh when no TTL is given.
const DefaultTTL = 5 * time.Minute

// DefaultFetchTimeout bounds a fetch started by GetOrFetch once it is
// detached from the caller.
const DefaultFetchTimeout = 30 * time.Second

// Entry is a cached fetch result.
type Entry struct {
	Data     any
	StoredAt time.Time
	TTL      time.Duration
	Category Category
}

// expired reports whether the entry is stale at now. An entry aged exactly TTL is still fresh.
func (e *Entry) expired(now time.Time) bool {
	return now.Sub(e.StoredAt) > e.TTL
}

// Options configures a Cache. The zero value is usable.
type Options struct {
	// Name labels metrics and logs. Defaults to "default".
	Name string
	// DefaultTTL applies to Set and to non-positive TTLs. Defaults to DefaultTTL.
	DefaultTTL time.Duration
	// MaxEntries bounds the store with LRU eviction. 0 means unbounded.
	MaxEntries int
	// Coalesce shares a single in-flight fetch between concurrent misses on a key.
	Coalesce bool
	// FetchTimeout bounds each fetch run by GetOrFetch. Defaults to DefaultFetchTimeout.
	FetchTimeout time.Duration
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// OnInvalidate is called after every explicit invalidation, outside the lock.
	OnInvalidate func(Invalidation)
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Sets          uint64 `json:"sets"`
	Expirations   uint64 `json:"expirations"`
	Evictions     uint64 `json:"evictions"`
	Invalidations uint64 `json:"invalidations"`
	Entries       int    `json:"entries"`
}

// Cache is an in-memory key/value store with per-entry TTL and lazy expiration.
// It is safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	store  store
	name   string
	ttl    time.Duration
	now    func() time.Time
	notify func(Invalidation)

	coalesce     bool
	fetchTimeout time.Duration
	sf           singleflight.Group

	stats Stats
}

// New creates a cache.
func New(opts Options) *Cache {
	c := &Cache{
		name:     opts.Name,
		ttl:      opts.DefaultTTL,
		now:      opts.Clock,
		notify:   opts.OnInvalidate,
		coalesce: opts.Coalesce,

		fetchTimeout: opts.FetchTimeout,
	}
	if c.name == "" {
		c.name = "default"
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.fetchTimeout <= 0 {
		c.fetchTimeout = DefaultFetchTimeout
	}
	if opts.MaxEntries > 0 {
		c.store = newLRUStore(opts.MaxEntries, c.onEvict)
	} else {
		c.store = newMapStore()
	}
	return c
}

// Name returns the cache's metrics label.
func (c *Cache) Name() string { return c.name }

// DefaultTTL returns the TTL used by Set.
func (c *Cache) DefaultTTL() time.Duration { return c.ttl }

// Get returns the data stored under key. An expired entry is deleted and reported absent.
func (c *Cache) Get(key string) (any, bool) {
	return c.lookup(key, nil)
}

// lookup is Get with an optional acceptance check. A fresh entry that
// accept rejects is left in place and counted as a miss.
func (c *Cache) lookup(key string, accept func(any) bool) (any, bool) {
	c.mu.Lock()
	ent, ok := c.store.get(key)
	if ok && accept != nil && !ent.expired(c.now()) && !accept(ent.Data) {
		ok = false
	}
	if !ok {
		c.stats.Misses++
		c.mu.Unlock()
		metrics.QueryCacheRequests.WithLabelValues(c.name, "miss").Inc()
		return nil, false
	}
	if ent.expired(c.now()) {
		c.store.remove(key)
		c.stats.Misses++
		c.stats.Expirations++
		c.mu.Unlock()
		metrics.QueryCacheRequests.WithLabelValues(c.name, "miss").Inc()
		metrics.QueryCacheExpirations.WithLabelValues(c.name).Inc()
		return nil, false
	}
	c.stats.Hits++
	c.mu.Unlock()
	metrics.QueryCacheRequests.WithLabelValues(c.name, "hit").Inc()
	return ent.Data, true
}

// Set stores data under key with the default TTL.
func (c *Cache) Set(key string, data any) {
	c.SetTagged(key, Classify(key), data, c.ttl)
}

// SetWithTTL stores data under key with an explicit TTL. A non-positive ttl uses the default.
func (c *Cache) SetWithTTL(key string, data any, ttl time.Duration) {
	c.SetTagged(key, Classify(key), data, ttl)
}

// SetTagged stores data under key in the given category.
func (c *Cache) SetTagged(key string, cat Category, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	ent := &Entry{Data: data, StoredAt: c.now(), TTL: ttl, Category: cat}

	c.mu.Lock()
	c.store.put(key, ent)
	c.stats.Sets++
	c.mu.Unlock()
	metrics.QueryCacheSets.WithLabelValues(c.name, string(cat)).Inc()
}

// Invalidate removes key if present and returns how many entries were removed (0 or 1).
func (c *Cache) Invalidate(key string) int {
	c.mu.Lock()
	removed := c.store.remove(key)
	c.stats.Invalidations += uint64(removed)
	c.mu.Unlock()
	c.invalidated(Invalidation{Kind: KindKey, Target: key, Removed: removed})
	return removed
}

// InvalidatePrefix removes every key that starts with prefix and returns how many were removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	removed := c.removeWhere(func(key string, _ *Entry) bool {
		return strings.HasPrefix(key, prefix)
	})
	c.invalidated(Invalidation{Kind: KindPrefix, Target: prefix, Removed: removed})
	return removed
}

// InvalidateCategory removes every entry tagged with cat.
func (c *Cache) InvalidateCategory(cat Category) int {
	removed := c.removeWhere(func(_ string, ent *Entry) bool {
		return ent.Category == cat
	})
	c.invalidated(Invalidation{Kind: KindCategory, Target: string(cat), Removed: removed})
	return removed
}

// InvalidateListCaches removes every list query result.
func (c *Cache) InvalidateListCaches() int {
	return c.InvalidateCategory(CategoryList)
}

// Clear removes all entries and returns how many were removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	removed := c.store.len()
	c.store.purge()
	c.stats.Invalidations += uint64(removed)
	c.mu.Unlock()
	c.invalidated(Invalidation{Kind: KindAll, Removed: removed})
	return removed
}

// Len returns the number of stored entries, including expired ones not yet observed.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.len()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.store.len()
	return s
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()
	removed := 0
	c.mu.Lock()
	for _, key := range c.store.keys() {
		if ent, ok := c.store.peek(key); ok && ent.expired(now) {
			removed += c.store.remove(key)
		}
	}
	c.stats.Expirations += uint64(removed)
	c.mu.Unlock()
	if removed > 0 {
		metrics.QueryCacheExpirations.WithLabelValues(c.name).Add(float64(removed))
	}
	return removed
}

// StartJanitor runs Sweep every interval until ctx is done.
func (c *Cache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	log := logger.WithComponent("querycache").With("cache", c.name)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				log.Debug("swept expired entries", "removed", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Cache) removeWhere(match func(string, *Entry) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, key := range c.store.keys() {
		if ent, ok := c.store.peek(key); ok && match(key, ent) {
			removed += c.store.remove(key)
		}
	}
	c.stats.Invalidations += uint64(removed)
	return removed
}

// onEvict runs under c.mu, from inside the LRU store.
func (c *Cache) onEvict(string, *Entry) {
	c.stats.Evictions++
	metrics.QueryCacheEvictions.WithLabelValues(c.name).Inc()
}

func (c *Cache) invalidated(inv Invalidation) {
	inv.Cache = c.name
	metrics.QueryCacheInvalidations.WithLabelValues(c.name, string(inv.Kind)).Add(float64(inv.Removed))
	if c.notify != nil {
		c.notify(inv)
	}
}
