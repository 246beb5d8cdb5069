package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// cacheEntry holds a cached value with its write time. seq orders writes
// sharing a timestamp.
type cacheEntry struct {
	value     string
	timestamp time.Time
	seq       uint64
}

// MemoryCache is a thread-safe in-memory tier bounded by entry count.
// When a write pushes it past maxEntries, the oldest-written tenth of
// the capacity is evicted.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	maxEntries int
	ttl        time.Duration
	seq        uint64
	now        func() time.Time
}

// NewMemoryCache creates a memory tier. maxEntries <= 0 disables the bound and
// ttl <= 0 disables expiry.
func NewMemoryCache(maxEntries int, ttl time.Duration, opts ...Option) *MemoryCache {
	o := buildOptions(opts)
	return &MemoryCache{
		entries:    make(map[string]cacheEntry),
		maxEntries: max(maxEntries, 0),
		ttl:        max(ttl, 0),
		now:        o.now,
	}
}

// Get returns the value if present and younger than the TTL. Expired entries are removed.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}

	if c.expired(entry, c.now()) {
		c.mu.Lock()
		// re-check, a concurrent Set may have refreshed it
		if cur, ok := c.entries[key]; ok && cur.seq == entry.seq {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}

	return entry.value, true
}

// Set stores a value, evicting the oldest entries when over capacity.
func (c *MemoryCache) Set(_ context.Context, key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.entries[key] = cacheEntry{
		value:     value,
		timestamp: c.now(),
		seq:       c.seq,
	}

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictOldest((c.maxEntries + 9) / 10)
	}
	return nil
}

// evictOldest removes the n oldest-written entries. Caller holds the lock.
func (c *MemoryCache) evictOldest(n int) {
	type aged struct {
		key string
		cacheEntry
	}

	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, cacheEntry: e})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].timestamp.Equal(all[j].timestamp) {
			return all[i].timestamp.Before(all[j].timestamp)
		}
		return all[i].seq < all[j].seq
	})

	for _, e := range all[:min(n, len(all))] {
		delete(c.entries, e.key)
	}
}

func (c *MemoryCache) expired(e cacheEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.timestamp) >= c.ttl
}

// Len returns the number of entries in the cache (including expired ones).
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Entries returns all non-expired entries as key-value pairs.
func (c *MemoryCache) Entries(_ context.Context) (map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	result := make(map[string]string, len(c.entries))
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			continue
		}
		result[key] = entry.value
	}
	return result, nil
}

var _ ExportableCache = (*MemoryCache)(nil)
