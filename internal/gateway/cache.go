package gateway

import (
	"sync"
	"time"

	"github.com/miva-edu/mind-analytics/backend/internal/warehouse"
)

// Cache stores query results keyed by exact query text. Implementations
// decide freshness; Get must never return a stale entry.
type Cache interface {
	Get(key string) (*warehouse.ResultTable, bool)
	Put(key string, table *warehouse.ResultTable)
	Clear()
}

type cacheEntry struct {
	table    *warehouse.ResultTable
	storedAt time.Time
}

// MemoryCache is a process-wide in-memory cache with a fixed TTL. Concurrent
// renders may race on population, but all writers compute the same value for
// a given query text, so last write wins is safe.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry

	// now is swapped out in tests to drive TTL expiry.
	now func() time.Time
}

// NewMemoryCache creates an empty cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) isExpired(e cacheEntry) bool {
	return c.now().Sub(e.storedAt) >= c.ttl
}

// Get returns the cached table for key if present and fresh. Reads never
// mutate entries; an expired entry is simply reported as a miss and
// overwritten by the next Put.
func (c *MemoryCache) Get(key string) (*warehouse.ResultTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.isExpired(entry) {
		return nil, false
	}
	return entry.table, true
}

// Put stores table under key with a fresh timestamp.
func (c *MemoryCache) Put(key string, table *warehouse.ResultTable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{table: table, storedAt: c.now()}
}

// Clear drops every entry immediately. This is the administrative flush; it
// is never triggered automatically.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of stored entries, fresh or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
