// Package cache implements the process-local read-through cache and the
// cross-process invalidation bus. The cache is an optimization only; the
// relational store remains the source of truth for every entry.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher announces an invalidated key to every other process. A nil
// Publisher makes the cache purely process-local.
type Publisher interface {
	Publish(ctx context.Context, key string) error
}

// entry is a single cached value. absent marks a confirmed-absent result:
// the store was queried and had no row, which is distinct from a miss.
type entry struct {
	value     any
	absent    bool
	expiresAt time.Time
}

// Cache is a mutex-guarded map of keys to values with per-entry expiry.
// Entries are expired lazily on Get; there is no sweeper and no size-based
// eviction, so the memory bound is the caller's key-space discipline.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry

	name      string
	publisher Publisher
	logger    *slog.Logger

	// now is the clock; tests substitute it to simulate expiry.
	now func() time.Time
}

// New creates a cache. The name labels the cache's metrics; publisher may be
// nil for caches whose keys never leave the process.
func New(name string, publisher Publisher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries:   make(map[string]entry),
		name:      name,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Set stores a value under key with an absolute expiry of ttl from now.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// SetAbsent stores a confirmed-absent marker under key, letting call sites
// skip re-querying a known-empty result until ttl elapses.
func (c *Cache) SetAbsent(key string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{absent: true, expiresAt: c.now().Add(ttl)}
}

// Get returns the value stored under key. ok reports whether the key was
// present and unexpired; absent reports a confirmed-absent hit. An entry is
// never trusted past its expiry: expired entries are deleted and reported as
// a miss regardless of invalidation delivery.
func (c *Cache) Get(key string) (value any, absent bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		cacheMisses.WithLabelValues(c.name).Inc()
		return nil, false, false
	}

	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		cacheMisses.WithLabelValues(c.name).Inc()
		return nil, false, false
	}

	if e.absent {
		cacheAbsentHits.WithLabelValues(c.name).Inc()
		return nil, true, true
	}

	cacheHits.WithLabelValues(c.name).Inc()
	return e.value, false, true
}

// Invalidate removes key locally and announces the invalidation on the bus
// so other processes evict their copies. The publish is best-effort: a
// failure is logged and the local eviction stands, bounded for remote
// processes by the entry's TTL.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.InvalidateLocal(key)

	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, key); err != nil {
		c.logger.Warn("failed to publish cache invalidation",
			slog.String("cache", c.name),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// InvalidateLocal removes key from this process only. The bus delivery path
// uses it to apply remote invalidations without re-publishing them.
func (c *Cache) InvalidateLocal(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.entries[key]; found {
		delete(c.entries, key)
		cacheInvalidations.WithLabelValues(c.name).Inc()
	}
}

// Len returns the number of live entries, counting expired ones that have
// not been lazily collected yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
