package app

import (
	"sync"
	"time"

	"github.com/creatorhub/insight/domain/query"
)

// resultCache is an advisory read-through cache for query results. Only
// fully closed date ranges are ever stored; open windows change with every
// tick of the clock and are recomputed on each call.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

func newResultCache(ttl time.Duration, max int) *resultCache {
	return &resultCache{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]cacheEntry),
	}
}

func (c *resultCache) get(key string, now time.Time) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && now.Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *resultCache) put(key string, v any, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.max > 0 && len(c.entries) >= c.max {
		c.evictOldestLocked()
	}
	c.entries[key] = cacheEntry{value: v, storedAt: now}
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// cacheable reports whether a window's result may be cached: the window
// must be explicit and fully in the past.
func (s *InsightService) cacheable(rng query.DateRange, now time.Time) bool {
	return s.cache != nil && !rng.IsZero() && !rng.To.After(now)
}

func (s *InsightService) fromCache(op, key string, rng query.DateRange, now time.Time) (any, bool) {
	if !s.cacheable(rng, now) {
		return nil, false
	}
	if v, ok := s.cache.get(key, now); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.WithLabelValues(op).Inc()
		}
		return v, true
	}
	if s.metrics != nil {
		s.metrics.CacheMisses.WithLabelValues(op).Inc()
	}
	return nil, false
}

func (s *InsightService) storeResult(key string, v any, rng query.DateRange, now time.Time) {
	if !s.cacheable(rng, now) {
		return
	}
	s.cache.put(key, v, now)
}

// rangeKey renders a window for use in cache keys.
func rangeKey(rng query.DateRange) string {
	return rng.From.UTC().Format(time.RFC3339) + "/" + rng.To.UTC().Format(time.RFC3339)
}

func (c *resultCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
