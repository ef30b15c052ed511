package telemetry

import (
	"fmt"
	"sync"
	"time"
)

// TTLCache is a small bounded cache with per-entry expiry. The engine keeps
// one for CT scrape results so repeated scans of the same domain inside an
// hour do not re-hit the log aggregator.

type CacheStats struct {
	Name    string `json:"name"`
	Size    int    `json:"size"`
	MaxSize int    `json:"max_size"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	HitRate string `json:"hit_rate"`
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

type TTLCache[V any] struct {
	mu      sync.Mutex
	name    string
	items   map[string]cacheEntry[V]
	maxSize int
	ttl     time.Duration
	hits    int64
	misses  int64
}

func NewTTLCache[V any](name string, maxSize int, ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		name:    name,
		items:   make(map[string]cacheEntry[V]),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok || time.Now().After(entry.expiresAt) {
		if ok {
			delete(c.items, key)
		}
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	return entry.value, true
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxSize {
		c.evictOldest()
	}
	c.items[key] = cacheEntry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
}

func (c *TTLCache[V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := "0%"
	if total > 0 {
		hitRate = fmt.Sprintf("%.1f%%", float64(c.hits)/float64(total)*100)
	}

	return CacheStats{
		Name:    c.name,
		Size:    len(c.items),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}

// caller holds the lock
func (c *TTLCache[V]) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for key, entry := range c.items {
		if first || entry.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.expiresAt
			first = false
		}
	}
	if !first {
		delete(c.items, oldestKey)
	}
}
