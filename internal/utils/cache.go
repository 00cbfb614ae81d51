package utils

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
)

type cacheItem[V any] struct {
	data      V
	expiresAt time.Time
}

// TTLCache is a size-bounded LRU whose entries also expire after a TTL.
type TTLCache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
	clock    clockwork.Clock
}

func NewTTLCache[V any](size int, clock clockwork.Clock) (*TTLCache[V], error) {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TTLCache[V]{lruCache: l, clock: clock}, nil
}

// Set stores data until ttl has passed.
func (c *TTLCache[V]) Set(key string, data V, ttl time.Duration) {
	c.lruCache.Add(key, cacheItem[V]{
		data:      data,
		expiresAt: c.clock.Now().Add(ttl),
	})
}

// Get returns the cached value, dropping it if expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}

	if c.clock.Now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		var zero V
		return zero, false
	}

	return val.data, true
}

// Purge drops every entry.
func (c *TTLCache[V]) Purge() {
	c.lruCache.Purge()
}
