package cache

import (
	"context"
	"regexp"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type ttlCache[T any] struct {
	cache *ttlcache.Cache[string, T]
}

func (c *ttlCache[T]) Get(key string) (T, bool) {
	item := c.cache.Get(key)
	if item == nil {
		var empty T
		return empty, false
	}
	return item.Value(), true
}

func (c *ttlCache[T]) Set(key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	c.cache.Set(key, value, ttl)
}

func (c *ttlCache[T]) Delete(key string) {
	c.cache.Delete(key)
}

func (c *ttlCache[T]) DeletePattern(pattern *regexp.Regexp) int {
	deleted := 0
	for _, key := range c.cache.Keys() {
		if pattern.MatchString(key) {
			c.cache.Delete(key)
			deleted++
		}
	}
	return deleted
}

func (c *ttlCache[T]) Clear() {
	c.cache.DeleteAll()
}

func (c *ttlCache[T]) Len() int {
	return c.cache.Len()
}

func (c *ttlCache[T]) Keys() []string {
	return c.cache.Keys()
}

// NewTTLCache creates a bounded LRU cache with the given default TTL.
//
// Hits refresh recency without extending the TTL, so a value is served for at
// most its TTL no matter how often it is read. onEvict, if non-nil, is called
// for every removed key (expiry, capacity eviction, and explicit deletes) and
// is used to keep the tag index in sync.
//
// The returned stop function halts the background expiration loop.
func NewTTLCache[T any](ttl time.Duration, capacity uint64, onEvict func(key string)) (Cache[T], func()) {
	ttlCacheImpl := ttlcache.New[string, T](
		ttlcache.WithTTL[string, T](ttl),
		ttlcache.WithCapacity[string, T](capacity),
		ttlcache.WithDisableTouchOnHit[string, T](),
	)

	if onEvict != nil {
		ttlCacheImpl.OnEviction(func(ctx context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, T]) {
			onEvict(item.Key())
		})
	}

	go ttlCacheImpl.Start()

	return &ttlCache[T]{cache: ttlCacheImpl}, ttlCacheImpl.Stop
}
