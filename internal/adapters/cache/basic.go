package cache

import (
	"regexp"
	"sync"
	"time"
)

type basicCacheEntry[T any] struct {
	value    T
	storedAt time.Time
	ttl      time.Duration
}

func (e basicCacheEntry[T]) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.storedAt) > e.ttl
}

// basicCache is an unbounded map-backed Cache with an injectable clock.
// It exists for tests that need deterministic expiry; production code uses
// NewTTLCache.
type basicCache[T any] struct {
	cache     map[string]basicCacheEntry[T]
	cacheLock sync.Mutex
	nowFunc   func() time.Time
}

func (c *basicCache[T]) Get(key string) (T, bool) {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		var empty T
		return empty, false
	}

	if entry.expired(c.nowFunc()) {
		delete(c.cache, key)
		var empty T
		return empty, false
	}

	return entry.value, true
}

func (c *basicCache[T]) Set(key string, value T, ttl time.Duration) {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	c.cache[key] = basicCacheEntry[T]{value: value, storedAt: c.nowFunc(), ttl: ttl}
}

func (c *basicCache[T]) Delete(key string) {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	delete(c.cache, key)
}

func (c *basicCache[T]) DeletePattern(pattern *regexp.Regexp) int {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	deleted := 0
	for key := range c.cache {
		if pattern.MatchString(key) {
			delete(c.cache, key)
			deleted++
		}
	}
	return deleted
}

func (c *basicCache[T]) Clear() {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	c.cache = make(map[string]basicCacheEntry[T])
}

func (c *basicCache[T]) Len() int {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	return len(c.cache)
}

func (c *basicCache[T]) Keys() []string {
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()

	keys := make([]string, 0, len(c.cache))
	for key := range c.cache {
		keys = append(keys, key)
	}
	return keys
}

func NewBasicCache[T any](nowFunc func() time.Time) Cache[T] {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &basicCache[T]{
		cache:   make(map[string]basicCacheEntry[T]),
		nowFunc: nowFunc,
	}
}
