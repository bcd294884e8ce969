package cache

import (
	"regexp"
	"time"
)

// Cache is a bounded in-memory key/value store with per-entry expiration.
//
// One instance is created per resource category at process start and shared
// for the lifetime of the process. Implementations serialize all mutations,
// so a single instance is safe for concurrent use.
type Cache[T any] interface {
	// Get returns the cached value if present and unexpired. A hit refreshes
	// the entry's recency for eviction purposes.
	Get(key string) (T, bool)
	// Set inserts or overwrites the entry and resets its timestamp. When the
	// cache is at capacity the least recently used entry is evicted first.
	Set(key string, value T, ttl time.Duration)
	Delete(key string)
	// DeletePattern removes all entries whose key matches the pattern and
	// returns the number of removed entries.
	DeletePattern(pattern *regexp.Regexp) int
	Clear()
	Len() int
	Keys() []string
}
