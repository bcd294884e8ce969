package app

import (
	"context"

	"github.com/pumpwatch/pumpwatch/internal/adapters/cache"
	"github.com/pumpwatch/pumpwatch/internal/logging"
)

// KeyDeleter is the slice of the cache interface invalidation needs. The
// resource caches hold different value types, so invalidation addresses them
// through this common subset.
type KeyDeleter interface {
	Delete(key string)
}

type InvalidateTags func(ctx context.Context, tags ...string) int

// BuildInvalidateTags removes every cache entry carrying any of the given
// tags from all registered caches and returns the number of removed keys.
// Unknown tags are a no-op, not an error.
func BuildInvalidateTags(index *cache.TagIndex, caches ...KeyDeleter) InvalidateTags {
	return func(ctx context.Context, tags ...string) int {
		keys := index.Keys(tags...)
		for _, key := range keys {
			for _, c := range caches {
				c.Delete(key)
			}
			index.RemoveKey(key)
		}

		logging.FromContext(ctx).Info("Invalidated cache entries", "tags", tags, "removedKeys", len(keys))
		return len(keys)
	}
}
