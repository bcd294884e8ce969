package cache_test

import (
	"testing"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/adapters/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagIndex(t *testing.T) {
	t.Parallel()

	t.Run("keys by tag", func(t *testing.T) {
		t.Parallel()

		index := cache.NewTagIndex()
		index.Tag("stations:all", "stations")
		index.Tag("stations:id:42", "stations", "station-42")
		index.Tag("prices:all", "fuel-prices")

		assert.ElementsMatch(t, []string{"stations:all", "stations:id:42"}, index.Keys("stations"))
		assert.ElementsMatch(t, []string{"stations:id:42"}, index.Keys("station-42"))
		assert.ElementsMatch(t, []string{"prices:all"}, index.Keys("fuel-prices"))
		assert.Empty(t, index.Keys("unknown"))
	})

	t.Run("union without duplicates", func(t *testing.T) {
		t.Parallel()

		index := cache.NewTagIndex()
		index.Tag("stations:id:42", "stations", "station-42")

		keys := index.Keys("stations", "station-42")
		require.Equal(t, []string{"stations:id:42"}, keys)
	})

	t.Run("remove key", func(t *testing.T) {
		t.Parallel()

		index := cache.NewTagIndex()
		index.Tag("stations:id:42", "stations", "station-42")
		index.RemoveKey("stations:id:42")

		assert.Empty(t, index.Keys("stations"))
		assert.Empty(t, index.Keys("station-42"))
	})

	t.Run("stays in sync as eviction callback", func(t *testing.T) {
		t.Parallel()

		index := cache.NewTagIndex()
		c, stop := cache.NewTTLCache[string](time.Minute, 2, index.RemoveKey)
		defer stop()

		c.Set("stations:id:1", "v", 0)
		index.Tag("stations:id:1", "stations")
		c.Set("stations:id:2", "v", 0)
		index.Tag("stations:id:2", "stations")
		c.Set("stations:id:3", "v", 0)
		index.Tag("stations:id:3", "stations")

		assert.ElementsMatch(t, []string{"stations:id:2", "stations:id:3"}, index.Keys("stations"))
	})
}
