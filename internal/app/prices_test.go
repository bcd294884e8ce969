package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumpwatch/pumpwatch/internal/adapters/cache"
	"github.com/pumpwatch/pumpwatch/internal/app"
	"github.com/pumpwatch/pumpwatch/internal/domain"
	e "github.com/pumpwatch/pumpwatch/internal/errors"
)

func TestGetFuelPrices(t *testing.T) {
	t.Parallel()

	t.Run("caches the price list", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{name: "fuelapi", prices: testPrices()}
		getFuelPrices := app.BuildGetFuelPrices(newCoordinator[[]domain.FuelPrice](t), cache.NewTagIndex(), newManager(t, provider), false)

		first, err := getFuelPrices(context.Background())
		require.NoError(t, err)
		require.Len(t, first, 2)

		_, err = getFuelPrices(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, provider.priceCalls)
	})

	t.Run("refreshes are budgeted against the feed limit", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{name: "fuelapi", prices: testPrices()}
		coord := newCoordinator[[]domain.FuelPrice](t)
		tags := cache.NewTagIndex()
		getFuelPrices := app.BuildGetFuelPrices(coord, tags, newManager(t, provider), false)
		invalidate := app.BuildInvalidateTags(tags, coord)

		// Force a cache miss before every call. The 11th upstream attempt
		// inside the window must be denied.
		for i := 0; i < 10; i++ {
			_, err := getFuelPrices(context.Background())
			require.NoError(t, err)
			invalidate(context.Background(), app.TagFuelPrices)
		}

		_, err := getFuelPrices(context.Background())
		require.ErrorIs(t, err, e.RatelimitExceededError)
		assert.Equal(t, 10, provider.priceCalls, "the denied refresh must not reach upstream")
	})

	t.Run("degrades to empty in production", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{name: "fuelapi", err: errors.New("feed down")}
		getFuelPrices := app.BuildGetFuelPrices(newCoordinator[[]domain.FuelPrice](t), cache.NewTagIndex(), newManager(t, provider), true)

		prices, err := getFuelPrices(context.Background())
		require.NoError(t, err)
		assert.Empty(t, prices)
	})
}
