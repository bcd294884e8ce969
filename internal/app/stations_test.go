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
)

func TestGetStations(t *testing.T) {
	t.Parallel()

	t.Run("caches the station list", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{name: "baserow", stations: testStations()}
		getStations := app.BuildGetStations(newCoordinator[[]domain.Station](t), cache.NewTagIndex(), newManager(t, provider), false)

		first, err := getStations(context.Background())
		require.NoError(t, err)
		require.Len(t, first, 3)

		second, err := getStations(context.Background())
		require.NoError(t, err)
		require.Len(t, second, 3)

		assert.Equal(t, 1, provider.stationCalls, "second call must hit the cache")
	})

	t.Run("falls back to the next provider", func(t *testing.T) {
		t.Parallel()

		broken := &fakeProvider{name: "baserow", err: domain.ErrTemporarilyUnavailable}
		healthy := &fakeProvider{name: "fuelapi", stations: testStations()}
		getStations := app.BuildGetStations(newCoordinator[[]domain.Station](t), cache.NewTagIndex(), newManager(t, broken, healthy), false)

		stations, err := getStations(context.Background())
		require.NoError(t, err)
		require.Len(t, stations, 3)
	})

	t.Run("degrades to empty in production", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{name: "baserow", err: errors.New("upstream down")}
		getStations := app.BuildGetStations(newCoordinator[[]domain.Station](t), cache.NewTagIndex(), newManager(t, provider), true)

		stations, err := getStations(context.Background())
		require.NoError(t, err)
		assert.Empty(t, stations)
		assert.NotNil(t, stations, "degraded result is an empty slice, not nil")
	})

	t.Run("surfaces failure outside production", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{name: "baserow", err: errors.New("upstream down")}
		getStations := app.BuildGetStations(newCoordinator[[]domain.Station](t), cache.NewTagIndex(), newManager(t, provider), false)

		_, err := getStations(context.Background())
		require.ErrorContains(t, err, "upstream down")
	})
}

func TestGetStationByID(t *testing.T) {
	t.Parallel()

	t.Run("returns and caches the station", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{name: "baserow", stations: testStations()}
		getStationByID := app.BuildGetStationByID(newCoordinator[*domain.Station](t), cache.NewTagIndex(), newManager(t, provider))

		station, err := getStationByID(context.Background(), "1")
		require.NoError(t, err)
		require.NotNil(t, station)
		assert.Equal(t, "Shell Richmond", station.Name)

		_, err = getStationByID(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, 1, provider.stationCalls)
	})

	t.Run("unknown id returns nil without error", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{name: "baserow", stations: testStations()}
		getStationByID := app.BuildGetStationByID(newCoordinator[*domain.Station](t), cache.NewTagIndex(), newManager(t, provider))

		station, err := getStationByID(context.Background(), "999")
		require.NoError(t, err)
		assert.Nil(t, station)
	})

	t.Run("not found is cached", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{name: "baserow", stations: testStations()}
		getStationByID := app.BuildGetStationByID(newCoordinator[*domain.Station](t), cache.NewTagIndex(), newManager(t, provider))

		station, err := getStationByID(context.Background(), "999")
		require.NoError(t, err)
		assert.Nil(t, station)

		station, err = getStationByID(context.Background(), "999")
		require.NoError(t, err)
		assert.Nil(t, station)

		assert.Equal(t, 1, provider.stationCalls, "repeat lookups of an unknown id must not go upstream")
	})

	t.Run("empty id is invalid", func(t *testing.T) {
		t.Parallel()

		provider := &fakeProvider{name: "baserow"}
		getStationByID := app.BuildGetStationByID(newCoordinator[*domain.Station](t), cache.NewTagIndex(), newManager(t, provider))

		_, err := getStationByID(context.Background(), "")
		require.ErrorIs(t, err, domain.ErrInvalidFilters)
	})
}
