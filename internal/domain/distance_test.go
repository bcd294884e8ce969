package domain_test

import (
	"testing"

	"github.com/pumpwatch/pumpwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineKm(t *testing.T) {
	t.Parallel()

	t.Run("zero distance", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0, domain.HaversineKm(-37.8136, 144.9631, -37.8136, 144.9631), 1e-9)
	})

	t.Run("melbourne to sydney", func(t *testing.T) {
		t.Parallel()
		// Melbourne CBD to Sydney CBD is roughly 714 km
		d := domain.HaversineKm(-37.8136, 144.9631, -33.8688, 151.2093)
		assert.InDelta(t, 714, d, 5)
	})

	t.Run("symmetric", func(t *testing.T) {
		t.Parallel()
		forward := domain.HaversineKm(-37.8, 144.9, -33.8, 151.2)
		backward := domain.HaversineKm(-33.8, 151.2, -37.8, 144.9)
		assert.InDelta(t, forward, backward, 1e-9)
	})

	t.Run("short distance", func(t *testing.T) {
		t.Parallel()
		// Approx 1.11 km per 0.01 degrees of latitude
		d := domain.HaversineKm(-37.80, 144.96, -37.81, 144.96)
		assert.InDelta(t, 1.11, d, 0.02)
	})
}

func TestValidateCoordinates(t *testing.T) {
	t.Parallel()

	require.NoError(t, domain.ValidateCoordinates(-37.8, 144.9))
	require.NoError(t, domain.ValidateCoordinates(90, 180))
	require.NoError(t, domain.ValidateCoordinates(-90, -180))

	require.ErrorIs(t, domain.ValidateCoordinates(91, 0), domain.ErrInvalidCoordinates)
	require.ErrorIs(t, domain.ValidateCoordinates(-91, 0), domain.ErrInvalidCoordinates)
	require.ErrorIs(t, domain.ValidateCoordinates(0, 181), domain.ErrInvalidCoordinates)
	require.ErrorIs(t, domain.ValidateCoordinates(0, -181), domain.ErrInvalidCoordinates)
}

func TestSearchFiltersValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, domain.SearchFilters{}.Validate())
	require.NoError(t, domain.SearchFilters{SortBy: domain.SortByPrice}.Validate())

	require.ErrorIs(t, domain.SearchFilters{SortBy: "distance"}.Validate(), domain.ErrInvalidFilters)

	negative := -1.0
	require.ErrorIs(t, domain.SearchFilters{MaxPrice: &negative}.Validate(), domain.ErrInvalidFilters)
}
