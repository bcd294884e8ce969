package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/adapters/cache"
	"github.com/pumpwatch/pumpwatch/internal/adapters/stationprovider"
	"github.com/pumpwatch/pumpwatch/internal/coordinator"
	"github.com/pumpwatch/pumpwatch/internal/domain"
	"github.com/pumpwatch/pumpwatch/internal/logging"
	"github.com/pumpwatch/pumpwatch/internal/reporting"
)

const (
	stationsCacheKey = "stations:all"
	stationsTTL      = 1 * time.Hour

	stationByIDTTL = 30 * time.Minute

	// Tags group cache keys for invalidation after mutations.
	TagStations   = "stations"
	TagFuelPrices = "fuel-prices"
)

func stationByIDCacheKey(id string) string {
	return "stations:id:" + id
}

// TagStationID tags a single station's cache entry so a mutation of that
// station does not have to flush every per-station key.
func TagStationID(id string) string {
	return "station-" + id
}

type GetStations func(ctx context.Context) ([]domain.Station, error)

type GetStationByID func(ctx context.Context, id string) (*domain.Station, error)

// BuildGetStations returns the full station list, cached for an hour. With
// degradeToEmpty set (production), a total upstream failure yields an empty
// list instead of an error so the site keeps rendering; the failure is still
// logged and reported.
func BuildGetStations(
	coord *coordinator.Coordinator[[]domain.Station],
	tags *cache.TagIndex,
	providers *stationprovider.Manager,
	degradeToEmpty bool,
) GetStations {
	return func(ctx context.Context) ([]domain.Station, error) {
		stations, err := coord.Fetch(ctx, stationsCacheKey, coordinator.Options{
			CacheTTL: stationsTTL,
		}, func(ctx context.Context) ([]domain.Station, error) {
			return stationprovider.FetchWithFallback(ctx, providers, true, func(ctx context.Context, provider stationprovider.StationProvider) ([]domain.Station, error) {
				return provider.FetchAllStations(ctx)
			})
		})
		if err != nil {
			if degradeToEmpty {
				logging.FromContext(ctx).Error("Degrading station list to empty after upstream failure", "error", err.Error())
				reporting.Report(ctx, err)
				return []domain.Station{}, nil
			}
			return nil, fmt.Errorf("failed to get stations: %w", err)
		}

		tags.Tag(stationsCacheKey, TagStations)
		return stations, nil
	}
}

// BuildGetStationByID returns a single station, cached for 30 minutes. An
// unknown id returns (nil, nil); missing data is an answer, not a failure,
// and is cached for the same TTL.
func BuildGetStationByID(
	coord *coordinator.Coordinator[*domain.Station],
	tags *cache.TagIndex,
	providers *stationprovider.Manager,
) GetStationByID {
	return func(ctx context.Context, id string) (*domain.Station, error) {
		if id == "" {
			return nil, fmt.Errorf("%w: empty station id", domain.ErrInvalidFilters)
		}

		key := stationByIDCacheKey(id)
		station, err := coord.Fetch(ctx, key, coordinator.Options{
			CacheTTL: stationByIDTTL,
		}, func(ctx context.Context) (*domain.Station, error) {
			station, err := stationprovider.FetchWithFallback(ctx, providers, true, func(ctx context.Context, provider stationprovider.StationProvider) (*domain.Station, error) {
				return provider.FetchStationByID(ctx, id)
			})
			if errors.Is(err, domain.ErrStationNotFound) {
				// Not found is an answer, cached like any other so repeat
				// lookups of an unknown id do not go upstream for the TTL.
				return nil, nil
			}
			return station, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get station %s: %w", id, err)
		}

		tags.Tag(key, TagStations, TagStationID(id))
		return station, nil
	}
}
