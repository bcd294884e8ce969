package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/adapters/cache"
	"github.com/pumpwatch/pumpwatch/internal/adapters/stationprovider"
	"github.com/pumpwatch/pumpwatch/internal/coordinator"
	"github.com/pumpwatch/pumpwatch/internal/domain"
	"github.com/pumpwatch/pumpwatch/internal/logging"
	"github.com/pumpwatch/pumpwatch/internal/reporting"
)

// searchDebounce is the quiet period for collapsing search-triggered station
// list refreshes. Search-as-you-type frontends fire bursts of requests; only
// the trailing one should reach upstream.
const searchDebounce = 150 * time.Millisecond

type SearchStations func(ctx context.Context, filters domain.SearchFilters) ([]domain.Station, error)

// BuildSearchStations filters and sorts the cached station list. The list
// fetch is debounced; filtering happens in-process so a search never costs
// more than one upstream call regardless of how the filters vary.
func BuildSearchStations(
	coord *coordinator.Coordinator[[]domain.Station],
	tags *cache.TagIndex,
	providers *stationprovider.Manager,
	getFuelPrices GetFuelPrices,
	degradeToEmpty bool,
) SearchStations {
	return func(ctx context.Context, filters domain.SearchFilters) ([]domain.Station, error) {
		if err := filters.Validate(); err != nil {
			return nil, err
		}

		stations, err := coord.Fetch(ctx, stationsCacheKey, coordinator.Options{
			CacheTTL: stationsTTL,
			Debounce: searchDebounce,
		}, func(ctx context.Context) ([]domain.Station, error) {
			return stationprovider.FetchWithFallback(ctx, providers, true, func(ctx context.Context, provider stationprovider.StationProvider) ([]domain.Station, error) {
				return provider.FetchAllStations(ctx)
			})
		})
		if err != nil {
			if degradeToEmpty {
				logging.FromContext(ctx).Error("Degrading search results to empty after upstream failure", "error", err.Error())
				reporting.Report(ctx, err)
				return []domain.Station{}, nil
			}
			return nil, fmt.Errorf("failed to search stations: %w", err)
		}

		tags.Tag(stationsCacheKey, TagStations)

		// Price data is only needed for price-based filtering or sorting
		var cheapest map[string]float64
		if filters.MaxPrice != nil || filters.SortBy == domain.SortByPrice {
			prices, err := getFuelPrices(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get prices for search: %w", err)
			}
			cheapest = domain.CheapestPriceByStation(prices, filters.FuelType)
		}

		matched := domain.FilterStations(stations, cheapest, filters)
		domain.SortStations(matched, cheapest, filters.SortBy)
		return matched, nil
	}
}
