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

const (
	pricesCacheKey = "prices:all"
	pricesTTL      = 5 * time.Minute

	// Published request budget of the open-data feed. The coordinator
	// enforces it across every code path that refreshes prices.
	fuelAPIEndpoint       = "fuelapi"
	fuelAPIEndpointLimit  = 10
	fuelAPIEndpointWindow = 60 * time.Second
)

type GetFuelPrices func(ctx context.Context) ([]domain.FuelPrice, error)

// BuildGetFuelPrices returns all current fuel prices, cached for five
// minutes. Refreshes are budgeted against the price feed's published rate
// limit; a denied refresh fails fast rather than queueing request handlers
// behind the reset.
func BuildGetFuelPrices(
	coord *coordinator.Coordinator[[]domain.FuelPrice],
	tags *cache.TagIndex,
	providers *stationprovider.Manager,
	degradeToEmpty bool,
) GetFuelPrices {
	return func(ctx context.Context) ([]domain.FuelPrice, error) {
		prices, err := coord.Fetch(ctx, pricesCacheKey, coordinator.Options{
			CacheTTL:       pricesTTL,
			Endpoint:       fuelAPIEndpoint,
			EndpointLimit:  fuelAPIEndpointLimit,
			EndpointWindow: fuelAPIEndpointWindow,
		}, func(ctx context.Context) ([]domain.FuelPrice, error) {
			return stationprovider.FetchWithFallback(ctx, providers, true, func(ctx context.Context, provider stationprovider.StationProvider) ([]domain.FuelPrice, error) {
				return provider.FetchFuelPrices(ctx)
			})
		})
		if err != nil {
			if degradeToEmpty {
				logging.FromContext(ctx).Error("Degrading price list to empty after upstream failure", "error", err.Error())
				reporting.Report(ctx, err)
				return []domain.FuelPrice{}, nil
			}
			return nil, fmt.Errorf("failed to get fuel prices: %w", err)
		}

		tags.Tag(pricesCacheKey, TagFuelPrices)
		return prices, nil
	}
}
