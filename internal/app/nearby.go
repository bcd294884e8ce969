package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/pumpwatch/pumpwatch/internal/domain"
)

type GetNearbyStations func(ctx context.Context, lat, lng, radiusKm float64) ([]domain.NearbyStation, error)

// BuildGetNearbyStations returns stations within radiusKm of the given point,
// closest first. Stations without coordinates are excluded from the result
// rather than treated as being at 0,0.
func BuildGetNearbyStations(getStations GetStations) GetNearbyStations {
	return func(ctx context.Context, lat, lng, radiusKm float64) ([]domain.NearbyStation, error) {
		if err := domain.ValidateCoordinates(lat, lng); err != nil {
			return nil, err
		}
		if radiusKm <= 0 {
			return nil, fmt.Errorf("%w: radius must be positive, got %f", domain.ErrInvalidFilters, radiusKm)
		}

		stations, err := getStations(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get stations for nearby search: %w", err)
		}

		nearby := []domain.NearbyStation{}
		for _, station := range stations {
			if !station.HasCoordinates() {
				continue
			}

			distance := domain.HaversineKm(lat, lng, *station.Latitude, *station.Longitude)
			if distance > radiusKm {
				continue
			}
			nearby = append(nearby, domain.NearbyStation{
				Station:    station,
				DistanceKm: distance,
			})
		}

		sort.Slice(nearby, func(i, j int) bool {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		})
		return nearby, nil
	}
}
