package app

import (
	"context"
	"fmt"

	"github.com/pumpwatch/pumpwatch/internal/adapters/stationprovider"
	"github.com/pumpwatch/pumpwatch/internal/domain"
	"github.com/pumpwatch/pumpwatch/internal/logging"
)

type CreateStation func(ctx context.Context, draft domain.StationDraft) (*domain.Station, error)

type UpdateStation func(ctx context.Context, id string, draft domain.StationDraft) (*domain.Station, error)

type DeleteStation func(ctx context.Context, id string) error

// Mutations go to the active provider only and never fall back; a write
// landing on a different backend than subsequent reads would silently fork
// the dataset. Write errors are always surfaced, and affected cache tags are
// invalidated only after the write succeeded.

func validateDraftCoordinates(draft domain.StationDraft) error {
	if (draft.Latitude == nil) != (draft.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be set together", domain.ErrInvalidCoordinates)
	}
	if draft.Latitude != nil {
		return domain.ValidateCoordinates(*draft.Latitude, *draft.Longitude)
	}
	return nil
}

func BuildCreateStation(providers *stationprovider.Manager, invalidate InvalidateTags) CreateStation {
	return func(ctx context.Context, draft domain.StationDraft) (*domain.Station, error) {
		if draft.Name == "" {
			return nil, fmt.Errorf("%w: station name is required", domain.ErrInvalidFilters)
		}
		if err := validateDraftCoordinates(draft); err != nil {
			return nil, err
		}

		writer, err := providers.Writer()
		if err != nil {
			return nil, err
		}

		station, err := writer.CreateStation(ctx, draft)
		if err != nil {
			return nil, fmt.Errorf("failed to create station: %w", err)
		}

		invalidate(ctx, TagStations)

		logging.FromContext(ctx).Info("Created station", "stationId", station.ID)
		return station, nil
	}
}

func BuildUpdateStation(providers *stationprovider.Manager, invalidate InvalidateTags) UpdateStation {
	return func(ctx context.Context, id string, draft domain.StationDraft) (*domain.Station, error) {
		if id == "" {
			return nil, fmt.Errorf("%w: empty station id", domain.ErrInvalidFilters)
		}
		if err := validateDraftCoordinates(draft); err != nil {
			return nil, err
		}

		writer, err := providers.Writer()
		if err != nil {
			return nil, err
		}

		station, err := writer.UpdateStation(ctx, id, draft)
		if err != nil {
			return nil, fmt.Errorf("failed to update station %s: %w", id, err)
		}

		invalidate(ctx, TagStations, TagStationID(id))

		logging.FromContext(ctx).Info("Updated station", "stationId", id)
		return station, nil
	}
}

func BuildDeleteStation(providers *stationprovider.Manager, invalidate InvalidateTags) DeleteStation {
	return func(ctx context.Context, id string) error {
		if id == "" {
			return fmt.Errorf("%w: empty station id", domain.ErrInvalidFilters)
		}

		writer, err := providers.Writer()
		if err != nil {
			return err
		}

		if err := writer.DeleteStation(ctx, id); err != nil {
			return fmt.Errorf("failed to delete station %s: %w", id, err)
		}

		// The station's prices die with it
		invalidate(ctx, TagStations, TagStationID(id), TagFuelPrices)

		logging.FromContext(ctx).Info("Deleted station", "stationId", id)
		return nil
	}
}
