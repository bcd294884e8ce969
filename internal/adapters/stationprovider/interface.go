package stationprovider

import (
	"context"
	"net/http"

	"github.com/pumpwatch/pumpwatch/internal/domain"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StationProvider is implemented by one adapter per upstream source. Each
// adapter performs its own upstream-to-domain transformation; no code outside
// this package branches on provider-specific field names.
type StationProvider interface {
	Name() string

	FetchAllStations(ctx context.Context) ([]domain.Station, error)
	// Raises domain.ErrStationNotFound if no station exists with the given ID.
	//
	// Raises domain.ErrTemporarilyUnavailable for errors believed to be
	// intermittent. The call may be retried later.
	FetchStationByID(ctx context.Context, id string) (*domain.Station, error)
	FetchFilteredStations(ctx context.Context, filters domain.SearchFilters) ([]domain.Station, error)
	FetchFuelPrices(ctx context.Context) ([]domain.FuelPrice, error)
}

// StationWriter is implemented by providers that accept mutations. Read-only
// sources (the open-data feed) deliberately do not implement it.
type StationWriter interface {
	CreateStation(ctx context.Context, draft domain.StationDraft) (*domain.Station, error)
	UpdateStation(ctx context.Context, id string, draft domain.StationDraft) (*domain.Station, error)
	DeleteStation(ctx context.Context, id string) error
}
