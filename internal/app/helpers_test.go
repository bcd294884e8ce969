package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pumpwatch/pumpwatch/internal/adapters/cache"
	"github.com/pumpwatch/pumpwatch/internal/adapters/stationprovider"
	"github.com/pumpwatch/pumpwatch/internal/coordinator"
	"github.com/pumpwatch/pumpwatch/internal/domain"
	"github.com/pumpwatch/pumpwatch/internal/ratelimiting"
)

func neverFire(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func newCoordinator[T any](t *testing.T) *coordinator.Coordinator[T] {
	t.Helper()

	limiter := ratelimiting.NewFixedWindowLimiter(time.Now, time.After)
	coord, stop := coordinator.New[T](cache.NewBasicCache[T](time.Now), limiter, time.Now, neverFire)
	t.Cleanup(stop)
	return coord
}

type fakeProvider struct {
	name     string
	stations []domain.Station
	prices   []domain.FuelPrice
	err      error

	mutex        sync.Mutex
	stationCalls int
	priceCalls   int
}

func (f *fakeProvider) Name() string {
	return f.name
}

func (f *fakeProvider) FetchAllStations(ctx context.Context) ([]domain.Station, error) {
	f.mutex.Lock()
	f.stationCalls++
	f.mutex.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.stations, nil
}

func (f *fakeProvider) FetchStationByID(ctx context.Context, id string) (*domain.Station, error) {
	f.mutex.Lock()
	f.stationCalls++
	f.mutex.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	for _, station := range f.stations {
		if station.ID == id {
			return &station, nil
		}
	}
	return nil, domain.ErrStationNotFound
}

func (f *fakeProvider) FetchFilteredStations(ctx context.Context, filters domain.SearchFilters) ([]domain.Station, error) {
	return f.FetchAllStations(ctx)
}

func (f *fakeProvider) FetchFuelPrices(ctx context.Context) ([]domain.FuelPrice, error) {
	f.mutex.Lock()
	f.priceCalls++
	f.mutex.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.prices, nil
}

// fakeWritableProvider additionally implements the write interface so
// Manager.Writer() hands out mutations in tests.
type fakeWritableProvider struct {
	fakeProvider

	created  []domain.StationDraft
	updated  map[string]domain.StationDraft
	deleted  []string
	writeErr error
}

func (f *fakeWritableProvider) CreateStation(ctx context.Context, draft domain.StationDraft) (*domain.Station, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.created = append(f.created, draft)
	return &domain.Station{ID: "new", Name: draft.Name}, nil
}

func (f *fakeWritableProvider) UpdateStation(ctx context.Context, id string, draft domain.StationDraft) (*domain.Station, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if f.updated == nil {
		f.updated = map[string]domain.StationDraft{}
	}
	f.updated[id] = draft
	return &domain.Station{ID: id, Name: draft.Name}, nil
}

func (f *fakeWritableProvider) DeleteStation(ctx context.Context, id string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newManager(t *testing.T, providers ...stationprovider.StationProvider) *stationprovider.Manager {
	t.Helper()

	manager, err := stationprovider.NewManager("", providers...)
	require.NoError(t, err)
	return manager
}

func coordPtr(value float64) *float64 {
	return &value
}

func testStations() []domain.Station {
	return []domain.Station{
		{
			ID:        "1",
			Name:      "Shell Richmond",
			Brand:     "Shell",
			Suburb:    "Richmond",
			Latitude:  coordPtr(-37.82),
			Longitude: coordPtr(145.00),
			FuelTypes: []string{"U91", "P98"},
			Amenities: []string{"car_wash"},
		},
		{
			ID:        "2",
			Name:      "BP Fitzroy",
			Brand:     "BP",
			Suburb:    "Fitzroy",
			Latitude:  coordPtr(-37.80),
			Longitude: coordPtr(144.98),
			FuelTypes: []string{"U91"},
		},
		{
			ID:        "3",
			Name:      "Mystery Depot",
			Brand:     "Metro",
			Suburb:    "Unknown",
			FuelTypes: []string{"E10"},
		},
	}
}

func testPrices() []domain.FuelPrice {
	return []domain.FuelPrice{
		{ID: "p1", StationID: "1", FuelType: "U91", PricePerLiter: 1.95},
		{ID: "p2", StationID: "2", FuelType: "U91", PricePerLiter: 1.85},
	}
}
