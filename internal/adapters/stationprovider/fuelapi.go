package stationprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/domain"
	"github.com/pumpwatch/pumpwatch/internal/logging"
	"github.com/pumpwatch/pumpwatch/internal/reporting"
)

const fuelAPIProviderName = "fuelapi"

// fuelAPIDateLayout is the timestamp format used by the open-data feed.
const fuelAPIDateLayout = "02/01/2006 15:04:05"

// fuelAPIProvider reads the government open-data fuel price feed. The feed is
// read-only and subject to a published limit of 10 requests per 60 seconds;
// the request coordinator enforces that budget under the endpoint key
// "fuelapi".
type fuelAPIProvider struct {
	httpClient HttpClient
	baseURL    string
}

func NewFuelAPI(httpClient HttpClient, baseURL string) *fuelAPIProvider {
	return &fuelAPIProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

func (f *fuelAPIProvider) Name() string {
	return fuelAPIProviderName
}

type fuelAPIFeed struct {
	Stations []fuelAPIStation `json:"stations"`
	Prices   []fuelAPIPrice   `json:"prices"`
}

type fuelAPIStation struct {
	Code      string           `json:"code"`
	Name      string           `json:"name"`
	Brand     string           `json:"brand"`
	Address   string           `json:"address"`
	Suburb    string           `json:"suburb"`
	Postcode  string           `json:"postcode"`
	Location  *fuelAPILocation `json:"location"`
	FuelTypes []string         `json:"fueltypes"`
	Amenities []string         `json:"amenities"`
}

type fuelAPILocation struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type fuelAPIPrice struct {
	StationCode string  `json:"stationcode"`
	FuelType    string  `json:"fueltype"`
	Price       float64 `json:"price"`
	LastUpdated string  `json:"lastupdated"`
}

func (s fuelAPIStation) toDomain() domain.Station {
	station := domain.Station{
		ID:        s.Code,
		Name:      s.Name,
		Brand:     s.Brand,
		Address:   s.Address,
		Suburb:    s.Suburb,
		Postcode:  s.Postcode,
		FuelTypes: s.FuelTypes,
		Amenities: s.Amenities,
	}

	// A missing location block or missing fields inside it both mean
	// "no coordinates". Nil is preserved all the way to the caller.
	if s.Location != nil {
		station.Latitude = s.Location.Latitude
		station.Longitude = s.Location.Longitude
	}

	return station
}

func (p fuelAPIPrice) toDomain() domain.FuelPrice {
	var lastUpdated time.Time
	if parsed, err := time.Parse(fuelAPIDateLayout, p.LastUpdated); err == nil {
		lastUpdated = parsed
	}

	return domain.FuelPrice{
		ID:            p.StationCode + ":" + p.FuelType,
		StationID:     p.StationCode,
		FuelType:      p.FuelType,
		// The feed publishes cents per liter
		PricePerLiter: p.Price / 100,
		LastUpdated:   lastUpdated,
	}
}

func (f *fuelAPIProvider) FetchAllStations(ctx context.Context) ([]domain.Station, error) {
	feed, err := f.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	stations := make([]domain.Station, 0, len(feed.Stations))
	for _, station := range feed.Stations {
		stations = append(stations, station.toDomain())
	}
	return stations, nil
}

func (f *fuelAPIProvider) FetchStationByID(ctx context.Context, id string) (*domain.Station, error) {
	feed, err := f.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	for _, station := range feed.Stations {
		if station.Code == id {
			domainStation := station.toDomain()
			return &domainStation, nil
		}
	}
	return nil, fmt.Errorf("%w: id %q", domain.ErrStationNotFound, id)
}

func (f *fuelAPIProvider) FetchFilteredStations(ctx context.Context, filters domain.SearchFilters) ([]domain.Station, error) {
	feed, err := f.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	stations := make([]domain.Station, 0, len(feed.Stations))
	for _, station := range feed.Stations {
		stations = append(stations, station.toDomain())
	}

	prices := make([]domain.FuelPrice, 0, len(feed.Prices))
	for _, price := range feed.Prices {
		prices = append(prices, price.toDomain())
	}

	cheapest := domain.CheapestPriceByStation(prices, filters.FuelType)
	matched := domain.FilterStations(stations, cheapest, filters)
	domain.SortStations(matched, cheapest, filters.SortBy)
	return matched, nil
}

func (f *fuelAPIProvider) FetchFuelPrices(ctx context.Context) ([]domain.FuelPrice, error) {
	feed, err := f.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	prices := make([]domain.FuelPrice, 0, len(feed.Prices))
	for _, price := range feed.Prices {
		prices = append(prices, price.toDomain())
	}
	return prices, nil
}

func (f *fuelAPIProvider) fetchFeed(ctx context.Context) (*fuelAPIFeed, error) {
	logger := logging.FromContext(ctx)
	url := f.baseURL + "/fuel/prices"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	start := time.Now()
	resp, err := doWithRetry(f.httpClient, req)
	if err != nil {
		err := fmt.Errorf("%w: failed to send request: %w", domain.ErrTemporarilyUnavailable, err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return nil, err
	}
	defer resp.Body.Close()

	logger.Info("fuelapi request completed", "url", url, "status", resp.StatusCode, "duration", time.Since(start).String())

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: upstream returned status %d", domain.ErrTemporarilyUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	var feed fuelAPIFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		err := fmt.Errorf("failed to decode feed: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}
	return &feed, nil
}
