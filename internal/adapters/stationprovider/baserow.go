package stationprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pumpwatch/pumpwatch/internal/domain"
	"github.com/pumpwatch/pumpwatch/internal/logging"
	"github.com/pumpwatch/pumpwatch/internal/reporting"
)

const baserowProviderName = "baserow"

// baserowProvider reads and writes station data through a hosted tabular
// database's table-rows API. The upstream column names ("Station Name",
// "Postal Code", ...) are mapped to domain records here and nowhere else.
type baserowProvider struct {
	httpClient HttpClient
	baseURL    string
	token      string
}

func NewBaserow(httpClient HttpClient, baseURL, token string) *baserowProvider {
	return &baserowProvider{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
	}
}

func (b *baserowProvider) Name() string {
	return baserowProviderName
}

type baserowStationRow struct {
	ID        int64   `json:"id"`
	Name      string  `json:"Station Name"`
	Brand     string  `json:"Brand"`
	Address   string  `json:"Street Address"`
	Suburb    string  `json:"Suburb"`
	Postcode  string  `json:"Postal Code"`
	Latitude  *string `json:"Latitude"`
	Longitude *string `json:"Longitude"`
	FuelTypes string  `json:"Fuel Types"`
	Amenities string  `json:"Amenities"`
	UpdatedAt string  `json:"Last Updated"`
}

type baserowPriceRow struct {
	ID        int64   `json:"id"`
	StationID int64   `json:"Station"`
	FuelType  string  `json:"Fuel Type"`
	Price     *string `json:"Price Per Liter"`
	UpdatedAt string  `json:"Last Updated"`
}

func (row baserowStationRow) toDomain(ctx context.Context) domain.Station {
	logger := logging.FromContext(ctx)

	parseCoordinate := func(raw *string, name string) *float64 {
		if raw == nil || *raw == "" {
			// Missing coordinates stay nil. Never default to 0,0; that is a
			// valid ocean coordinate and would corrupt distance results.
			return nil
		}
		value, err := strconv.ParseFloat(*raw, 64)
		if err != nil {
			logger.Warn("Discarding malformed coordinate", "field", name, "value", *raw, "rowId", row.ID)
			return nil
		}
		return &value
	}

	var updatedAt time.Time
	if row.UpdatedAt != "" {
		parsed, err := time.Parse(time.RFC3339, row.UpdatedAt)
		if err != nil {
			logger.Warn("Discarding malformed timestamp", "value", row.UpdatedAt, "rowId", row.ID)
		} else {
			updatedAt = parsed
		}
	}

	return domain.Station{
		ID:        strconv.FormatInt(row.ID, 10),
		Name:      row.Name,
		Brand:     row.Brand,
		Address:   row.Address,
		Suburb:    row.Suburb,
		Postcode:  row.Postcode,
		Latitude:  parseCoordinate(row.Latitude, "Latitude"),
		Longitude: parseCoordinate(row.Longitude, "Longitude"),
		FuelTypes: splitList(row.FuelTypes),
		Amenities: splitList(row.Amenities),
		UpdatedAt: updatedAt,
	}
}

func (row baserowPriceRow) toDomain(ctx context.Context) (domain.FuelPrice, error) {
	if row.Price == nil {
		return domain.FuelPrice{}, fmt.Errorf("price row %d has no price", row.ID)
	}
	price, err := strconv.ParseFloat(*row.Price, 64)
	if err != nil {
		return domain.FuelPrice{}, fmt.Errorf("price row %d has malformed price %q: %w", row.ID, *row.Price, err)
	}

	var lastUpdated time.Time
	if row.UpdatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, row.UpdatedAt); err == nil {
			lastUpdated = parsed
		}
	}

	return domain.FuelPrice{
		ID:            strconv.FormatInt(row.ID, 10),
		StationID:     strconv.FormatInt(row.StationID, 10),
		FuelType:      row.FuelType,
		PricePerLiter: price,
		LastUpdated:   lastUpdated,
	}, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func (b *baserowProvider) FetchAllStations(ctx context.Context) ([]domain.Station, error) {
	var response struct {
		Results []baserowStationRow `json:"results"`
	}
	if err := b.get(ctx, "/rows/stations/?user_field_names=true", &response); err != nil {
		return nil, fmt.Errorf("failed to fetch stations: %w", err)
	}

	stations := make([]domain.Station, 0, len(response.Results))
	for _, row := range response.Results {
		stations = append(stations, row.toDomain(ctx))
	}
	return stations, nil
}

func (b *baserowProvider) FetchStationByID(ctx context.Context, id string) (*domain.Station, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: id %q", domain.ErrStationNotFound, id)
	}

	var row baserowStationRow
	if err := b.get(ctx, fmt.Sprintf("/rows/stations/%s/?user_field_names=true", id), &row); err != nil {
		return nil, fmt.Errorf("failed to fetch station %s: %w", id, err)
	}

	station := row.toDomain(ctx)
	return &station, nil
}

func (b *baserowProvider) FetchFilteredStations(ctx context.Context, filters domain.SearchFilters) ([]domain.Station, error) {
	stations, err := b.FetchAllStations(ctx)
	if err != nil {
		return nil, err
	}

	var cheapest map[string]float64
	if filters.MaxPrice != nil || filters.SortBy == domain.SortByPrice {
		prices, err := b.FetchFuelPrices(ctx)
		if err != nil {
			return nil, err
		}
		cheapest = domain.CheapestPriceByStation(prices, filters.FuelType)
	}

	matched := domain.FilterStations(stations, cheapest, filters)
	domain.SortStations(matched, cheapest, filters.SortBy)
	return matched, nil
}

func (b *baserowProvider) FetchFuelPrices(ctx context.Context) ([]domain.FuelPrice, error) {
	var response struct {
		Results []baserowPriceRow `json:"results"`
	}
	if err := b.get(ctx, "/rows/fuel-prices/?user_field_names=true", &response); err != nil {
		return nil, fmt.Errorf("failed to fetch fuel prices: %w", err)
	}

	prices := make([]domain.FuelPrice, 0, len(response.Results))
	for _, row := range response.Results {
		price, err := row.toDomain(ctx)
		if err != nil {
			// A single bad row must not take down the whole feed
			reporting.Report(ctx, err)
			continue
		}
		prices = append(prices, price)
	}
	return prices, nil
}

func (b *baserowProvider) CreateStation(ctx context.Context, draft domain.StationDraft) (*domain.Station, error) {
	var row baserowStationRow
	if err := b.send(ctx, http.MethodPost, "/rows/stations/?user_field_names=true", draftToPayload(draft), &row); err != nil {
		return nil, fmt.Errorf("failed to create station: %w", err)
	}

	station := row.toDomain(ctx)
	return &station, nil
}

func (b *baserowProvider) UpdateStation(ctx context.Context, id string, draft domain.StationDraft) (*domain.Station, error) {
	var row baserowStationRow
	if err := b.send(ctx, http.MethodPatch, fmt.Sprintf("/rows/stations/%s/?user_field_names=true", id), draftToPayload(draft), &row); err != nil {
		return nil, fmt.Errorf("failed to update station %s: %w", id, err)
	}

	station := row.toDomain(ctx)
	return &station, nil
}

func (b *baserowProvider) DeleteStation(ctx context.Context, id string) error {
	if err := b.send(ctx, http.MethodDelete, fmt.Sprintf("/rows/stations/%s/", id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete station %s: %w", id, err)
	}
	return nil
}

func draftToPayload(draft domain.StationDraft) map[string]any {
	payload := map[string]any{}
	if draft.Name != "" {
		payload["Station Name"] = draft.Name
	}
	if draft.Brand != "" {
		payload["Brand"] = draft.Brand
	}
	if draft.Address != "" {
		payload["Street Address"] = draft.Address
	}
	if draft.Suburb != "" {
		payload["Suburb"] = draft.Suburb
	}
	if draft.Postcode != "" {
		payload["Postal Code"] = draft.Postcode
	}
	if draft.Latitude != nil {
		payload["Latitude"] = strconv.FormatFloat(*draft.Latitude, 'f', -1, 64)
	}
	if draft.Longitude != nil {
		payload["Longitude"] = strconv.FormatFloat(*draft.Longitude, 'f', -1, 64)
	}
	if draft.FuelTypes != nil {
		payload["Fuel Types"] = strings.Join(draft.FuelTypes, ", ")
	}
	if draft.Amenities != nil {
		payload["Amenities"] = strings.Join(draft.Amenities, ", ")
	}
	return payload
}

func (b *baserowProvider) get(ctx context.Context, path string, target any) error {
	logger := logging.FromContext(ctx)
	url := b.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	req.Header.Set("Authorization", "Bearer "+b.token)

	start := time.Now()
	resp, err := doWithRetry(b.httpClient, req)
	if err != nil {
		err := fmt.Errorf("%w: failed to send request: %w", domain.ErrTemporarilyUnavailable, err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return err
	}
	defer resp.Body.Close()

	logger.Info("baserow request completed", "url", url, "status", resp.StatusCode, "duration", time.Since(start).String())

	if err := b.checkStatus(resp.StatusCode); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		err := fmt.Errorf("failed to decode response: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	return nil
}

func (b *baserowProvider) send(ctx context.Context, method, path string, payload map[string]any, target any) error {
	logger := logging.FromContext(ctx)
	url := b.baseURL + path

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		err := fmt.Errorf("%w: failed to send request: %w", domain.ErrTemporarilyUnavailable, err)
		logger.Error(err.Error())
		reporting.Report(ctx, err)
		return err
	}
	defer resp.Body.Close()

	logger.Info("baserow request completed", "method", method, "url", url, "status", resp.StatusCode, "duration", time.Since(start).String())

	if err := b.checkStatus(resp.StatusCode); err != nil {
		return err
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			err := fmt.Errorf("failed to decode response: %w", err)
			reporting.Report(ctx, err)
			return err
		}
	}
	return nil
}

func (b *baserowProvider) checkStatus(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound:
		return domain.ErrStationNotFound
	case statusCode == http.StatusTooManyRequests || statusCode >= 500:
		return fmt.Errorf("%w: upstream returned status %d", domain.ErrTemporarilyUnavailable, statusCode)
	default:
		return fmt.Errorf("upstream returned status %d", statusCode)
	}
}
