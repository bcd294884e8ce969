package ports

import (
	"time"

	"github.com/pumpwatch/pumpwatch/internal/domain"
)

type stationResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	Address  string `json:"address,omitempty"`
	Suburb   string `json:"suburb,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	// Coordinates are null for stations whose location is unknown
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	FuelTypes []string `json:"fuelTypes,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

type priceResponse struct {
	ID            string  `json:"id"`
	StationID     string  `json:"stationId"`
	FuelType      string  `json:"fuelType"`
	PricePerLiter float64 `json:"pricePerLiter"`
	LastUpdated   string  `json:"lastUpdated,omitempty"`
}

type nearbyStationResponse struct {
	stationResponse
	DistanceKm float64 `json:"distanceKm"`
}

func stationToResponse(station domain.Station) stationResponse {
	var updatedAt string
	if !station.UpdatedAt.IsZero() {
		updatedAt = station.UpdatedAt.Format(time.RFC3339)
	}

	return stationResponse{
		ID:        station.ID,
		Name:      station.Name,
		Brand:     station.Brand,
		Address:   station.Address,
		Suburb:    station.Suburb,
		Postcode:  station.Postcode,
		Latitude:  station.Latitude,
		Longitude: station.Longitude,
		FuelTypes: station.FuelTypes,
		Amenities: station.Amenities,
		UpdatedAt: updatedAt,
	}
}

func stationsToResponse(stations []domain.Station) []stationResponse {
	responses := make([]stationResponse, 0, len(stations))
	for _, station := range stations {
		responses = append(responses, stationToResponse(station))
	}
	return responses
}

func priceToResponse(price domain.FuelPrice) priceResponse {
	var lastUpdated string
	if !price.LastUpdated.IsZero() {
		lastUpdated = price.LastUpdated.Format(time.RFC3339)
	}

	return priceResponse{
		ID:            price.ID,
		StationID:     price.StationID,
		FuelType:      price.FuelType,
		PricePerLiter: price.PricePerLiter,
		LastUpdated:   lastUpdated,
	}
}

func nearbyToResponse(nearby []domain.NearbyStation) []nearbyStationResponse {
	responses := make([]nearbyStationResponse, 0, len(nearby))
	for _, entry := range nearby {
		responses = append(responses, nearbyStationResponse{
			stationResponse: stationToResponse(entry.Station),
			DistanceKm:      entry.DistanceKm,
		})
	}
	return responses
}

// stationDraftRequest is the mutation request body. Pointer coordinates keep
// "not provided" distinguishable from 0.
type stationDraftRequest struct {
	Name      string   `json:"name"`
	Brand     string   `json:"brand"`
	Address   string   `json:"address"`
	Suburb    string   `json:"suburb"`
	Postcode  string   `json:"postcode"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	FuelTypes []string `json:"fuelTypes"`
	Amenities []string `json:"amenities"`
}

func (r stationDraftRequest) toDraft() domain.StationDraft {
	return domain.StationDraft{
		Name:      r.Name,
		Brand:     r.Brand,
		Address:   r.Address,
		Suburb:    r.Suburb,
		Postcode:  r.Postcode,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		FuelTypes: r.FuelTypes,
		Amenities: r.Amenities,
	}
}
