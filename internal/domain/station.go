package domain

import "time"

// Station is the canonical station record produced by every provider adapter.
//
// Latitude and Longitude are pointers: stations without upstream coordinates
// keep nil here. They must never be defaulted to 0,0 — that is a valid ocean
// coordinate and would corrupt distance calculations.
type Station struct {
	ID        string
	Name      string
	Brand     string
	Address   string
	Suburb    string
	Postcode  string
	Latitude  *float64
	Longitude *float64
	FuelTypes []string
	Amenities []string
	UpdatedAt time.Time
}

// StationDraft is the caller-supplied shape for create and update mutations.
// Zero-value fields are left unchanged on update.
type StationDraft struct {
	Name      string
	Brand     string
	Address   string
	Suburb    string
	Postcode  string
	Latitude  *float64
	Longitude *float64
	FuelTypes []string
	Amenities []string
}

func (s Station) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

func (s Station) HasFuelType(fuelType string) bool {
	for _, ft := range s.FuelTypes {
		if ft == fuelType {
			return true
		}
	}
	return false
}

func (s Station) HasAmenity(amenity string) bool {
	for _, a := range s.Amenities {
		if a == amenity {
			return true
		}
	}
	return false
}
