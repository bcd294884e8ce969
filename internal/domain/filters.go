package domain

import "fmt"

type SortKey string

const (
	SortByName   SortKey = "name"
	SortByPrice  SortKey = "price"
	SortBySuburb SortKey = "suburb"
)

// SearchFilters are combined with AND: a station matches only if it passes
// every requested predicate. Empty fields are ignored.
type SearchFilters struct {
	Suburb    string
	Brand     string
	FuelType  string
	MaxPrice  *float64
	Amenities []string
	SortBy    SortKey
}

func (f SearchFilters) Validate() error {
	switch f.SortBy {
	case "", SortByName, SortByPrice, SortBySuburb:
	default:
		return fmt.Errorf("%w: unknown sort key %q", ErrInvalidFilters, f.SortBy)
	}

	if f.MaxPrice != nil && *f.MaxPrice <= 0 {
		return fmt.Errorf("%w: max price must be positive, got %v", ErrInvalidFilters, *f.MaxPrice)
	}

	return nil
}

func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, lng)
	}
	return nil
}
