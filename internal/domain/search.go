package domain

import (
	"sort"
	"strings"
)

// CheapestPriceByStation indexes the lowest known price per station. When
// fuelType is non-empty only prices for that fuel type are considered.
func CheapestPriceByStation(prices []FuelPrice, fuelType string) map[string]float64 {
	cheapest := make(map[string]float64)
	for _, price := range prices {
		if fuelType != "" && price.FuelType != fuelType {
			continue
		}
		current, ok := cheapest[price.StationID]
		if !ok || price.PricePerLiter < current {
			cheapest[price.StationID] = price.PricePerLiter
		}
	}
	return cheapest
}

// FilterStations applies the filters to the station list. cheapest is the
// per-station price index used for the MaxPrice predicate; stations without
// price data are excluded when MaxPrice is set.
func FilterStations(stations []Station, cheapest map[string]float64, filters SearchFilters) []Station {
	matched := []Station{}
	for _, station := range stations {
		if !matchesFilters(station, cheapest, filters) {
			continue
		}
		matched = append(matched, station)
	}
	return matched
}

func matchesFilters(station Station, cheapest map[string]float64, filters SearchFilters) bool {
	if filters.Suburb != "" && !containsFold(station.Suburb, filters.Suburb) {
		return false
	}

	if filters.Brand != "" && !containsFold(station.Brand, filters.Brand) {
		return false
	}

	if filters.FuelType != "" && !station.HasFuelType(filters.FuelType) {
		return false
	}

	if filters.MaxPrice != nil {
		price, ok := cheapest[station.ID]
		if !ok || price > *filters.MaxPrice {
			return false
		}
	}

	for _, amenity := range filters.Amenities {
		if !station.HasAmenity(amenity) {
			return false
		}
	}

	return true
}

// SortStations orders the station list in place by the given key. Price
// sorting is ascending; stations without price data sort last.
func SortStations(stations []Station, cheapest map[string]float64, key SortKey) {
	switch key {
	case SortByPrice:
		sort.SliceStable(stations, func(i, j int) bool {
			priceI, okI := cheapest[stations[i].ID]
			priceJ, okJ := cheapest[stations[j].ID]
			if okI != okJ {
				return okI
			}
			return priceI < priceJ
		})
	case SortBySuburb:
		sort.SliceStable(stations, func(i, j int) bool {
			return strings.ToLower(stations[i].Suburb) < strings.ToLower(stations[j].Suburb)
		})
	case SortByName:
		sort.SliceStable(stations, func(i, j int) bool {
			return strings.ToLower(stations[i].Name) < strings.ToLower(stations[j].Name)
		})
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
