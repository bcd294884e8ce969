package domain

import "time"

type FuelPrice struct {
	ID            string
	StationID     string
	FuelType      string
	PricePerLiter float64
	LastUpdated   time.Time
}
