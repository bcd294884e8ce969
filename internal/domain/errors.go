package domain

import "errors"

var (
	ErrStationNotFound        = errors.New("station not found")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
	ErrReadOnlyProvider       = errors.New("provider does not support writes")
	ErrInvalidFilters         = errors.New("invalid filters")
	ErrInvalidCoordinates     = errors.New("invalid coordinates")
)
