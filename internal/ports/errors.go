package ports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pumpwatch/pumpwatch/internal/domain"
	e "github.com/pumpwatch/pumpwatch/internal/errors"
	"github.com/pumpwatch/pumpwatch/internal/logging"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

// writeErrorResponse maps the error taxonomy onto HTTP status codes and
// writes the JSON error envelope. Returns the status code for logging.
func writeErrorResponse(ctx context.Context, w http.ResponseWriter, responseError error) int {
	w.Header().Set("Content-Type", "application/json")

	errorBytes, err := json.Marshal(errorResponse{
		Success: false,
		Cause:   responseError.Error(),
	})
	if err != nil {
		logging.FromContext(ctx).Error("Failed to marshal error response", "error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"cause":"internal server error"}`))
		return http.StatusInternalServerError
	}

	// Unknown error: default to 500
	statusCode := http.StatusInternalServerError

	if errors.Is(responseError, domain.ErrInvalidFilters) ||
		errors.Is(responseError, domain.ErrInvalidCoordinates) ||
		errors.Is(responseError, domain.ErrReadOnlyProvider) ||
		errors.Is(responseError, e.APIClientError) {
		statusCode = http.StatusBadRequest
	} else if errors.Is(responseError, domain.ErrStationNotFound) {
		statusCode = http.StatusNotFound
	} else if errors.Is(responseError, e.RatelimitExceededError) {
		statusCode = http.StatusTooManyRequests
	} else if errors.Is(responseError, domain.ErrTemporarilyUnavailable) ||
		errors.Is(responseError, e.AllProvidersFailed) {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	w.Write(errorBytes)
	return statusCode
}
