package ports

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/pumpwatch/pumpwatch/internal/app"
	"github.com/pumpwatch/pumpwatch/internal/domain"
	"github.com/pumpwatch/pumpwatch/internal/logging"
	"github.com/pumpwatch/pumpwatch/internal/ratelimiting"
)

type stationsListResponse struct {
	Success  bool              `json:"success"`
	Stations []stationResponse `json:"stations"`
}

type stationDetailResponse struct {
	Success bool            `json:"success"`
	Station stationResponse `json:"station"`
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func MakeGetStationsHandler(
	getStations app.GetStations,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildStandardMiddleware(
		"getstations", allowedOrigins, rootLogger, sentryMiddleware,
		ratelimiting.RefillPerSecond(8), ratelimiting.BurstSize(480),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		stations, err := getStations(ctx)
		if err != nil {
			logger.Error("Error getting stations", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		logger.Info("Returning response", "statusCode", http.StatusOK, "stations", len(stations))
		writeJSONResponse(w, http.StatusOK, stationsListResponse{
			Success:  true,
			Stations: stationsToResponse(stations),
		})
	}

	return middleware(handler)
}

func MakeGetStationHandler(
	getStationByID app.GetStationByID,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildStandardMiddleware(
		"getstation", allowedOrigins, rootLogger, sentryMiddleware,
		ratelimiting.RefillPerSecond(8), ratelimiting.BurstSize(480),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)
		id := r.PathValue("id")

		ctx = logging.AddMetaToContext(ctx, slog.String("stationId", id))

		station, err := getStationByID(ctx, id)
		if err != nil {
			logger.Error("Error getting station", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}
		if station == nil {
			statusCode := writeErrorResponse(ctx, w, domain.ErrStationNotFound)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "not found")
			return
		}

		logger.Info("Returning response", "statusCode", http.StatusOK)
		writeJSONResponse(w, http.StatusOK, stationDetailResponse{
			Success: true,
			Station: stationToResponse(*station),
		})
	}

	return middleware(handler)
}

// parseSearchFilters reads search filters from query parameters. Amenities
// are comma-separated; an invalid maxPrice is a client error.
func parseSearchFilters(r *http.Request) (domain.SearchFilters, error) {
	query := r.URL.Query()

	filters := domain.SearchFilters{
		Suburb:   query.Get("suburb"),
		Brand:    query.Get("brand"),
		FuelType: query.Get("fuelType"),
		SortBy:   domain.SortKey(query.Get("sortBy")),
	}

	if rawMaxPrice := query.Get("maxPrice"); rawMaxPrice != "" {
		maxPrice, err := strconv.ParseFloat(rawMaxPrice, 64)
		if err != nil || maxPrice <= 0 {
			return domain.SearchFilters{}, domain.ErrInvalidFilters
		}
		filters.MaxPrice = &maxPrice
	}

	if rawAmenities := query.Get("amenities"); rawAmenities != "" {
		for _, amenity := range strings.Split(rawAmenities, ",") {
			if trimmed := strings.TrimSpace(amenity); trimmed != "" {
				filters.Amenities = append(filters.Amenities, trimmed)
			}
		}
	}

	return filters, nil
}

func MakeSearchStationsHandler(
	searchStations app.SearchStations,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildStandardMiddleware(
		"searchstations", allowedOrigins, rootLogger, sentryMiddleware,
		ratelimiting.RefillPerSecond(8), ratelimiting.BurstSize(480),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		filters, err := parseSearchFilters(r)
		if err != nil {
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid filters")
			return
		}

		stations, err := searchStations(ctx, filters)
		if err != nil {
			logger.Error("Error searching stations", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		logger.Info("Returning response", "statusCode", http.StatusOK, "stations", len(stations))
		writeJSONResponse(w, http.StatusOK, stationsListResponse{
			Success:  true,
			Stations: stationsToResponse(stations),
		})
	}

	return middleware(handler)
}

type nearbyListResponse struct {
	Success  bool                    `json:"success"`
	Stations []nearbyStationResponse `json:"stations"`
}

// defaultNearbyRadiusKm applies when the radius query parameter is omitted.
const defaultNearbyRadiusKm = 10.0

func MakeNearbyStationsHandler(
	getNearbyStations app.GetNearbyStations,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildStandardMiddleware(
		"nearbystations", allowedOrigins, rootLogger, sentryMiddleware,
		ratelimiting.RefillPerSecond(8), ratelimiting.BurstSize(480),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)
		query := r.URL.Query()

		lat, latErr := strconv.ParseFloat(query.Get("lat"), 64)
		lng, lngErr := strconv.ParseFloat(query.Get("lng"), 64)
		if latErr != nil || lngErr != nil {
			statusCode := writeErrorResponse(ctx, w, domain.ErrInvalidCoordinates)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid coordinates")
			return
		}

		radiusKm := defaultNearbyRadiusKm
		if rawRadius := query.Get("radius"); rawRadius != "" {
			parsed, err := strconv.ParseFloat(rawRadius, 64)
			if err != nil {
				statusCode := writeErrorResponse(ctx, w, domain.ErrInvalidFilters)
				logger.Info("Returning response", "statusCode", statusCode, "reason", "invalid radius")
				return
			}
			radiusKm = parsed
		}

		nearby, err := getNearbyStations(ctx, lat, lng, radiusKm)
		if err != nil {
			logger.Error("Error getting nearby stations", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		logger.Info("Returning response", "statusCode", http.StatusOK, "stations", len(nearby))
		writeJSONResponse(w, http.StatusOK, nearbyListResponse{
			Success:  true,
			Stations: nearbyToResponse(nearby),
		})
	}

	return middleware(handler)
}
