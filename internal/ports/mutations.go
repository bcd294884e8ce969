package ports

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pumpwatch/pumpwatch/internal/app"
	e "github.com/pumpwatch/pumpwatch/internal/errors"
	"github.com/pumpwatch/pumpwatch/internal/logging"
	"github.com/pumpwatch/pumpwatch/internal/ratelimiting"
)

// Mutation endpoints get a much tighter rate limit than reads; they exist
// for directory maintenance, not traffic.

func MakeCreateStationHandler(
	createStation app.CreateStation,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildStandardMiddleware(
		"createstation", allowedOrigins, rootLogger, sentryMiddleware,
		ratelimiting.RefillPerSecond(1), ratelimiting.BurstSize(10),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)
		defer r.Body.Close()

		var request stationDraftRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			statusCode := writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to parse request body", e.APIClientError))
			logger.Info("Returning response", "statusCode", statusCode, "reason", "bad body")
			return
		}

		station, err := createStation(ctx, request.toDraft())
		if err != nil {
			logger.Error("Error creating station", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		logger.Info("Returning response", "statusCode", http.StatusCreated, "stationId", station.ID)
		writeJSONResponse(w, http.StatusCreated, stationDetailResponse{
			Success: true,
			Station: stationToResponse(*station),
		})
	}

	return middleware(handler)
}

func MakeUpdateStationHandler(
	updateStation app.UpdateStation,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildStandardMiddleware(
		"updatestation", allowedOrigins, rootLogger, sentryMiddleware,
		ratelimiting.RefillPerSecond(1), ratelimiting.BurstSize(10),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)
		id := r.PathValue("id")
		defer r.Body.Close()

		ctx = logging.AddMetaToContext(ctx, slog.String("stationId", id))

		var request stationDraftRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			statusCode := writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to parse request body", e.APIClientError))
			logger.Info("Returning response", "statusCode", statusCode, "reason", "bad body")
			return
		}

		station, err := updateStation(ctx, id, request.toDraft())
		if err != nil {
			logger.Error("Error updating station", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		logger.Info("Returning response", "statusCode", http.StatusOK, "stationId", id)
		writeJSONResponse(w, http.StatusOK, stationDetailResponse{
			Success: true,
			Station: stationToResponse(*station),
		})
	}

	return middleware(handler)
}

func MakeDeleteStationHandler(
	deleteStation app.DeleteStation,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildStandardMiddleware(
		"deletestation", allowedOrigins, rootLogger, sentryMiddleware,
		ratelimiting.RefillPerSecond(1), ratelimiting.BurstSize(10),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)
		id := r.PathValue("id")

		ctx = logging.AddMetaToContext(ctx, slog.String("stationId", id))

		if err := deleteStation(ctx, id); err != nil {
			logger.Error("Error deleting station", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		logger.Info("Returning response", "statusCode", http.StatusNoContent, "stationId", id)
		w.WriteHeader(http.StatusNoContent)
	}

	return middleware(handler)
}
