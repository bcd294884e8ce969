package ports

import (
	"log/slog"
	"net/http"

	"github.com/pumpwatch/pumpwatch/internal/app"
	"github.com/pumpwatch/pumpwatch/internal/logging"
	"github.com/pumpwatch/pumpwatch/internal/ratelimiting"
)

type pricesListResponse struct {
	Success bool            `json:"success"`
	Prices  []priceResponse `json:"prices"`
}

func MakeGetPricesHandler(
	getFuelPrices app.GetFuelPrices,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildStandardMiddleware(
		"getprices", allowedOrigins, rootLogger, sentryMiddleware,
		ratelimiting.RefillPerSecond(8), ratelimiting.BurstSize(480),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		prices, err := getFuelPrices(ctx)
		if err != nil {
			logger.Error("Error getting fuel prices", "error", err.Error())
			statusCode := writeErrorResponse(ctx, w, err)
			logger.Info("Returning response", "statusCode", statusCode, "reason", "error")
			return
		}

		responses := make([]priceResponse, 0, len(prices))
		for _, price := range prices {
			responses = append(responses, priceToResponse(price))
		}

		logger.Info("Returning response", "statusCode", http.StatusOK, "prices", len(responses))
		writeJSONResponse(w, http.StatusOK, pricesListResponse{
			Success: true,
			Prices:  responses,
		})
	}

	return middleware(handler)
}
