package ports

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pumpwatch/pumpwatch/internal/app"
	e "github.com/pumpwatch/pumpwatch/internal/errors"
	"github.com/pumpwatch/pumpwatch/internal/logging"
	"github.com/pumpwatch/pumpwatch/internal/ratelimiting"
)

type invalidateRequest struct {
	Tags []string `json:"tags"`
}

type invalidateResponse struct {
	Success     bool `json:"success"`
	RemovedKeys int  `json:"removedKeys"`
}

// MakeInvalidateHandler serves the admin cache-flush endpoint. Access is
// guarded by a shared secret in the Authorization header; the comparison is
// constant time so the secret cannot be probed byte by byte.
func MakeInvalidateHandler(
	invalidateTags app.InvalidateTags,
	secret string,
	allowedOrigins *DomainSuffixes,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) http.HandlerFunc {
	middleware := buildStandardMiddleware(
		"invalidate", allowedOrigins, rootLogger, sentryMiddleware,
		ratelimiting.RefillPerSecond(1), ratelimiting.BurstSize(10),
	)

	handler := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)
		defer r.Body.Close()

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			logger.Info("Returning response", "statusCode", http.StatusForbidden, "reason", "bad secret")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success":false,"cause":"forbidden"}`))
			return
		}

		var request invalidateRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			statusCode := writeErrorResponse(ctx, w, fmt.Errorf("%w: failed to parse request body", e.APIClientError))
			logger.Info("Returning response", "statusCode", statusCode, "reason", "bad body")
			return
		}
		if len(request.Tags) == 0 {
			statusCode := writeErrorResponse(ctx, w, fmt.Errorf("%w: no tags given", e.APIClientError))
			logger.Info("Returning response", "statusCode", statusCode, "reason", "no tags")
			return
		}

		removed := invalidateTags(ctx, request.Tags...)

		logger.Info("Returning response", "statusCode", http.StatusOK, "tags", request.Tags, "removedKeys", removed)
		writeJSONResponse(w, http.StatusOK, invalidateResponse{
			Success:     true,
			RemovedKeys: removed,
		})
	}

	return middleware(handler)
}
