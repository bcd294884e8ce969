package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pumpwatch/pumpwatch/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestLoggerMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("request meta is attached to the logger", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		handler := logging.NewRequestLoggerMiddleware(logger)(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("handled")
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/v1/stations", nil)
		req.Header.Set("User-Agent", "pumpwatch-test")
		handler(httptest.NewRecorder(), req)

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

		assert.Equal(t, "handled", record["msg"])
		assert.Equal(t, "GET", record["method"])
		assert.Equal(t, "/v1/stations", record["path"])
		assert.Equal(t, "pumpwatch-test", record["userAgent"])
	})

	t.Run("missing user agent is marked", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		handler := logging.NewRequestLoggerMiddleware(logger)(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("handled")
		})

		req := httptest.NewRequest(http.MethodGet, "/v1/prices", nil)
		req.Header.Del("User-Agent")
		handler(httptest.NewRecorder(), req)

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "<missing>", record["userAgent"])
	})
}
