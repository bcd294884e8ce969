package ports_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pumpwatch/pumpwatch/internal/ports"
)

func noopMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return next
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOrigins(t *testing.T) *ports.DomainSuffixes {
	t.Helper()

	origins, err := ports.NewDomainSuffixes("pumpwatch.example.com")
	require.NoError(t, err)
	return origins
}
