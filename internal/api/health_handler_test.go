package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("dial tcp: refused") }

	rec := doJSON(t, NewHealthHandler(nil), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HealthResponse{Status: "ok"}, decodeBody[HealthResponse](t, rec))

	rec = doJSON(t, NewHealthHandler(map[string]HealthCheck{"database": ok}), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[HealthResponse](t, rec).Checks["database"])

	rec = doJSON(t, NewHealthHandler(map[string]HealthCheck{"database": ok, "queue": down}),
		http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, map[string]string{"database": "ok", "queue": "unavailable"}, resp.Checks)
	assert.NotContains(t, rec.Body.String(), "refused")
}
