package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/content-repurposer/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError_IncludesTraceID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(SetTraceID(req.Context(), "trace-123"))
	rec := httptest.NewRecorder()

	RespondWithError(rec, req, http.StatusNotFound, "Job not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, ErrorResponse{Error: "Job not found", TraceID: "trace-123"}, body)
}

func TestRespondWithErrorAndLog_RedactsLogs(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewTestLogger()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/content", nil)
	req = req.WithContext(logger.WithLogger(context.Background(), log))
	rec := httptest.NewRecorder()

	err := errors.New("connect postgres://admin:hunter2@db:5432/app failed")
	RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "Failed to create job", err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
	assert.NotContains(t, buf.String(), "hunter2")

	entries := buf.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "ERROR", entries[0]["level"])
	assert.Equal(t, "Failed to create job", entries[0]["user_message"])
}

func TestSetTraceID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GetTraceID(context.Background()))
	assert.Equal(t, "abc", GetTraceID(SetTraceID(context.Background(), "abc")))
	assert.NotEmpty(t, GetTraceID(SetTraceID(context.Background(), "")))
}
