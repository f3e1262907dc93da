package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/content-repurposer/internal/api/shared"
	"github.com/phrazzld/content-repurposer/internal/platform/logger"
	"github.com/stretchr/testify/assert"
)

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewTestLogger()

	var traceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("handled")
	})

	recorder := httptest.NewRecorder()
	NewTraceMiddleware(log)(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.NotEmpty(t, traceID)
	assert.Equal(t, traceID, recorder.Header().Get("X-Trace-ID"))
	assert.Contains(t, buf.String(), traceID)
}

func TestTraceMiddleware_ReusesRequestID(t *testing.T) {
	t.Parallel()

	var traceID, requestID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		requestID = chimw.GetReqID(r.Context())
	})

	handler := chimw.RequestID(NewTraceMiddleware(nil)(next))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, traceID)
}
