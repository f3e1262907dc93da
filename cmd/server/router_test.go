package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/api"
	apiMiddleware "github.com/phrazzld/content-repurposer/internal/api/middleware"
	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/mocks"
	"github.com/phrazzld/content-repurposer/internal/service/auth"
	"github.com/phrazzld/content-repurposer/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "thisisasecretkeythatis32charslong!!"

type testServer struct {
	handler http.Handler
	jobs    *mocks.MockJobStore
	outputs *mocks.MockOutputStore
	jwt     auth.JWTService
}

func newTestServer(t *testing.T, queue api.JobPublisher) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetime: time.Hour})
	require.NoError(t, err)

	ts := &testServer{
		jobs:    mocks.NewMockJobStore(),
		outputs: mocks.NewMockOutputStore(),
		jwt:     jwtService,
	}
	ts.handler = newRouter(routerDeps{
		jobHandler:     api.NewJobHandler(ts.jobs, ts.outputs, queue, logger),
		healthHandler:  api.NewHealthHandler(map[string]api.HealthCheck{"database": func(context.Context) error { return nil }}),
		authMiddleware: apiMiddleware.NewAuthMiddleware(jwtService),
		logger:         logger,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, mocks.NewMockQueue(1))
	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestRouter_RequiresAuth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, mocks.NewMockQueue(1))

	rec := ts.do(t, http.MethodPost, "/api/v1/content", "", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/jobs/"+uuid.NewString(), "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestRouter_SubmitAndPoll drives a job through the API with the real
// in-memory queue and worker runner.
func TestRouter_SubmitAndPoll(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	queue := task.NewTaskQueue(task.DefaultTaskQueueConfig(), logger)
	ts := newTestServer(t, queue)

	orchestrator, err := task.NewOrchestrator(ts.jobs, ts.outputs, &mocks.MockProvider{}, mocks.NewMockGateway(),
		task.DefaultOrchestratorConfig(), logger)
	require.NoError(t, err)
	runner := task.NewRunner(ts.jobs, queue, task.NewJobProcessor(ts.jobs, orchestrator, logger),
		task.DefaultRunnerConfig(), logger)
	require.NoError(t, runner.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = runner.Stop(ctx)
	})

	owner := uuid.New()
	token, err := ts.jwt.GenerateToken(context.Background(), owner)
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/v1/content", token, api.CreateContentRequest{
		Title:        "Ten Lessons From Shipping Go",
		Content:      "Small interfaces, explicit errors, and boring deployments.",
		ContentTypes: []string{"twitter", "thumbnail"},
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var created api.JobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	var polled api.JobResponse
	require.Eventually(t, func() bool {
		rec := ts.do(t, http.MethodGet, "/api/v1/jobs/"+created.ID, token, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		polled = api.JobResponse{}
		return json.NewDecoder(rec.Body).Decode(&polled) == nil &&
			polled.Status == string(domain.JobStatusCompleted)
	}, 2*time.Second, 20*time.Millisecond)

	assert.Len(t, polled.Outputs, 3)
	assert.Empty(t, polled.MissingContentTypes)

	// Another user cannot see the job.
	otherToken, err := ts.jwt.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)
	rec = ts.do(t, http.MethodGet, "/api/v1/jobs/"+created.ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
