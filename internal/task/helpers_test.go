package task_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPendingJob(t *testing.T, kinds ...domain.ContentKind) *domain.Job {
	t.Helper()
	job, err := domain.NewJob(
		uuid.New(),
		"Ten Lessons From Shipping Go",
		"Small interfaces, explicit errors, and boring deployments.",
		domain.JobMetadata{ContentTypes: kinds},
	)
	require.NoError(t, err)
	return job
}
