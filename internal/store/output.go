package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/domain"
)

// OutputStore defines the interface for content output persistence.
// Outputs are append-only, so there is no update or delete.
// Version: 1.0
type OutputStore interface {
	// Create inserts a new output.
	// Returns ErrInvalidEntity if the owning job does not exist.
	Create(ctx context.Context, output *domain.ContentOutput) error

	// ListByJob returns every output for a job ordered by creation time.
	// Returns an empty slice if the job has no outputs.
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.ContentOutput, error)
}
