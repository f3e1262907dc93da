package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/domain"
)

// JobStore defines the interface for job record persistence.
// Every method is a single atomic write or read.
// Version: 1.0
type JobStore interface {
	// Create saves a new job to the store.
	// Returns validation errors from the domain Job if data is invalid.
	// Returns ErrJobExists if a job with the same ID already exists.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// UpdateStatus persists the job's status, error message, retry count,
	// and completion time in one statement.
	// Returns ErrJobNotFound if the job does not exist.
	UpdateStatus(ctx context.Context, job *domain.Job) error

	// FindByStatus returns jobs in the given status, oldest first.
	// If olderThan is non-zero, only jobs not updated within that window are
	// returned. A limit of zero or less means no limit.
	FindByStatus(ctx context.Context, status domain.JobStatus, olderThan time.Duration, limit int) ([]*domain.Job, error)
}
