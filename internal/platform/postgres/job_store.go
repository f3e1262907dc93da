package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/platform/logger"
	"github.com/phrazzld/content-repurposer/internal/store"
)

const jobColumns = `id, user_id, title, content, status, retry_count, error_message,
	metadata, created_at, updated_at, completed_at`

// PostgresJobStore implements the store.JobStore interface using PostgreSQL.
type PostgresJobStore struct {
	db store.DBTX
}

// Ensure PostgresJobStore implements store.JobStore interface
var _ store.JobStore = (*PostgresJobStore)(nil)

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX) *PostgresJobStore {
	return &PostgresJobStore{db: db}
}

// Create implements store.JobStore.Create
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.Job) error {
	log := logger.FromContext(ctx)

	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	metadata, err := json.Marshal(job.Metadata)
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		job.Title,
		job.Content,
		job.Status,
		job.RetryCount,
		nullString(job.ErrorMessage),
		metadata,
		job.CreatedAt,
		job.UpdatedAt,
		job.CompletedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrJobExists, job.ID)
		}
		log.Error("failed to create job",
			"job_id", job.ID,
			"error", err)
		return store.NewStoreError("job", "create", "insert failed", MapError(err))
	}

	log.Debug("job created", "job_id", job.ID)
	return nil
}

// GetByID implements store.JobStore.GetByID
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrJobNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to get job",
			"job_id", id,
			"error", err)
		return nil, store.NewStoreError("job", "get", "query failed", MapError(err))
	}
	return job, nil
}

// UpdateStatus implements store.JobStore.UpdateStatus
func (s *PostgresJobStore) UpdateStatus(ctx context.Context, job *domain.Job) error {
	log := logger.FromContext(ctx)

	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, retry_count = $3, completed_at = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		job.Status,
		nullString(job.ErrorMessage),
		job.RetryCount,
		job.CompletedAt,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		log.Error("failed to update job status",
			"job_id", job.ID,
			"status", job.Status,
			"error", err)
		return store.NewStoreError("job", "update_status", "update failed", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrJobNotFound)
}

// FindByStatus implements store.JobStore.FindByStatus
func (s *PostgresJobStore) FindByStatus(
	ctx context.Context,
	status domain.JobStatus,
	olderThan time.Duration,
	limit int,
) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1`
	args := []any{status}

	if olderThan > 0 {
		args = append(args, time.Now().UTC().Add(-olderThan))
		query += ` AND updated_at < $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at ASC`
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Error("failed to query jobs by status",
			"status", status,
			"error", err)
		return nil, store.NewStoreError("job", "find_by_status", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, store.NewStoreError("job", "find_by_status", "scan failed", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("job", "find_by_status", "iteration failed", err)
	}
	return jobs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job          domain.Job
		errorMessage sql.NullString
		metadata     []byte
		completedAt  sql.NullTime
	)
	if err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.Title,
		&job.Content,
		&job.Status,
		&job.RetryCount,
		&errorMessage,
		&metadata,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}

	job.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &job.Metadata); err != nil {
			return nil, fmt.Errorf("decode job metadata: %w", err)
		}
	}
	return &job, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
