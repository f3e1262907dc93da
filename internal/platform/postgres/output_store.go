package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/platform/logger"
	"github.com/phrazzld/content-repurposer/internal/store"
)

// PostgresOutputStore implements the store.OutputStore interface using PostgreSQL.
type PostgresOutputStore struct {
	db store.DBTX
}

// Ensure PostgresOutputStore implements store.OutputStore interface
var _ store.OutputStore = (*PostgresOutputStore)(nil)

// NewPostgresOutputStore creates a new PostgresOutputStore.
func NewPostgresOutputStore(db store.DBTX) *PostgresOutputStore {
	return &PostgresOutputStore{db: db}
}

// Create implements store.OutputStore.Create
func (s *PostgresOutputStore) Create(ctx context.Context, output *domain.ContentOutput) error {
	if err := output.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	metadata := []byte("{}")
	if len(output.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(output.Metadata); err != nil {
			return fmt.Errorf("%w: marshal metadata: %v", store.ErrInvalidEntity, err)
		}
	}

	query := `
		INSERT INTO content_outputs (id, job_id, content_type, content, file_path, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		output.ID,
		output.JobID,
		output.Kind,
		output.Text,
		output.FilePath,
		metadata,
		output.CreatedAt,
		output.UpdatedAt,
	)
	if err != nil {
		logger.FromContext(ctx).Error("failed to create content output",
			"job_id", output.JobID,
			"content_type", output.Kind,
			"error", err)
		return store.NewStoreError("content_output", "create", "insert failed", MapError(err))
	}
	return nil
}

// ListByJob implements store.OutputStore.ListByJob
func (s *PostgresOutputStore) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.ContentOutput, error) {
	query := `
		SELECT id, job_id, content_type, content, file_path, metadata, created_at, updated_at
		FROM content_outputs
		WHERE job_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, jobID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list content outputs",
			"job_id", jobID,
			"error", err)
		return nil, store.NewStoreError("content_output", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	outputs := []*domain.ContentOutput{}
	for rows.Next() {
		var (
			out      domain.ContentOutput
			text     sql.NullString
			filePath sql.NullString
			metadata []byte
		)
		if err := rows.Scan(
			&out.ID,
			&out.JobID,
			&out.Kind,
			&text,
			&filePath,
			&metadata,
			&out.CreatedAt,
			&out.UpdatedAt,
		); err != nil {
			return nil, store.NewStoreError("content_output", "list", "scan failed", err)
		}
		if text.Valid {
			out.Text = &text.String
		}
		if filePath.Valid {
			out.FilePath = &filePath.String
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &out.Metadata); err != nil {
				return nil, store.NewStoreError("content_output", "list", "decode metadata", err)
			}
		}
		outputs = append(outputs, &out)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("content_output", "list", "iteration failed", err)
	}
	return outputs, nil
}
