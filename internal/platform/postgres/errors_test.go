package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/content-repurposer/internal/platform/postgres"
	"github.com/phrazzld/content-repurposer/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "jobs",
		ColumnName:     "title",
		ConstraintName: "jobs_retry_count_check",
	}
}

// MockResult implements sql.Result for testing
type MockResult struct {
	rowsAffected int64
	err          error
}

func (m MockResult) LastInsertId() (int64, error) {
	return 0, m.err
}

func (m MockResult) RowsAffected() (int64, error) {
	return m.rowsAffected, m.err
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique", newPgError("23505"), store.ErrDuplicate},
		{"foreign key", newPgError("23503"), store.ErrInvalidEntity},
		{"check", newPgError("23514"), store.ErrInvalidEntity},
		{"not null", newPgError("23502"), store.ErrInvalidEntity},
		{"wrapped unique", fmt.Errorf("insert: %w", newPgError("23505")), store.ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, postgres.MapError(tt.err), tt.want)
		})
	}

	t.Run("unmapped errors pass through", func(t *testing.T) {
		t.Parallel()
		orig := errors.New("connection reset")
		assert.Equal(t, orig, postgres.MapError(orig))
		assert.Equal(t, newPgError("40001").Error(), postgres.MapError(newPgError("40001")).Error())
	})

	assert.NoError(t, postgres.MapError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505")))
	assert.True(t, postgres.IsUniqueViolation(fmt.Errorf("wrapped: %w", newPgError("23505"))))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.False(t, postgres.IsUniqueViolation(errors.New("23505")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(MockResult{rowsAffected: 1}, store.ErrJobNotFound))
	assert.ErrorIs(t, postgres.CheckRowsAffected(MockResult{}, store.ErrJobNotFound), store.ErrJobNotFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(MockResult{}, nil), store.ErrNotFound)
	assert.Error(t, postgres.CheckRowsAffected(MockResult{err: errors.New("driver")}, nil))
	assert.Error(t, postgres.CheckRowsAffected(nil, nil))
}
