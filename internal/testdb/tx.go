//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// WithTx runs fn inside a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "test database unreachable")

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err, "begin transaction")
	defer AssertRollbackNoError(t, tx)

	fn(t, tx)
}

// AssertRollbackNoError rolls back tx. A transaction that was already
// finished is not an error.
func AssertRollbackNoError(t *testing.T, tx *sql.Tx) {
	t.Helper()
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		t.Errorf("rollback failed: %v", err)
	}
}
