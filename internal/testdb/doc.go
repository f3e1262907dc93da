//go:build integration

// Package testdb provides helpers for database integration tests.
//
// Each test runs inside a transaction that is rolled back when the test
// finishes, so tests can share one database and run in parallel:
//
//	func TestJobStore(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        jobs := postgres.NewPostgresJobStore(tx)
//	        // ...
//	    })
//	}
//
// DATABASE_URL (or REPURPOSER_TEST_DB_URL) selects the database. Tests are
// skipped when neither is set.
package testdb
