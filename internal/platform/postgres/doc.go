// Package postgres provides PostgreSQL implementations of the job and
// content output stores defined in internal/store. It owns the connection
// setup (database/sql over the pgx driver), the embedded goose migrations,
// and the mapping of PostgreSQL error codes onto store errors.
package postgres
