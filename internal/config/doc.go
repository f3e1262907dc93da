// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It provides
// type-safe access to the settings needed by the API server and the job
// worker while keeping configuration details separate from business logic.
package config
