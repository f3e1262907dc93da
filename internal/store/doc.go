// Package store defines interfaces for persisting jobs and their generated
// outputs. These interfaces abstract the underlying data storage mechanism
// from the orchestration logic, allowing it to remain independent of
// specific database technologies or persistence details.
package store
