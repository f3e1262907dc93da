package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidContentKind is returned when a content kind is not one of the
	// supported platforms.
	ErrInvalidContentKind = errors.New("invalid content kind")

	// ErrInvalidJobStatus is returned when a job status is not valid.
	ErrInvalidJobStatus = errors.New("invalid job status")

	// ErrInvalidStatusTransition is returned when a job is moved along an edge
	// the lifecycle does not allow, for example out of a terminal state.
	ErrInvalidStatusTransition = errors.New("invalid job status transition")

	// ErrRetryCountOutOfRange is returned when a job's retry counter is
	// negative or exceeds MaxJobRetries.
	ErrRetryCountOutOfRange = errors.New("retry count out of range")

	// ErrInvalidOutput is returned when a content output carries neither text
	// nor a file locator, or carries both.
	ErrInvalidOutput = errors.New("invalid content output")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
