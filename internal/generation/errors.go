package generation

import (
	"context"
	"errors"
)

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when generation fails for any general reason
	ErrGenerationFailed = errors.New("content generation failed")

	// ErrInvalidResponse is returned when the model response is empty or malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry:
	// rate limits, timeouts and server-side failures.
	ErrTransientFailure = errors.New("transient error during content generation")

	// ErrRetriesExhausted is returned when every attempt of a retried call failed
	// with a transient error. It always wraps the last attempt's error.
	ErrRetriesExhausted = errors.New("generation retries exhausted")

	// ErrInvalidConfig is returned when the provider configuration is invalid
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrEmptyPrompt is returned when a request carries no prompt
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)

// IsTransient reports whether err is worth retrying.
// A cancelled parent context or an already exhausted retry loop is never
// transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrRetriesExhausted) {
		return false
	}
	return errors.Is(err, ErrTransientFailure)
}
