package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "ErrJobNotFound", err: ErrJobNotFound, expected: true},
		{
			name:     "wrapped ErrJobNotFound",
			err:      fmt.Errorf("failed to load job: %w", ErrJobNotFound),
			expected: true,
		},
		{name: "ErrDuplicate", err: ErrDuplicate, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDuplicateError(ErrJobExists))
	assert.True(t, IsDuplicateError(fmt.Errorf("insert: %w", ErrDuplicate)))
	assert.False(t, IsDuplicateError(ErrJobNotFound))
	assert.False(t, IsDuplicateError(nil))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := NewStoreError("job", "update_status", "write failed", cause)

	assert.Equal(t, "update_status operation on job failed: write failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	var storeErr *StoreError
	assert.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &storeErr)
	assert.Equal(t, "job", storeErr.Entity)

	bare := NewStoreError("content_output", "create", "no rows", nil)
	assert.Equal(t, "create operation on content_output failed: no rows", bare.Error())
}
