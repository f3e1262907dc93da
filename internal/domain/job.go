package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a repurposing job
type JobStatus string

// Possible job status values
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

const (
	// MaxJobRetries is the number of whole-job retries allowed before a job
	// is marked failed.
	MaxJobRetries = 3

	// MaxTitleLength is the longest title accepted for a job.
	MaxTitleLength = 255
)

// allowedTransitions lists the edges of the job state machine.
// processing -> pending is the retry edge. Self-edges on the non-terminal
// states make redelivery idempotent.
var allowedTransitions = map[JobStatus]map[JobStatus]bool{
	JobStatusPending: {
		JobStatusPending:    true,
		JobStatusProcessing: true,
		JobStatusFailed:     true,
	},
	JobStatusProcessing: {
		JobStatusProcessing: true,
		JobStatusPending:    true,
		JobStatusCompleted:  true,
		JobStatusFailed:     true,
	},
}

// IsValid reports whether s is a known status.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a request to repurpose one blog post into social content.
// It is the durable record of the request and its progress.
type Job struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Status       JobStatus   `json:"status"`
	RetryCount   int         `json:"retry_count"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Metadata     JobMetadata `json:"metadata"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// NewJob creates a pending job owned by userID.
// Returns an error if validation fails.
func NewJob(userID uuid.UUID, title, content string, metadata JobMetadata) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Content:   content,
		Status:    JobStatusPending,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return fmt.Errorf("%w: job ID cannot be empty", ErrInvalidID)
	}
	if j.UserID == uuid.Nil {
		return fmt.Errorf("%w: job user ID cannot be empty", ErrInvalidID)
	}
	if j.Title == "" {
		return fmt.Errorf("%w: title", ErrEmptyContent)
	}
	if utf8.RuneCountInString(j.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, MaxTitleLength)
	}
	if j.Content == "" {
		return fmt.Errorf("%w: content", ErrEmptyContent)
	}
	if !j.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidJobStatus, string(j.Status))
	}
	if j.RetryCount < 0 || j.RetryCount > MaxJobRetries {
		return fmt.Errorf("%w: %d", ErrRetryCountOutOfRange, j.RetryCount)
	}
	return j.Metadata.Validate()
}

// TransitionTo moves the job to status if the edge is allowed.
// Entering a terminal state stamps CompletedAt.
func (j *Job) TransitionTo(status JobStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidJobStatus, string(status))
	}
	if !allowedTransitions[j.Status][status] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, j.Status, status)
	}

	now := time.Now().UTC()
	j.Status = status
	j.UpdatedAt = now
	if status.IsTerminal() {
		j.CompletedAt = &now
	}
	return nil
}

// MarkProcessing moves the job into processing.
func (j *Job) MarkProcessing() error {
	return j.TransitionTo(JobStatusProcessing)
}

// MarkCompleted moves the job into completed and clears any note left by an
// earlier retry.
func (j *Job) MarkCompleted() error {
	if err := j.TransitionTo(JobStatusCompleted); err != nil {
		return err
	}
	j.ErrorMessage = ""
	return nil
}

// CanRetry reports whether another whole-job attempt is allowed.
func (j *Job) CanRetry() bool {
	return j.RetryCount < MaxJobRetries
}

// ScheduleRetry increments the retry counter, returns the job to pending and
// records reason as "Retry n/3: reason".
func (j *Job) ScheduleRetry(reason string) error {
	if !j.CanRetry() {
		return fmt.Errorf("%w: %d", ErrRetryCountOutOfRange, j.RetryCount+1)
	}
	if err := j.TransitionTo(JobStatusPending); err != nil {
		return err
	}
	j.RetryCount++
	j.ErrorMessage = fmt.Sprintf("Retry %d/%d: %s", j.RetryCount, MaxJobRetries, reason)
	return nil
}

// Fail moves the job into failed and records reason as
// "Failed after n retries: reason".
func (j *Job) Fail(reason string) error {
	if err := j.TransitionTo(JobStatusFailed); err != nil {
		return err
	}
	j.ErrorMessage = fmt.Sprintf("Failed after %d retries: %s", j.RetryCount, reason)
	return nil
}
