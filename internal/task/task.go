package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Errors returned by the job processor and queue transports.
var (
	// ErrRetryScheduled means the job was returned to pending and the
	// delivery should be redelivered.
	ErrRetryScheduled = errors.New("job retry scheduled")

	// ErrJobFailed means the job used up its retries and is now failed.
	// The delivery must be settled without redelivery.
	ErrJobFailed = errors.New("job failed permanently")

	// ErrJobLocked means another worker holds the processing lock for the job.
	ErrJobLocked = errors.New("job is locked by another worker")

	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// Delivery is one receipt of a job id from a Queue.
// Exactly one of Ack, Retry or Reject should be called.
// Version: 1.0
type Delivery interface {
	// JobID returns the id of the job to process.
	JobID() uuid.UUID

	// Attempt returns how many times this job id has been delivered,
	// starting at 1.
	Attempt() int

	// Ack removes the delivery from the queue.
	Ack() error

	// Retry returns the delivery to the queue for another attempt.
	// Transports bound the number of redeliveries.
	Retry() error

	// Reject drops the delivery, dead-lettering it where supported.
	Reject() error
}

// Queue transports job ids from the API to the workers.
// Version: 1.0
type Queue interface {
	// Publish enqueues a job id for processing.
	Publish(ctx context.Context, jobID uuid.UUID) error

	// Deliveries returns the channel workers consume from.
	// The channel is closed when the queue is closed.
	Deliveries() <-chan Delivery

	// Close stops delivering and releases transport resources.
	Close() error
}

// JobLocker serializes processing of a single job across workers.
// Version: 1.0
type JobLocker interface {
	// Lock acquires the processing lock for jobID.
	// Returns ErrJobLocked if another holder has it. The returned function
	// releases the lock.
	Lock(ctx context.Context, jobID uuid.UUID) (unlock func(context.Context) error, err error)
}
