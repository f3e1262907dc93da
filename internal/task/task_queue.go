package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadySettled is returned when a delivery is settled twice.
var ErrAlreadySettled = errors.New("delivery already settled")

// TaskQueueConfig holds configuration for the in-memory queue.
type TaskQueueConfig struct {
	// Size is the buffer size of the delivery channel.
	Size int

	// MaxDeliveries bounds how often one job id is delivered before Retry
	// drops it. Zero means unbounded.
	MaxDeliveries int

	// RedeliveryDelay is how long a retried delivery waits before it is
	// queued again.
	RedeliveryDelay time.Duration
}

// DefaultTaskQueueConfig returns a TaskQueueConfig with reasonable defaults
func DefaultTaskQueueConfig() TaskQueueConfig {
	return TaskQueueConfig{
		Size:            100,
		MaxDeliveries:   10,
		RedeliveryDelay: 5 * time.Second,
	}
}

// TaskQueue is a buffered in-memory Queue.
// Nothing survives a restart; the Runner's recovery sweep requeues pending
// jobs from the job store instead.
type TaskQueue struct {
	deliveries chan Delivery
	config     TaskQueueConfig
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
	timers map[*time.Timer]struct{}

	dropped atomic.Int64
}

var _ Queue = (*TaskQueue)(nil)

// NewTaskQueue creates a new in-memory queue.
func NewTaskQueue(config TaskQueueConfig, logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Size <= 0 {
		config.Size = DefaultTaskQueueConfig().Size
	}
	return &TaskQueue{
		deliveries: make(chan Delivery, config.Size),
		config:     config,
		logger:     logger.With("component", "task_queue"),
		timers:     make(map[*time.Timer]struct{}),
	}
}

// Publish adds a job id to the queue.
// Returns ErrQueueFull if the buffer is full and ErrQueueClosed after Close.
func (q *TaskQueue) Publish(ctx context.Context, jobID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return q.enqueue(&memoryDelivery{queue: q, jobID: jobID, attempt: 1})
}

func (q *TaskQueue) enqueue(d *memoryDelivery) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.deliveries <- d:
		q.logger.Debug("job enqueued",
			"job_id", d.jobID,
			"attempt", d.attempt,
			"queue_len", len(q.deliveries),
			"queue_cap", cap(q.deliveries))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.deliveries))
	}
}

// Deliveries implements Queue.
func (q *TaskQueue) Deliveries() <-chan Delivery {
	return q.deliveries
}

// Close closes the queue, preventing further publishing and cancelling
// pending redeliveries.
func (q *TaskQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	for t := range q.timers {
		t.Stop()
	}
	q.timers = nil
	close(q.deliveries)
	q.logger.Info("task queue closed")
	return nil
}

// Len returns the number of deliveries waiting in the buffer.
func (q *TaskQueue) Len() int {
	return len(q.deliveries)
}

// Dropped returns how many deliveries were discarded by Reject or by
// exceeding MaxDeliveries.
func (q *TaskQueue) Dropped() int64 {
	return q.dropped.Load()
}

// redeliver queues the next attempt of d, after the configured delay.
func (q *TaskQueue) redeliver(d *memoryDelivery) error {
	if q.config.MaxDeliveries > 0 && d.attempt >= q.config.MaxDeliveries {
		q.dropped.Add(1)
		q.logger.Error("delivery limit reached, dropping job",
			"job_id", d.jobID,
			"attempt", d.attempt,
			"max_deliveries", q.config.MaxDeliveries)
		return nil
	}

	next := &memoryDelivery{queue: q, jobID: d.jobID, attempt: d.attempt + 1}
	if q.config.RedeliveryDelay <= 0 {
		return q.enqueue(next)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	var timer *time.Timer
	timer = time.AfterFunc(q.config.RedeliveryDelay, func() {
		q.mu.Lock()
		delete(q.timers, timer)
		q.mu.Unlock()

		if err := q.enqueue(next); err != nil {
			q.logger.Error("failed to redeliver job",
				"job_id", next.jobID,
				"attempt", next.attempt,
				"error", err)
		}
	})
	q.timers[timer] = struct{}{}
	return nil
}

// memoryDelivery is a Delivery from a TaskQueue.
type memoryDelivery struct {
	queue   *TaskQueue
	jobID   uuid.UUID
	attempt int
	settled atomic.Bool
}

func (d *memoryDelivery) JobID() uuid.UUID { return d.jobID }
func (d *memoryDelivery) Attempt() int     { return d.attempt }

func (d *memoryDelivery) Ack() error {
	if !d.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	return nil
}

func (d *memoryDelivery) Retry() error {
	if !d.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	return d.queue.redeliver(d)
}

func (d *memoryDelivery) Reject() error {
	if !d.settled.CompareAndSwap(false, true) {
		return ErrAlreadySettled
	}
	d.queue.dropped.Add(1)
	d.queue.logger.Warn("delivery rejected", "job_id", d.jobID, "attempt", d.attempt)
	return nil
}
