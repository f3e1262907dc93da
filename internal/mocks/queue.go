package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/task"
)

var (
	_ task.Queue     = (*MockQueue)(nil)
	_ task.Delivery  = (*MockDelivery)(nil)
	_ task.JobLocker = (*MockJobLocker)(nil)
)

// MockQueue implements task.Queue. Published ids are recorded; deliveries
// are whatever the test sends with Deliver.
type MockQueue struct {
	PublishFn func(ctx context.Context, jobID uuid.UUID) error

	mu        sync.Mutex
	published []uuid.UUID
	ch        chan task.Delivery
	closed    bool
}

// NewMockQueue creates a MockQueue whose delivery channel holds size items.
func NewMockQueue(size int) *MockQueue {
	return &MockQueue{ch: make(chan task.Delivery, size)}
}

// Publish implements task.Queue.
func (m *MockQueue) Publish(ctx context.Context, jobID uuid.UUID) error {
	if m.PublishFn != nil {
		if err := m.PublishFn(ctx, jobID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return task.ErrQueueClosed
	}
	m.published = append(m.published, jobID)
	return nil
}

// Deliveries implements task.Queue.
func (m *MockQueue) Deliveries() <-chan task.Delivery {
	return m.ch
}

// Close implements task.Queue.
func (m *MockQueue) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
	return nil
}

// Deliver hands d to the consumers.
func (m *MockQueue) Deliver(d task.Delivery) {
	m.ch <- d
}

// Published returns the ids passed to Publish.
func (m *MockQueue) Published() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.published...)
}

// Settlement values recorded by MockDelivery.
const (
	SettledAck    = "ack"
	SettledRetry  = "retry"
	SettledReject = "reject"
)

// MockDelivery implements task.Delivery and records how it was settled.
type MockDelivery struct {
	ID    uuid.UUID
	Count int

	mu      sync.Mutex
	settled []string
	done    chan struct{}
	once    sync.Once
}

// NewMockDelivery creates a first-attempt delivery for jobID.
func NewMockDelivery(jobID uuid.UUID) *MockDelivery {
	return &MockDelivery{ID: jobID, Count: 1, done: make(chan struct{})}
}

func (d *MockDelivery) JobID() uuid.UUID { return d.ID }
func (d *MockDelivery) Attempt() int     { return d.Count }
func (d *MockDelivery) Ack() error       { return d.settle(SettledAck) }
func (d *MockDelivery) Retry() error     { return d.settle(SettledRetry) }
func (d *MockDelivery) Reject() error    { return d.settle(SettledReject) }

func (d *MockDelivery) settle(how string) error {
	d.mu.Lock()
	d.settled = append(d.settled, how)
	d.mu.Unlock()
	d.once.Do(func() { close(d.done) })
	return nil
}

// Done is closed on the first settlement.
func (d *MockDelivery) Done() <-chan struct{} {
	return d.done
}

// Settlements returns every settlement call in order.
func (d *MockDelivery) Settlements() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.settled...)
}

// MockJobLocker implements task.JobLocker in memory.
type MockJobLocker struct {
	LockFn func(ctx context.Context, jobID uuid.UUID) (func(context.Context) error, error)

	mu       sync.Mutex
	held     map[uuid.UUID]bool
	Releases int
}

// Lock implements task.JobLocker.
func (m *MockJobLocker) Lock(ctx context.Context, jobID uuid.UUID) (func(context.Context) error, error) {
	if m.LockFn != nil {
		return m.LockFn(ctx, jobID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = make(map[uuid.UUID]bool)
	}
	if m.held[jobID] {
		return nil, task.ErrJobLocked
	}
	m.held[jobID] = true
	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, jobID)
		m.Releases++
		return nil
	}, nil
}

// Hold marks jobID as locked by someone else.
func (m *MockJobLocker) Hold(jobID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = make(map[uuid.UUID]bool)
	}
	m.held[jobID] = true
}

// ReleaseCount returns how many locks were released.
func (m *MockJobLocker) ReleaseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Releases
}
