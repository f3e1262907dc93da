package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/store"
)

var _ store.JobStore = (*MockJobStore)(nil)

// MockJobStore implements store.JobStore in memory.
// Stored jobs are copied on the way in and out so callers never share state
// with the store.
type MockJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]domain.Job

	// Updates records every job passed to UpdateStatus, in call order.
	Updates []domain.Job

	CreateFn       func(ctx context.Context, job *domain.Job) error
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	UpdateStatusFn func(ctx context.Context, job *domain.Job) error
	// RejectUpdate, when set, is consulted before a default UpdateStatus
	// writes; a non-nil error is returned and nothing is stored.
	RejectUpdate func(job *domain.Job) error
	FindByStatusFn func(ctx context.Context, status domain.JobStatus, olderThan time.Duration, limit int) ([]*domain.Job, error)
}

// NewMockJobStore creates a MockJobStore seeded with jobs.
func NewMockJobStore(jobs ...*domain.Job) *MockJobStore {
	m := &MockJobStore{jobs: make(map[uuid.UUID]domain.Job)}
	for _, job := range jobs {
		m.jobs[job.ID] = *job
	}
	return m
}

// Create implements store.JobStore.
func (m *MockJobStore) Create(ctx context.Context, job *domain.Job) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	if err := job.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jobs == nil {
		m.jobs = make(map[uuid.UUID]domain.Job)
	}
	if _, ok := m.jobs[job.ID]; ok {
		return store.ErrJobExists
	}
	m.jobs[job.ID] = *job
	return nil
}

// GetByID implements store.JobStore.
func (m *MockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return &job, nil
}

// UpdateStatus implements store.JobStore.
func (m *MockJobStore) UpdateStatus(ctx context.Context, job *domain.Job) error {
	m.mu.Lock()
	m.Updates = append(m.Updates, *job)
	m.mu.Unlock()

	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, job)
	}
	if m.RejectUpdate != nil {
		if err := m.RejectUpdate(job); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.jobs[job.ID]
	if !ok {
		return store.ErrJobNotFound
	}
	current.Status = job.Status
	current.ErrorMessage = job.ErrorMessage
	current.RetryCount = job.RetryCount
	current.CompletedAt = job.CompletedAt
	current.UpdatedAt = job.UpdatedAt
	m.jobs[job.ID] = current
	return nil
}

// FindByStatus implements store.JobStore.
func (m *MockJobStore) FindByStatus(
	ctx context.Context,
	status domain.JobStatus,
	olderThan time.Duration,
	limit int,
) ([]*domain.Job, error) {
	if m.FindByStatusFn != nil {
		return m.FindByStatusFn(ctx, status, olderThan, limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var found []*domain.Job
	for _, job := range m.jobs {
		if job.Status != status {
			continue
		}
		if olderThan > 0 && job.UpdatedAt.After(cutoff) {
			continue
		}
		job := job
		found = append(found, &job)
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].UpdatedAt.Before(found[j].UpdatedAt)
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

// Job returns the stored copy of a job, or nil.
func (m *MockJobStore) Job(id uuid.UUID) *domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil
	}
	return &job
}

// Put stores job as is, bypassing validation.
func (m *MockJobStore) Put(job *domain.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jobs == nil {
		m.jobs = make(map[uuid.UUID]domain.Job)
	}
	m.jobs[job.ID] = *job
}

// UpdateStatuses returns the statuses passed to UpdateStatus, in call order.
func (m *MockJobStore) UpdateStatuses() []domain.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	statuses := make([]domain.JobStatus, len(m.Updates))
	for i, job := range m.Updates {
		statuses[i] = job.Status
	}
	return statuses
}
