package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/store"
)

var _ store.OutputStore = (*MockOutputStore)(nil)

// MockOutputStore implements store.OutputStore in memory.
type MockOutputStore struct {
	mu      sync.Mutex
	outputs []*domain.ContentOutput

	CreateFn    func(ctx context.Context, output *domain.ContentOutput) error
	ListByJobFn func(ctx context.Context, jobID uuid.UUID) ([]*domain.ContentOutput, error)
}

// NewMockOutputStore creates an empty MockOutputStore.
func NewMockOutputStore() *MockOutputStore {
	return &MockOutputStore{}
}

// Create implements store.OutputStore.
func (m *MockOutputStore) Create(ctx context.Context, output *domain.ContentOutput) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(ctx, output); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs = append(m.outputs, output)
	return nil
}

// ListByJob implements store.OutputStore.
func (m *MockOutputStore) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.ContentOutput, error) {
	if m.ListByJobFn != nil {
		return m.ListByJobFn(ctx, jobID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.ContentOutput{}
	for _, out := range m.outputs {
		if out.JobID == jobID {
			result = append(result, out)
		}
	}
	return result, nil
}

// Outputs returns every stored output in insertion order.
func (m *MockOutputStore) Outputs() []*domain.ContentOutput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ContentOutput(nil), m.outputs...)
}
