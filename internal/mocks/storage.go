package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/content-repurposer/internal/storage"
)

var _ storage.Gateway = (*MockGateway)(nil)

// MockGateway implements storage.Gateway with an in-memory map.
// Locators are the keys prefixed with "mem://".
type MockGateway struct {
	mu      sync.Mutex
	objects map[string][]byte

	SaveFn   func(ctx context.Context, data []byte, key string) (string, error)
	DeleteFn func(ctx context.Context, locator string) error
}

// NewMockGateway creates an empty MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{objects: make(map[string][]byte)}
}

// Save implements storage.Gateway.
func (m *MockGateway) Save(ctx context.Context, data []byte, key string) (string, error) {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, data, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	locator := "mem://" + key
	m.objects[locator] = append([]byte(nil), data...)
	return locator, nil
}

// Load implements storage.Gateway.
func (m *MockGateway) Load(ctx context.Context, locator string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[locator]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

// Delete implements storage.Gateway.
func (m *MockGateway) Delete(ctx context.Context, locator string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, locator)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, locator)
	return nil
}

// Locators returns the locators currently stored.
func (m *MockGateway) Locators() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	locators := make([]string, 0, len(m.objects))
	for locator := range m.objects {
		locators = append(locators, locator)
	}
	return locators
}
