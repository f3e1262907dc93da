package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/content-repurposer/internal/generation"
)

var _ generation.Provider = (*MockProvider)(nil)

// MockProvider implements generation.Provider for testing.
// Without Fn overrides it returns Text and a single PNG-typed image.
type MockProvider struct {
	ProviderName string

	GenerateTextFn  func(ctx context.Context, req generation.TextRequest) (string, error)
	GenerateImageFn func(ctx context.Context, req generation.ImageRequest) ([]generation.Image, error)

	// Default response values
	Text  string
	Image []byte
	Err   error

	mu            sync.Mutex
	textCalls     []generation.TextRequest
	imageRequests []generation.ImageRequest
}

// Name implements generation.Provider.
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// GenerateText implements generation.Provider.
func (m *MockProvider) GenerateText(ctx context.Context, req generation.TextRequest) (string, error) {
	m.mu.Lock()
	m.textCalls = append(m.textCalls, req)
	m.mu.Unlock()

	if m.GenerateTextFn != nil {
		return m.GenerateTextFn(ctx, req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Text == "" {
		return "generated text", nil
	}
	return m.Text, nil
}

// GenerateImage implements generation.Provider.
func (m *MockProvider) GenerateImage(ctx context.Context, req generation.ImageRequest) ([]generation.Image, error) {
	m.mu.Lock()
	m.imageRequests = append(m.imageRequests, req)
	m.mu.Unlock()

	if m.GenerateImageFn != nil {
		return m.GenerateImageFn(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	data := m.Image
	if data == nil {
		data = []byte("\x89PNG\r\n\x1a\nmock")
	}
	return []generation.Image{{Data: data, MIMEType: "image/png", Provider: m.Name()}}, nil
}

// TextCalls returns the text requests received so far.
func (m *MockProvider) TextCalls() []generation.TextRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.TextRequest(nil), m.textCalls...)
}

// ImageCalls returns the image requests received so far.
func (m *MockProvider) ImageCalls() []generation.ImageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.ImageRequest(nil), m.imageRequests...)
}
