package generation_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/content-repurposer/internal/generation"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// funcProvider is a Provider whose behaviour is set per test.
type funcProvider struct {
	name    string
	textFn  func(ctx context.Context, req generation.TextRequest) (string, error)
	imageFn func(ctx context.Context, req generation.ImageRequest) ([]generation.Image, error)
}

func (p *funcProvider) Name() string { return p.name }

func (p *funcProvider) GenerateText(ctx context.Context, req generation.TextRequest) (string, error) {
	return p.textFn(ctx, req)
}

func (p *funcProvider) GenerateImage(ctx context.Context, req generation.ImageRequest) ([]generation.Image, error) {
	return p.imageFn(ctx, req)
}

// recordingSleep records requested delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}
