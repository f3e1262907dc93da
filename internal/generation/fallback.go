package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// FallbackProvider tries a primary provider and, on any error, a fallback.
// Which providers take part is decided when the chain is built, so callers
// only ever see a single Provider.
type FallbackProvider struct {
	primary  Provider
	fallback Provider
	logger   *slog.Logger
}

// NewFallbackProvider chains primary and fallback.
func NewFallbackProvider(primary, fallback Provider, logger *slog.Logger) *FallbackProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackProvider{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With("component", "fallback_provider"),
	}
}

// Name lists the chained providers in order.
func (p *FallbackProvider) Name() string {
	return p.primary.Name() + "," + p.fallback.Name()
}

// GenerateText returns the primary's reply, or the fallback's when the
// primary fails. If both fail the error joins both failures.
func (p *FallbackProvider) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	text, err := p.primary.GenerateText(ctx, req)
	if err == nil {
		recordProvider(ctx, p.primary.Name())
		return text, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	p.logger.WarnContext(ctx, "primary provider failed, using fallback",
		"op", "text",
		"primary", p.primary.Name(),
		"fallback", p.fallback.Name(),
		"error", err)

	text, fbErr := p.fallback.GenerateText(ctx, req)
	if fbErr != nil {
		return "", fmt.Errorf("%w: all providers failed: %w", ErrGenerationFailed, errors.Join(err, fbErr))
	}
	recordProvider(ctx, p.fallback.Name())
	return text, nil
}

// GenerateImage returns the primary's images, or the fallback's when the
// primary fails. Images are tagged with the provider that produced them.
func (p *FallbackProvider) GenerateImage(ctx context.Context, req ImageRequest) ([]Image, error) {
	images, err := p.primary.GenerateImage(ctx, req)
	if err == nil {
		return tagImages(images, p.primary.Name()), nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	p.logger.WarnContext(ctx, "primary provider failed, using fallback",
		"op", "image",
		"primary", p.primary.Name(),
		"fallback", p.fallback.Name(),
		"error", err)

	images, fbErr := p.fallback.GenerateImage(ctx, req)
	if fbErr != nil {
		return nil, fmt.Errorf("%w: all providers failed: %w", ErrGenerationFailed, errors.Join(err, fbErr))
	}
	return tagImages(images, p.fallback.Name()), nil
}

func tagImages(images []Image, name string) []Image {
	for i := range images {
		if images[i].Provider == "" {
			images[i].Provider = name
		}
	}
	return images
}

type providerTraceKey struct{}

type providerTrace struct {
	name string
}

// TrackProvider returns a context in which a FallbackProvider records the
// backend that answered a text request, and a function that reads it.
// The function returns "" when nothing was recorded. Use one context per
// call; with nested chains the innermost record wins.
func TrackProvider(ctx context.Context) (context.Context, func() string) {
	trace := &providerTrace{}
	return context.WithValue(ctx, providerTraceKey{}, trace), func() string { return trace.name }
}

func recordProvider(ctx context.Context, name string) {
	if trace, ok := ctx.Value(providerTraceKey{}).(*providerTrace); ok && trace.name == "" {
		trace.name = name
	}
}
