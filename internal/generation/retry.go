package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/phrazzld/content-repurposer/internal/config"
)

// RetryConfig controls how a Retrier spaces and bounds its attempts.
type RetryConfig struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt, before jitter.
	BaseDelay time.Duration

	// MaxDelay caps any single backoff.
	MaxDelay time.Duration

	// CallTimeout bounds each individual attempt. Zero disables the bound.
	CallTimeout time.Duration
}

// DefaultRetryConfig returns the settings used when nothing is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		CallTimeout: 60 * time.Second,
	}
}

// RetryConfigFromLLM builds a RetryConfig from the llm configuration group.
func RetryConfigFromLLM(cfg config.LLMConfig) RetryConfig {
	return RetryConfig{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.RetryDelay,
		MaxDelay:    cfg.MaxRetryDelay,
		CallTimeout: cfg.CallTimeout,
	}
}

// RetryHook observes every scheduled retry. attempt is the attempt that failed.
type RetryHook func(op string, attempt int, err error)

// RetrierOption customises a Retrier.
type RetrierOption func(*Retrier)

// WithSleep replaces the function used to wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetrierOption {
	return func(r *Retrier) {
		r.sleep = sleep
	}
}

// WithJitter replaces the source of the jitter factor. f must return values in [0, 1).
func WithJitter(f func() float64) RetrierOption {
	return func(r *Retrier) {
		r.jitter = f
	}
}

// WithRetryHook registers a hook called before each backoff.
func WithRetryHook(hook RetryHook) RetrierOption {
	return func(r *Retrier) {
		r.hook = hook
	}
}

// Retrier runs calls with capped exponential backoff and jitter.
// Only errors classified by IsTransient are retried.
type Retrier struct {
	cfg    RetryConfig
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
	hook   RetryHook
}

// NewRetrier creates a Retrier. Non-positive settings fall back to
// DefaultRetryConfig values.
func NewRetrier(cfg RetryConfig, logger *slog.Logger, opts ...RetrierOption) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultRetryConfig()
	if cfg.MaxAttempts < 1 {
		logger.Warn("invalid max attempts value, using default", "max_attempts", def.MaxAttempts)
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}

	var mu sync.Mutex
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	r := &Retrier{
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
		jitter: func() float64 {
			mu.Lock()
			defer mu.Unlock()
			return rng.Float64()
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective settings.
func (r *Retrier) Config() RetryConfig {
	return r.cfg
}

// Backoff returns the delay after the given failed attempt (1-indexed):
// BaseDelay * 2^(attempt-1) scaled by a jitter factor in [0.5, 1.0),
// capped at MaxDelay.
func (r *Retrier) Backoff(attempt int) time.Duration {
	return r.scaled(attempt, 0.5+r.jitter()*0.5)
}

// ExpectedBackoff is the jitter-free midpoint of Backoff. It never decreases
// as attempt grows.
func (r *Retrier) ExpectedBackoff(attempt int) time.Duration {
	return r.scaled(attempt, 0.75)
}

func (r *Retrier) scaled(attempt int, factor float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(r.cfg.BaseDelay) * math.Pow(2, float64(attempt-1)) * factor
	if delay > float64(r.cfg.MaxDelay) {
		return r.cfg.MaxDelay
	}
	return time.Duration(delay)
}

// Do calls fn until it succeeds, returns a non-transient error, or
// MaxAttempts calls have been made. Each call gets its own context bounded by
// CallTimeout; a call that overruns it counts as a transient failure unless
// ctx itself is done. When every attempt fails the returned error wraps
// ErrRetriesExhausted and the last failure.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%s cancelled after %d attempts: %w", op, attempt-1, errors.Join(err, lastErr))
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		err := r.call(ctx, fn)
		if err == nil {
			if attempt > 1 {
				r.logger.InfoContext(ctx, "call succeeded after retry",
					"op", op,
					"attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			r.logger.DebugContext(ctx, "permanent error, not retrying",
				"op", op,
				"attempt", attempt,
				"error", err)
			return err
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		delay := r.Backoff(attempt)
		r.logger.WarnContext(ctx, "transient error, retrying after delay",
			"op", op,
			"attempt", attempt,
			"max_attempts", r.cfg.MaxAttempts,
			"delay", delay,
			"error", err)
		if r.hook != nil {
			r.hook(op, attempt, err)
		}

		if err := r.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s cancelled during backoff after %d attempts: %w",
				op, attempt, errors.Join(err, lastErr))
		}
	}

	r.logger.WarnContext(ctx, "maximum retry attempts reached",
		"op", op,
		"max_attempts", r.cfg.MaxAttempts)
	return fmt.Errorf("%w: %s after %d attempts: %w",
		ErrRetriesExhausted, op, r.cfg.MaxAttempts, lastErr)
}

func (r *Retrier) call(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx := ctx
	if r.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.CallTimeout)
		defer cancel()
	}

	err := fn(callCtx)
	if err == nil || ctx.Err() != nil || errors.Is(err, ErrTransientFailure) {
		return err
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: call exceeded %s: %w", ErrTransientFailure, r.cfg.CallTimeout, err)
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryingProvider decorates a Provider so every call runs through a Retrier.
type RetryingProvider struct {
	next    Provider
	retrier *Retrier
}

// WithRetry wraps p with r.
func WithRetry(p Provider, r *Retrier) *RetryingProvider {
	return &RetryingProvider{next: p, retrier: r}
}

// Name returns the wrapped provider's name.
func (p *RetryingProvider) Name() string {
	return p.next.Name()
}

// GenerateText calls the wrapped provider until it succeeds or retries run out.
func (p *RetryingProvider) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	var text string
	err := p.retrier.Do(ctx, p.next.Name()+" text", func(ctx context.Context) error {
		out, err := p.next.GenerateText(ctx, req)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// GenerateImage calls the wrapped provider until it succeeds or retries run out.
func (p *RetryingProvider) GenerateImage(ctx context.Context, req ImageRequest) ([]Image, error) {
	var images []Image
	err := p.retrier.Do(ctx, p.next.Name()+" image", func(ctx context.Context) error {
		out, err := p.next.GenerateImage(ctx, req)
		if err != nil {
			return err
		}
		images = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}
