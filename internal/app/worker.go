package app

import (
	"context"
	"fmt"
	"io"

	"github.com/phrazzld/content-repurposer/internal/platform/redis"
	"github.com/phrazzld/content-repurposer/internal/storage"
	"github.com/phrazzld/content-repurposer/internal/task"
)

// Worker is a job runner with the resources it owns.
type Worker struct {
	Runner *task.Runner

	closers []func() error
}

// NewWorker wires the orchestrator, job processor and runner on top of
// core. The runner is returned unstarted.
func NewWorker(ctx context.Context, core *Core) (*Worker, error) {
	cfg := core.Config
	logger := core.Logger
	w := &Worker{}

	assets, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if c, ok := assets.(io.Closer); ok {
		w.closers = append(w.closers, c.Close)
	}

	provider, err := NewProvider(ctx, cfg.LLM, logger)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to initialize provider: %w", err)
	}
	logger.InfoContext(ctx, "generation provider ready", "provider", provider.Name())

	orchestrator, err := task.NewOrchestrator(core.Jobs, core.Outputs, provider, assets, task.OrchestratorConfig{
		MaxConcurrency: cfg.Worker.MaxConcurrency,
		ImageSize:      cfg.LLM.ImageSize,
	}, logger)
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	var opts []task.ProcessorOption
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		w.closers = append(w.closers, client.Close)
		opts = append(opts, task.WithJobLocker(redis.NewJobLocker(client, cfg.Redis.LockTTL, logger)))
		logger.InfoContext(ctx, "per-job processing lock enabled", "ttl", cfg.Redis.LockTTL)
	}

	processor := task.NewJobProcessor(core.Jobs, orchestrator, logger, opts...)

	// A durable broker redelivers unacknowledged jobs itself; the memory
	// queue starts empty and needs the store sweep.
	runnerCfg := task.RunnerConfigFromWorker(cfg.Worker, core.InProcessQueue())
	w.Runner = task.NewRunner(core.Jobs, core.Queue, processor, runnerCfg, logger)
	return w, nil
}

// Close releases the worker's own resources. The runner must be stopped first.
func (w *Worker) Close() error {
	var firstErr error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.closers = nil
	return firstErr
}
