package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/store"
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs
	WorkerCount int

	// RecoverOnStart requeues pending jobs and resets processing jobs when
	// the runner starts. Enable it for queues that lose their contents on
	// restart; a durable broker redelivers on its own.
	RecoverOnStart bool

	// StuckJobAge defines how long a job can sit in processing or pending
	// before it's considered stuck and requeued
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for stuck jobs
	// If zero, defaults to 5 minutes
	StuckJobCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:           2,
		RecoverOnStart:        true,
		StuckJobAge:           30 * time.Minute,
		StuckJobCheckInterval: 5 * time.Minute,
	}
}

// RunnerConfigFromWorker builds a RunnerConfig from the worker settings.
func RunnerConfigFromWorker(cfg config.WorkerConfig, recoverOnStart bool) RunnerConfig {
	return RunnerConfig{
		WorkerCount:           cfg.Count,
		RecoverOnStart:        recoverOnStart,
		StuckJobAge:           cfg.StuckJobAge,
		StuckJobCheckInterval: cfg.StuckJobCheckInterval,
	}
}

// Runner manages background job processing: it owns the queue and the
// worker pool and resets jobs abandoned in the processing state.
type Runner struct {
	jobs   store.JobStore
	queue  Queue
	pool   *WorkerPool
	config RunnerConfig
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a new Runner.
func NewRunner(jobs store.JobStore, queue Queue, handler JobHandler, config RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.StuckJobCheckInterval <= 0 {
		config.StuckJobCheckInterval = 5 * time.Minute
	}
	if config.StuckJobAge <= 0 {
		config.StuckJobAge = DefaultRunnerConfig().StuckJobAge
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		jobs:   jobs,
		queue:  queue,
		pool:   NewWorkerPool(queue, handler, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger),
		config: config,
		logger: logger.With("component", "runner"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit queues a job that has already been stored as pending.
func (r *Runner) Submit(ctx context.Context, jobID uuid.UUID) error {
	if err := r.queue.Publish(ctx, jobID); err != nil {
		return fmt.Errorf("submit job %s: %w", jobID, err)
	}
	return nil
}

// Start begins processing. With RecoverOnStart it first requeues
// unfinished jobs from the job store.
func (r *Runner) Start(ctx context.Context) error {
	r.pool.Start()

	if r.config.RecoverOnStart {
		if err := r.Recover(ctx); err != nil {
			return fmt.Errorf("failed to recover jobs: %w", err)
		}
	}

	r.wg.Add(1)
	go r.stuckJobMonitor()

	return nil
}

// Stop gracefully shuts down the runner, waiting for in-flight jobs until
// ctx expires, then closes the queue.
func (r *Runner) Stop(ctx context.Context) error {
	r.cancel()
	r.wg.Wait()

	poolErr := r.pool.Stop(ctx)
	if err := r.queue.Close(); err != nil {
		return errors.Join(poolErr, fmt.Errorf("close queue: %w", err))
	}
	return poolErr
}

// Recover requeues pending jobs and resets processing jobs, which were
// interrupted by a crash, back to pending before requeueing them.
func (r *Runner) Recover(ctx context.Context) error {
	pending, err := r.jobs.FindByStatus(ctx, domain.JobStatusPending, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	processing, err := r.jobs.FindByStatus(ctx, domain.JobStatusProcessing, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		"pending_count", len(pending),
		"processing_count", len(processing))

	for _, job := range pending {
		r.requeue(ctx, job.ID, "pending")
	}
	for _, job := range processing {
		if r.reset(ctx, job) {
			r.requeue(ctx, job.ID, "processing")
		}
	}
	return nil
}

// CheckStuckJobs requeues jobs that have not moved for longer than
// StuckJobAge: processing jobs whose worker died, and pending jobs whose
// queue message was lost. Both are stamped pending before they are
// republished. It returns the number requeued.
func (r *Runner) CheckStuckJobs(ctx context.Context) (int, error) {
	stuck, err := r.jobs.FindByStatus(ctx, domain.JobStatusProcessing, r.config.StuckJobAge, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to check for stuck jobs: %w", err)
	}
	orphaned, err := r.jobs.FindByStatus(ctx, domain.JobStatusPending, r.config.StuckJobAge, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to check for orphaned jobs: %w", err)
	}
	if len(stuck) == 0 && len(orphaned) == 0 {
		return 0, nil
	}

	r.logger.Info("found stale jobs",
		"processing_count", len(stuck),
		"pending_count", len(orphaned))

	requeued := 0
	for _, job := range stuck {
		if r.reset(ctx, job) && r.requeue(ctx, job.ID, "stuck") {
			requeued++
		}
	}
	for _, job := range orphaned {
		if r.reset(ctx, job) && r.requeue(ctx, job.ID, "orphaned") {
			requeued++
		}
	}
	return requeued, nil
}

// reset moves a job back to pending and refreshes its UpdatedAt, so a
// job still waiting in a backlog is not republished on every check.
func (r *Runner) reset(ctx context.Context, job *domain.Job) bool {
	if err := job.TransitionTo(domain.JobStatusPending); err != nil {
		r.logger.Error("failed to reset job status", "job_id", job.ID, "error", err)
		return false
	}
	if err := r.jobs.UpdateStatus(ctx, job); err != nil {
		r.logger.Error("failed to persist job reset", "job_id", job.ID, "error", err)
		return false
	}
	return true
}

func (r *Runner) requeue(ctx context.Context, jobID uuid.UUID, reason string) bool {
	if err := r.queue.Publish(ctx, jobID); err != nil {
		r.logger.Error("failed to requeue job",
			"job_id", jobID,
			"reason", reason,
			"error", err)
		return false
	}
	r.logger.Info("requeued job", "job_id", jobID, "reason", reason)
	return true
}

// stuckJobMonitor periodically resets jobs stuck in processing.
func (r *Runner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			if _, err := r.CheckStuckJobs(r.ctx); err != nil {
				r.logger.Error("stuck job check failed", "error", err)
			}
		}
	}
}
