package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/content-repurposer/internal/metrics"
)

// DeliverySource provides the channel workers consume from.
// Queue implementations satisfy it.
type DeliverySource interface {
	Deliveries() <-chan Delivery
}

// WorkerPool manages a pool of worker goroutines that process deliveries
// from a queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// source provides the deliveries to be processed
	source DeliverySource

	// handler processes one job per delivery
	handler JobHandler

	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// stop tells workers to stop taking new deliveries
	stop     chan struct{}
	stopOnce sync.Once

	// ctx is passed to in-flight jobs and is cancelled only when a
	// graceful stop times out
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 2,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(source DeliverySource, handler JobHandler, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "worker_pool")

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		source:      source,
		handler:     handler,
		workerCount: workerCount,
		stop:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops taking new deliveries and waits for in-flight jobs.
// If ctx expires first, in-flight jobs are cancelled and Stop returns the
// context error once the workers have exited.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stop) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		p.logger.Warn("worker pool stop timed out, cancelling in-flight jobs")
		p.cancel()
		<-done
		return ctx.Err()
	}
}

// worker processes deliveries until the pool stops or the source closes.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	deliveries := p.source.Deliveries()
	for {
		// Prefer stopping over taking another delivery.
		select {
		case <-p.stop:
			p.logger.Debug("stopping worker", "worker_id", id)
			return
		default:
		}

		select {
		case <-p.stop:
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case d, ok := <-deliveries:
			if !ok {
				p.logger.Debug("delivery channel closed, stopping worker", "worker_id", id)
				return
			}
			p.process(d, id)
		}
	}
}

// process runs the handler for one delivery and settles it.
func (p *WorkerPool) process(d Delivery, workerID int) {
	logger := p.logger.With(
		"job_id", d.JobID(),
		"attempt", d.Attempt(),
		"worker_id", workerID,
	)

	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()

	result, err := p.handle(d)
	p.settle(d, result, err, logger)
}

// handle calls the handler, converting a panic into an error.
func (p *WorkerPool) handle(d Delivery) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()
	return p.handler.ProcessJob(p.ctx, d.JobID())
}

// settle acks finished work and returns everything else to the queue.
func (p *WorkerPool) settle(d Delivery, result Result, err error, logger *slog.Logger) {
	var (
		settlement string
		settleErr  error
	)

	switch {
	case err == nil:
		settlement = "ack"
		settleErr = d.Ack()
	case errors.Is(err, ErrJobFailed):
		settlement = "ack_failed"
		settleErr = d.Ack()
	default:
		settlement = "retry"
		if !errors.Is(err, ErrRetryScheduled) && !errors.Is(err, ErrJobLocked) {
			logger.Error("job processing error", "error", err)
		}
		settleErr = d.Retry()
	}

	metrics.DeliveriesTotal.WithLabelValues(settlement).Inc()
	if settleErr != nil {
		logger.Error("failed to settle delivery",
			"settlement", settlement,
			"error", settleErr)
		return
	}
	logger.Debug("delivery settled",
		"settlement", settlement,
		"result_status", result.Status,
		"job_status", result.JobStatus)
}
