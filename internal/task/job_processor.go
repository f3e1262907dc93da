package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/metrics"
	"github.com/phrazzld/content-repurposer/internal/redact"
	"github.com/phrazzld/content-repurposer/internal/store"
)

// MaxErrorMessageLength is the longest error message persisted on a job.
const MaxErrorMessageLength = 1000

// ResultStatus summarizes one processing attempt.
type ResultStatus string

// Possible result status values
const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// Result describes what one ProcessJob call did.
type Result struct {
	Status    ResultStatus     `json:"status"`
	JobID     uuid.UUID        `json:"job_id"`
	JobStatus domain.JobStatus `json:"job_status,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// JobRunner runs a single attempt of a job. Orchestrator implements it.
type JobRunner interface {
	Process(ctx context.Context, job *domain.Job) (*domain.Job, error)
}

// JobHandler processes a job by id. JobProcessor implements it.
type JobHandler interface {
	ProcessJob(ctx context.Context, jobID uuid.UUID) (Result, error)
}

// ProcessorOption configures a JobProcessor.
type ProcessorOption func(*JobProcessor)

// WithJobLocker makes the processor hold a per-job lock while it works.
func WithJobLocker(l JobLocker) ProcessorOption {
	return func(p *JobProcessor) {
		p.locker = l
	}
}

// JobProcessor applies the whole-job retry policy around a JobRunner.
//
// The returned error tells the transport how to settle the delivery:
// nil means ack, ErrJobFailed means ack without redelivery, and anything
// else (ErrRetryScheduled, ErrJobLocked, store failures) means redeliver.
type JobProcessor struct {
	jobs   store.JobStore
	runner JobRunner
	locker JobLocker
	logger *slog.Logger
}

// NewJobProcessor creates a JobProcessor.
func NewJobProcessor(jobs store.JobStore, runner JobRunner, logger *slog.Logger, opts ...ProcessorOption) *JobProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &JobProcessor{
		jobs:   jobs,
		runner: runner,
		logger: logger.With("component", "job_processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessJob loads the job and runs one attempt of it.
func (p *JobProcessor) ProcessJob(ctx context.Context, jobID uuid.UUID) (Result, error) {
	log := p.logger.With("job_id", jobID)
	result := Result{Status: ResultError, JobID: jobID}

	if p.locker != nil {
		unlock, err := p.locker.Lock(ctx, jobID)
		if err != nil {
			if errors.Is(err, ErrJobLocked) {
				log.Info("job is being processed by another worker")
				result.Message = "job is locked by another worker"
				return result, err
			}
			return result, fmt.Errorf("acquire job lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to release job lock", "error", err)
			}
		}()
	}

	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("job not found, dropping delivery")
			result.Message = "job not found"
			return result, nil
		}
		return result, fmt.Errorf("load job: %w", err)
	}

	if job.Status.IsTerminal() {
		log.Info("job already finished, skipping", "status", job.Status)
		result.Status = ResultSuccess
		result.JobStatus = job.Status
		result.Message = "job already finished"
		return result, nil
	}

	log.Info("processing job", "status", job.Status, "retry_count", job.RetryCount)

	processed, runErr := p.runner.Process(ctx, job)
	if processed != nil {
		job = processed
	}
	if runErr == nil {
		metrics.JobsTotal.WithLabelValues(string(domain.JobStatusCompleted)).Inc()
		log.Info("job completed")
		result.Status = ResultSuccess
		result.JobStatus = job.Status
		return result, nil
	}

	// A shutdown mid-run does not consume a retry. The job stays where it
	// is and the delivery is returned to the queue.
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Warn("job interrupted", "error", runErr)
		result.JobStatus = job.Status
		result.Message = "job interrupted"
		return result, fmt.Errorf("job interrupted: %w", errors.Join(runErr, ctxErr))
	}

	return p.handleFailure(ctx, log, job, runErr)
}

// handleFailure either schedules another attempt or fails the job.
func (p *JobProcessor) handleFailure(
	ctx context.Context,
	log *slog.Logger,
	job *domain.Job,
	runErr error,
) (Result, error) {
	result := Result{Status: ResultError, JobID: job.ID}
	reason := redact.Error(runErr)

	// A runner that failed after moving the job to a terminal state in
	// memory has not persisted it. Retry state goes onto the stored record.
	if job.Status.IsTerminal() {
		stored, err := p.jobs.GetByID(ctx, job.ID)
		if err != nil {
			return result, errors.Join(runErr, fmt.Errorf("reload job: %w", err))
		}
		job = stored
	}

	var marker error
	if job.CanRetry() {
		if err := job.ScheduleRetry(reason); err != nil {
			return result, errors.Join(runErr, err)
		}
		marker = ErrRetryScheduled
	} else {
		if err := job.Fail(reason); err != nil {
			return result, errors.Join(runErr, err)
		}
		marker = ErrJobFailed
	}
	job.ErrorMessage = truncateMessage(job.ErrorMessage)

	if err := p.jobs.UpdateStatus(ctx, job); err != nil {
		log.Error("failed to persist job failure state",
			"error", err,
			"status", job.Status,
			"run_error", redact.Error(runErr))
		result.Message = "failed to persist job state"
		return result, errors.Join(runErr, fmt.Errorf("persist job state: %w", err))
	}

	metrics.JobsTotal.WithLabelValues(string(job.Status)).Inc()
	result.JobStatus = job.Status
	result.Message = job.ErrorMessage

	if marker == ErrRetryScheduled {
		log.Warn("job attempt failed, retry scheduled",
			"retry_count", job.RetryCount,
			"error", job.ErrorMessage)
	} else {
		log.Error("job failed permanently",
			"retry_count", job.RetryCount,
			"error", job.ErrorMessage)
	}
	return result, fmt.Errorf("%w: %w", marker, runErr)
}

// truncateMessage caps s at MaxErrorMessageLength runes, suffix included.
func truncateMessage(s string) string {
	if utf8.RuneCountInString(s) <= MaxErrorMessageLength {
		return s
	}
	return redact.Truncate(s, MaxErrorMessageLength-utf8.RuneCountInString(redact.TruncationSuffix))
}
