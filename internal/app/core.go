package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/platform/postgres"
	"github.com/phrazzld/content-repurposer/internal/platform/rabbitmq"
	"github.com/phrazzld/content-repurposer/internal/store"
	"github.com/phrazzld/content-repurposer/internal/task"
)

// Queue backend names accepted in config.QueueConfig.Backend.
const (
	QueueBackendMemory   = "memory"
	QueueBackendRabbitMQ = "rabbitmq"
)

// ErrUnknownQueueBackend is returned for an unsupported queue backend.
var ErrUnknownQueueBackend = errors.New("unknown queue backend")

// Core holds the dependencies shared by the API and the worker: the
// database, the job and output stores, and the job queue.
type Core struct {
	Config *config.Config
	Logger *slog.Logger

	DB      *sql.DB
	Jobs    store.JobStore
	Outputs store.OutputStore
	Queue   task.Queue

	closers []func() error
}

// NewCore connects to the database, applies migrations and opens the queue.
func NewCore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Core, error) {
	db, err := postgres.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	core := &Core{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Jobs:    postgres.NewPostgresJobStore(db),
		Outputs: postgres.NewPostgresOutputStore(db),
	}
	core.closers = append(core.closers, db.Close)

	if err := postgres.Migrate(ctx, db, logger); err != nil {
		_ = core.Close()
		return nil, err
	}

	core.Queue, err = NewQueue(ctx, cfg, logger)
	if err != nil {
		_ = core.Close()
		return nil, err
	}
	core.closers = append(core.closers, core.Queue.Close)

	return core, nil
}

// InProcessQueue reports whether jobs only reach workers in this process.
func (c *Core) InProcessQueue() bool {
	return c.Config.Queue.Backend == QueueBackendMemory
}

// Close releases resources in reverse order of acquisition.
func (c *Core) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// NewQueue opens the queue selected by cfg.Queue.Backend.
func NewQueue(ctx context.Context, cfg *config.Config, logger *slog.Logger) (task.Queue, error) {
	switch cfg.Queue.Backend {
	case QueueBackendMemory:
		return task.NewTaskQueue(task.TaskQueueConfig{
			Size:            cfg.Queue.Size,
			MaxDeliveries:   cfg.Queue.MaxDeliveries,
			RedeliveryDelay: cfg.Queue.RedeliveryDelay,
		}, logger), nil
	case QueueBackendRabbitMQ:
		q, err := rabbitmq.Dial(ctx, rabbitmq.ConfigFrom(cfg.Queue, cfg.Worker.Count), logger)
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueueBackend, cfg.Queue.Backend)
	}
}
