// Package main implements the job worker. It consumes job IDs from the
// durable queue, runs the generation pipeline for each job and exposes
// Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/content-repurposer/internal/app"
	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/platform/logger"
)

// errInProcessQueue is returned when the worker is started with a queue
// that only the API server's process can feed.
var errInProcessQueue = errors.New("the memory queue backend runs the worker inside cmd/server; use the rabbitmq backend for a standalone worker")

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Queue.Backend == app.QueueBackendMemory {
		return errInProcessQueue
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("worker configuration loaded",
		"workers", cfg.Worker.Count,
		"max_concurrency", cfg.Worker.MaxConcurrency,
		"queue", cfg.Queue.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.NewCore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Error("failed to release resources", "error", err)
		}
	}()

	worker, err := app.NewWorker(ctx, core)
	if err != nil {
		return err
	}
	defer func() {
		if err := worker.Close(); err != nil {
			log.Error("failed to release worker resources", "error", err)
		}
	}()

	metricsServer := app.NewMetricsServer(cfg.Worker.MetricsPort)
	metricsErr := make(chan error, 1)
	go func() {
		log.Info("serving metrics", "port", cfg.Worker.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
	}()

	if err := worker.Runner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start job runner: %w", err)
	}
	log.Info("worker started")

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down worker")
	case err := <-metricsErr:
		runErr = fmt.Errorf("metrics server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := worker.Runner.Stop(shutdownCtx); err != nil {
		log.Error("job runner did not stop cleanly", "error", err)
		runErr = errors.Join(runErr, err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown failed", "error", err)
	}

	log.Info("worker shutdown completed")
	return runErr
}
