// Package main implements the entry point for the content repurposer API
// server. It accepts blog posts, records repurposing jobs and reports their
// progress. With the in-memory queue it also runs the job worker, since
// jobs cannot leave the process.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/content-repurposer/internal/app"
	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/platform/logger"
	"github.com/phrazzld/content-repurposer/internal/service/auth"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"queue_backend", cfg.Queue.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.NewCore(ctx, cfg, log)
	if err != nil {
		return err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		_ = core.Close()
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	application := &application{
		config:     cfg,
		logger:     log,
		core:       core,
		jwtService: jwtService,
	}

	if core.InProcessQueue() {
		worker, err := app.NewWorker(ctx, core)
		if err != nil {
			_ = core.Close()
			return fmt.Errorf("failed to initialize embedded worker: %w", err)
		}
		application.worker = worker
		log.Info("in-memory queue selected; running the job worker in process")
	}

	return application.Run(ctx)
}
