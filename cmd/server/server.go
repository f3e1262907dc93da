package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/content-repurposer/internal/app"
	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/service/auth"
)

// application holds the server's dependencies and owns their shutdown.
type application struct {
	config     *config.Config
	logger     *slog.Logger
	core       *app.Core
	jwtService auth.JWTService

	// worker is set when jobs are processed in this process.
	worker *app.Worker
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts
// everything down within the configured timeout.
func (a *application) Run(ctx context.Context) error {
	if a.worker != nil {
		if err := a.worker.Runner.Start(ctx); err != nil {
			a.cleanup(context.Background())
			return fmt.Errorf("failed to start job runner: %w", err)
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:           a.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", "port", a.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down server")
	case err := <-serverErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown failed", "error", err)
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown failed: %w", err))
	}

	a.cleanup(shutdownCtx)
	a.logger.Info("server shutdown completed")
	return runErr
}

// cleanup stops the worker, then releases shared resources.
func (a *application) cleanup(ctx context.Context) {
	if a.worker != nil {
		if err := a.worker.Runner.Stop(ctx); err != nil {
			a.logger.Error("job runner did not stop cleanly", "error", err)
		}
		if err := a.worker.Close(); err != nil {
			a.logger.Error("failed to release worker resources", "error", err)
		}
	}
	if err := a.core.Close(); err != nil {
		a.logger.Error("failed to release resources", "error", err)
	}
}
