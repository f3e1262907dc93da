package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/content-repurposer/internal/api"
	apiMiddleware "github.com/phrazzld/content-repurposer/internal/api/middleware"
)

// requestTimeout bounds API handlers. Generation happens in the worker, so
// requests only touch the database and the queue.
const requestTimeout = 30 * time.Second

// routerDeps are the handlers and middleware mounted by newRouter.
type routerDeps struct {
	jobHandler     *api.JobHandler
	healthHandler  *api.HealthHandler
	authMiddleware *apiMiddleware.AuthMiddleware
	logger         *slog.Logger
}

// setupRouter creates the router from the application's dependencies.
func (a *application) setupRouter() http.Handler {
	return newRouter(routerDeps{
		jobHandler:     api.NewJobHandler(a.core.Jobs, a.core.Outputs, a.core.Queue, a.logger),
		healthHandler:  api.NewHealthHandler(map[string]api.HealthCheck{"database": a.core.DB.PingContext}),
		authMiddleware: apiMiddleware.NewAuthMiddleware(a.jwtService),
		logger:         a.logger,
	})
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(deps.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.authMiddleware.Authenticate)

		r.Post("/content", deps.jobHandler.CreateContent)
		r.Get("/jobs/{id}", deps.jobHandler.GetJob)
	})

	r.Method(http.MethodGet, "/health", deps.healthHandler)

	return r
}
