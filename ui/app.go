package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"churnscope/app"
	"churnscope/ports"
)

// App is the JSON API application: read access to stored runs and report
// tables, plus the trigger endpoint for new runs.
type App struct {
	router *chi.Mux
	reader ports.ReaderPort
	runner *app.RunService
}

// Config holds API application configuration
type Config struct {
	Port string
}

// NewApp creates the API application. The runner may be nil for read-only
// deployments; the trigger endpoint then reports the capability missing.
func NewApp(reader ports.ReaderPort, runner *app.RunService) *App {
	a := &App{
		router: chi.NewRouter(),
		reader: reader,
		runner: runner,
	}

	a.setupMiddleware()
	a.setupRoutes()

	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/api/health", a.handleHealth)

	a.router.Get("/api/runs", a.handleListRuns)
	a.router.Post("/api/runs", a.handleTriggerRun)
	a.router.Get("/api/runs/{id}", a.handleGetRun)
	a.router.Get("/api/runs/{id}/reports", a.handleListReports)
	a.router.Get("/api/runs/{id}/reports/{name}", a.handleGetReport)
}

// Router exposes the configured router for serving and testing
func (a *App) Router() http.Handler {
	return a.router
}

// Start starts the API server
func (a *App) Start(addr string) error {
	return http.ListenAndServe(addr, a.router)
}
