package httpx

import (
	"log/slog"
	"net/http"

	"github.com/openutm/qualifier-host/internal/core"
	"github.com/openutm/qualifier-host/internal/service"
)

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	TestRuns *service.TestRunService
	Queue    core.JobQueue
	Logger   *slog.Logger
}

// NewRouter creates and configures the API router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	runHandlers := &TestRunHandlers{Svc: services.TestRuns}
	healthHandlers := &HealthHandlers{Queue: services.Queue}

	mux.HandleFunc("POST /api/test-runs", runHandlers.CreateTestRun)
	mux.HandleFunc("GET /api/test-runs/{id}", runHandlers.GetTestRun)
	mux.HandleFunc("GET /api/test-runs/{id}/report", runHandlers.GetReport)
	mux.HandleFunc("GET /api/test-runs/{id}/summary", runHandlers.GetReportSummary)
	mux.HandleFunc("GET /healthz", healthHandlers.Health)
	mux.HandleFunc("HEAD /healthz", healthHandlers.Health)

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
