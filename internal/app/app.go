// Package app provides application-level wiring and dependency injection
// for the controller.
package app

import (
	"database/sql"
	"log/slog"

	"pipeflow/internal/config"
	"pipeflow/internal/db/repository"
	"pipeflow/internal/domain"
	"pipeflow/internal/service/logs"
	"pipeflow/internal/service/pipeline"
	"pipeflow/internal/worker"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, the queue dispatcher, and the logger.
type Deps struct {
	Cfg        *config.Config
	WriteDB    *sql.DB
	ReadDB     *sql.DB
	Dispatcher domain.Dispatcher
	Logger     *slog.Logger
}

// Services groups the service pointers the API handler and router need.
type Services struct {
	Pipeline *pipeline.Service
	Logs     *logs.Service
}

// App holds the fully-wired application.
type App struct {
	Services Services
	Registry *worker.Registry
}

// New wires repositories and services from the provided deps.
func New(deps Deps) *App {
	// Repositories. Writes go through the single-connection write pool;
	// the log query path reads from the read pool.
	pipelineRepo := repository.NewPipelineRepo(deps.WriteDB)
	jobRepo := repository.NewJobRepo(deps.WriteDB)
	execStore := repository.NewExecutionStore(deps.WriteDB)
	logWriteRepo := repository.NewLogRepo(deps.WriteDB)
	logReadRepo := repository.NewLogRepo(deps.ReadDB)

	registry := worker.DefaultRegistry()

	pipelineSvc := pipeline.NewService(
		pipelineRepo, jobRepo, execStore, deps.Dispatcher, logWriteRepo,
		registry, deps.Logger.With("component", "pipeline-service"),
	)
	logsSvc := logs.NewService(pipelineRepo, logReadRepo, deps.Logger.With("component", "logs-service"))

	return &App{
		Services: Services{
			Pipeline: pipelineSvc,
			Logs:     logsSvc,
		},
		Registry: registry,
	}
}
