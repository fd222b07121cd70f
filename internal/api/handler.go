// Package api exposes the controller's HTTP surface: pipeline and job
// management, push endpoints for queue callbacks and scheduled starts, log
// queries, and the admin operations.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pipeflow/internal/config"
	"pipeflow/internal/middleware"
	"pipeflow/internal/service/logs"
	"pipeflow/internal/service/pipeline"
	"pipeflow/internal/worker"
)

// Handler holds the services backing the HTTP surface.
type Handler struct {
	pipelines *pipeline.Service
	logs      *logs.Service
	registry  *worker.Registry
	logger    *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(pipelines *pipeline.Service, logSvc *logs.Service, registry *worker.Registry, logger *slog.Logger) *Handler {
	return &Handler{pipelines: pipelines, logs: logSvc, registry: registry, logger: logger}
}

// NewRouter assembles the chi router with the standard middleware stack.
func NewRouter(h *Handler, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/pipelines", func(r chi.Router) {
			r.Get("/", h.ListPipelines)
			r.Post("/", h.CreatePipeline)
			r.Post("/import", h.ImportPipeline)
			r.Route("/{pipelineID}", func(r chi.Router) {
				r.Get("/", h.GetPipeline)
				r.Put("/", h.UpdatePipeline)
				r.Delete("/", h.DeletePipeline)
				r.Patch("/run_on_schedule", h.SetRunOnSchedule)
				r.Post("/start", h.StartPipeline)
				r.Post("/stop", h.StopPipeline)
				r.Get("/export", h.ExportPipeline)
				r.Get("/logs", h.QueryLogs)
				r.Route("/jobs", func(r chi.Router) {
					r.Get("/", h.ListJobs)
					r.Post("/", h.CreateJob)
					r.Route("/{jobID}", func(r chi.Router) {
						r.Get("/", h.GetJob)
						r.Put("/", h.UpdateJob)
						r.Delete("/", h.DeleteJob)
					})
				})
			})
		})
		r.Get("/workers", h.ListWorkers)
		r.Get("/workers/{workerClass}/params", h.WorkerParams)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/reset", h.ResetStatuses)
			r.Get("/tasks", h.TasksInfo)
		})
	})

	r.Route("/push", func(r chi.Router) {
		r.Post("/task-finished", h.TaskFinished)
		r.Post("/start-pipeline", h.StartPipelines)
	})

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListWorkers returns the catalog of registered worker classes and their
// parameter schemas.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.registry.Specs())
}

// WorkerParams returns the parameter schema of one worker class.
func (h *Handler) WorkerParams(w http.ResponseWriter, r *http.Request) {
	wk, err := h.registry.Get(chi.URLParam(r, "workerClass"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	params := wk.Spec().Params
	if params == nil {
		params = []worker.ParamSpec{}
	}
	h.writeJSON(w, http.StatusOK, params)
}
