// Package pipeline implements the pipeline orchestration service: CRUD over
// pipeline and job definitions, the execution state machine, result
// reconciliation, and the scheduled starter.
package pipeline

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"pipeflow/internal/domain"
)

// WorkerCatalog answers whether a worker class is registered. Worker classes
// are validated when definitions are created or imported, not at dispatch
// time.
type WorkerCatalog interface {
	Has(workerClass string) bool
}

// Service provides business logic for pipeline management and execution.
type Service struct {
	pipelines  domain.PipelineRepository
	jobs       domain.JobRepository
	store      domain.ExecutionStore
	dispatcher domain.Dispatcher
	logs       domain.LogRepository
	workers    WorkerCatalog
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new pipeline Service.
func NewService(
	pipelines domain.PipelineRepository,
	jobs domain.JobRepository,
	store domain.ExecutionStore,
	dispatcher domain.Dispatcher,
	logs domain.LogRepository,
	workers WorkerCatalog,
	logger *slog.Logger,
) *Service {
	return &Service{
		pipelines:  pipelines,
		jobs:       jobs,
		store:      store,
		dispatcher: dispatcher,
		logs:       logs,
		workers:    workers,
		logger:     logger,
		now:        time.Now,
	}
}

// === Pipeline CRUD ===

// CreatePipeline validates and persists a new pipeline definition.
func (s *Service) CreatePipeline(ctx context.Context, req domain.CreatePipelineRequest) (*domain.Pipeline, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, sched := range req.Schedules {
		if err := ValidateCron(sched.Cron); err != nil {
			return nil, err
		}
	}

	p := &domain.Pipeline{
		ID:                     domain.NewID(),
		Name:                   req.Name,
		EmailsForNotifications: req.EmailsForNotifications,
		RunOnSchedule:          req.RunOnSchedule,
	}
	for _, sched := range req.Schedules {
		p.Schedules = append(p.Schedules, domain.Schedule{Cron: sched.Cron})
	}
	for _, prm := range req.Params {
		p.Params = append(p.Params, domain.Param{
			Name: prm.Name, Type: prm.Type, Value: prm.Value, Label: prm.Label,
		})
	}

	created, err := s.pipelines.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info("pipeline created", "pipeline_id", created.ID, "name", created.Name)
	return created, nil
}

// GetPipeline returns a pipeline by id.
func (s *Service) GetPipeline(ctx context.Context, id string) (*domain.Pipeline, error) {
	return s.pipelines.GetByID(ctx, id)
}

// ListPipelines returns a filtered, paginated pipeline list.
func (s *Service) ListPipelines(ctx context.Context, filter domain.PipelineFilter) ([]domain.Pipeline, int64, error) {
	return s.pipelines.List(ctx, filter)
}

// UpdatePipeline applies partial updates to an idle pipeline. A blocked
// (active) pipeline cannot be edited.
func (s *Service) UpdatePipeline(ctx context.Context, id string, req domain.UpdatePipelineRequest) (*domain.Pipeline, error) {
	p, err := s.pipelines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsBlocked() {
		return nil, domain.ErrBlocked("editing of active pipeline is unavailable")
	}
	for _, sched := range req.Schedules {
		if err := ValidateCron(sched.Cron); err != nil {
			return nil, err
		}
	}
	for _, prm := range req.Params {
		if prm.Type != "" && !domain.ValidParamType(prm.Type) {
			return nil, domain.ErrValidation("unknown param type: %s", prm.Type)
		}
	}
	return s.pipelines.Update(ctx, id, req)
}

// SetRunOnSchedule toggles scheduled execution for a pipeline.
func (s *Service) SetRunOnSchedule(ctx context.Context, id string, runOnSchedule bool) (*domain.Pipeline, error) {
	return s.pipelines.SetRunOnSchedule(ctx, id, runOnSchedule)
}

// DeletePipeline removes an idle pipeline and everything it owns.
func (s *Service) DeletePipeline(ctx context.Context, id string) error {
	p, err := s.pipelines.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.IsBlocked() {
		return domain.ErrBlocked("removing of active pipeline is unavailable")
	}
	if err := s.pipelines.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("pipeline deleted", "pipeline_id", id, "name", p.Name)
	return nil
}

// === Job CRUD ===

// CreateJob validates and persists a new job on an idle pipeline.
func (s *Service) CreateJob(ctx context.Context, pipelineID string, req domain.CreateJobRequest) (*domain.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.pipelines.GetByID(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	if p.IsBlocked() {
		return nil, domain.ErrBlocked("editing of active pipeline is unavailable")
	}
	if !s.workers.Has(req.WorkerClass) {
		return nil, domain.ErrValidation("unknown worker class: %s", req.WorkerClass)
	}

	job := &domain.Job{
		ID:          domain.NewID(),
		PipelineID:  pipelineID,
		Name:        req.Name,
		WorkerClass: req.WorkerClass,
	}
	for _, prm := range req.Params {
		job.Params = append(job.Params, domain.Param{
			Name: prm.Name, Type: prm.Type, Value: prm.Value, Label: prm.Label,
		})
	}
	for _, c := range req.StartConditions {
		job.StartConditions = append(job.StartConditions, domain.StartCondition{
			PrecedingJobID: c.PrecedingJobID, Condition: c.Condition,
		})
	}

	existing, err := s.jobs.ListByPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	if err := ValidateGraph(append(existing, *job)); err != nil {
		return nil, err
	}

	return s.jobs.Create(ctx, job)
}

// GetJob returns a job by id, verifying pipeline ownership.
func (s *Service) GetJob(ctx context.Context, pipelineID, jobID string) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.PipelineID != pipelineID {
		return nil, domain.ErrNotFound("job %s not found in pipeline %s", jobID, pipelineID)
	}
	return job, nil
}

// ListJobs returns every job of a pipeline.
func (s *Service) ListJobs(ctx context.Context, pipelineID string) ([]domain.Job, error) {
	if _, err := s.pipelines.GetByID(ctx, pipelineID); err != nil {
		return nil, err
	}
	return s.jobs.ListByPipeline(ctx, pipelineID)
}

// UpdateJob applies partial updates to a job on an idle pipeline.
func (s *Service) UpdateJob(ctx context.Context, pipelineID, jobID string, req domain.UpdateJobRequest) (*domain.Job, error) {
	if _, err := s.GetJob(ctx, pipelineID, jobID); err != nil {
		return nil, err
	}
	p, err := s.pipelines.GetByID(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	if p.IsBlocked() {
		return nil, domain.ErrBlocked("editing of active pipeline is unavailable")
	}
	if req.WorkerClass != nil && !s.workers.Has(*req.WorkerClass) {
		return nil, domain.ErrValidation("unknown worker class: %s", *req.WorkerClass)
	}
	for _, c := range req.StartConditions {
		if !domain.ValidCondition(c.Condition) {
			return nil, domain.ErrValidation("unknown start condition kind: %s", c.Condition)
		}
	}

	if req.StartConditions != nil {
		existing, err := s.jobs.ListByPipeline(ctx, pipelineID)
		if err != nil {
			return nil, err
		}
		for i := range existing {
			if existing[i].ID != jobID {
				continue
			}
			existing[i].StartConditions = nil
			for _, c := range req.StartConditions {
				existing[i].StartConditions = append(existing[i].StartConditions, domain.StartCondition{
					JobID: jobID, PrecedingJobID: c.PrecedingJobID, Condition: c.Condition,
				})
			}
		}
		if err := ValidateGraph(existing); err != nil {
			return nil, err
		}
	}

	return s.jobs.Update(ctx, jobID, req)
}

// DeleteJob removes a job from an idle pipeline.
func (s *Service) DeleteJob(ctx context.Context, pipelineID, jobID string) error {
	if _, err := s.GetJob(ctx, pipelineID, jobID); err != nil {
		return err
	}
	p, err := s.pipelines.GetByID(ctx, pipelineID)
	if err != nil {
		return err
	}
	if p.IsBlocked() {
		return domain.ErrBlocked("editing of active pipeline is unavailable")
	}
	return s.jobs.Delete(ctx, jobID)
}

// === Admin ===

// TasksInfo reports outstanding task records across all pipelines.
func (s *Service) TasksInfo(ctx context.Context) (domain.TasksInfo, error) {
	return s.store.TasksInfo(ctx)
}

// ResetStatuses forces all jobs and pipelines back to idle in bounded
// batches and purges task records. Intended for recovery after an outage.
func (s *Service) ResetStatuses(ctx context.Context, batchSize int) error {
	if err := s.store.ResetStatuses(ctx, batchSize); err != nil {
		return err
	}
	s.logger.Warn("all job and pipeline statuses reset to idle")
	return nil
}

// === Helpers ===

// typedValue converts a stored string param value to the Go type implied by
// its declared param type.
func typedValue(p domain.Param) any {
	switch p.Type {
	case domain.ParamTypeNumber:
		if f, err := strconv.ParseFloat(p.Value, 64); err == nil {
			return f
		}
		return p.Value
	case domain.ParamTypeBoolean:
		return p.Value == "true" || p.Value == "True" || p.Value == "1"
	default:
		return p.Value
	}
}

// paramsMap converts ordered params to the map handed to workers.
func paramsMap(params []domain.Param) map[string]any {
	if len(params) == 0 {
		return nil
	}
	m := make(map[string]any, len(params))
	for _, p := range params {
		m[p.Name] = typedValue(p)
	}
	return m
}
