package domain

import "context"

// PipelineRepository persists pipeline definitions and their owned
// schedules and params.
type PipelineRepository interface {
	Create(ctx context.Context, p *Pipeline) (*Pipeline, error)
	GetByID(ctx context.Context, id string) (*Pipeline, error)
	List(ctx context.Context, filter PipelineFilter) ([]Pipeline, int64, error)
	// ListScheduled returns every pipeline with RunOnSchedule set, schedules
	// preloaded.
	ListScheduled(ctx context.Context) ([]Pipeline, error)
	Update(ctx context.Context, id string, req UpdatePipelineRequest) (*Pipeline, error)
	SetRunOnSchedule(ctx context.Context, id string, runOnSchedule bool) (*Pipeline, error)
	Delete(ctx context.Context, id string) error
}

// JobRepository persists job definitions, their params, and their start
// conditions.
type JobRepository interface {
	Create(ctx context.Context, job *Job) (*Job, error)
	GetByID(ctx context.Context, id string) (*Job, error)
	ListByPipeline(ctx context.Context, pipelineID string) ([]Job, error)
	Update(ctx context.Context, id string, req UpdateJobRequest) (*Job, error)
	Delete(ctx context.Context, id string) error
}

// ExecutionStore applies execution state transitions. WithTx runs fn inside
// a single metastore transaction so that two concurrent result callbacks for
// the same job cannot race on last-task-remaining detection.
type ExecutionStore interface {
	WithTx(ctx context.Context, fn func(ExecutionTx) error) error
	// TasksInfo reports the oldest outstanding task and the count of
	// outstanding tasks across all pipelines.
	TasksInfo(ctx context.Context) (TasksInfo, error)
	// ResetStatuses forces every job and pipeline back to idle and purges
	// task records, committing in bounded batches of batchSize rows.
	ResetStatuses(ctx context.Context, batchSize int) error
}

// ExecutionTx is the transactional view the state machine operates on.
type ExecutionTx interface {
	GetPipeline(id string) (*Pipeline, error)
	// UpdatePipelineState persists status, message, and stop_requested.
	UpdatePipelineState(p *Pipeline) error
	ListJobs(pipelineID string) ([]Job, error)
	GetJob(id string) (*Job, error)
	SetJobStatus(id, status, message string) error
	CreateTask(t *TaskEnqueued) error
	GetTask(jobID, name string) (*TaskEnqueued, error)
	DeleteTask(jobID, name string) error
	CountTasksForJob(jobID string) (int64, error)
	CountTasksForPipeline(pipelineID string) (int64, error)
	DeleteTasksForPipeline(pipelineID string) error
}

// LogRepository persists and queries execution log records.
type LogRepository interface {
	Insert(ctx context.Context, e *LogEntry) error
	// Query returns entries for a pipeline ordered by created_at descending.
	Query(ctx context.Context, pipelineID string, f LogFilter) ([]LogEntry, error)
}

// Dispatcher hands a unit of work to the external task queue. Delivery is
// at-least-once with no ordering guarantee and no cancellation primitive.
type Dispatcher interface {
	Dispatch(ctx context.Context, d TaskDispatch) error
}
