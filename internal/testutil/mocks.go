// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"time"

	"pipeflow/internal/domain"
)

// === Pipeline Repository Mock ===

// MockPipelineRepo implements domain.PipelineRepository for testing.
type MockPipelineRepo struct {
	CreateFn           func(ctx context.Context, p *domain.Pipeline) (*domain.Pipeline, error)
	GetByIDFn          func(ctx context.Context, id string) (*domain.Pipeline, error)
	ListFn             func(ctx context.Context, filter domain.PipelineFilter) ([]domain.Pipeline, int64, error)
	ListScheduledFn    func(ctx context.Context) ([]domain.Pipeline, error)
	UpdateFn           func(ctx context.Context, id string, req domain.UpdatePipelineRequest) (*domain.Pipeline, error)
	SetRunOnScheduleFn func(ctx context.Context, id string, runOnSchedule bool) (*domain.Pipeline, error)
	DeleteFn           func(ctx context.Context, id string) error
}

func (m *MockPipelineRepo) Create(ctx context.Context, p *domain.Pipeline) (*domain.Pipeline, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return p, nil
}

func (m *MockPipelineRepo) GetByID(ctx context.Context, id string) (*domain.Pipeline, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockPipelineRepo.GetByID")
}

func (m *MockPipelineRepo) List(ctx context.Context, filter domain.PipelineFilter) ([]domain.Pipeline, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	panic("unexpected call to MockPipelineRepo.List")
}

func (m *MockPipelineRepo) ListScheduled(ctx context.Context) ([]domain.Pipeline, error) {
	if m.ListScheduledFn != nil {
		return m.ListScheduledFn(ctx)
	}
	panic("unexpected call to MockPipelineRepo.ListScheduled")
}

func (m *MockPipelineRepo) Update(ctx context.Context, id string, req domain.UpdatePipelineRequest) (*domain.Pipeline, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, req)
	}
	panic("unexpected call to MockPipelineRepo.Update")
}

func (m *MockPipelineRepo) SetRunOnSchedule(ctx context.Context, id string, runOnSchedule bool) (*domain.Pipeline, error) {
	if m.SetRunOnScheduleFn != nil {
		return m.SetRunOnScheduleFn(ctx, id, runOnSchedule)
	}
	panic("unexpected call to MockPipelineRepo.SetRunOnSchedule")
}

func (m *MockPipelineRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	panic("unexpected call to MockPipelineRepo.Delete")
}

var _ domain.PipelineRepository = (*MockPipelineRepo)(nil)

// === Job Repository Mock ===

// MockJobRepo implements domain.JobRepository for testing.
type MockJobRepo struct {
	CreateFn         func(ctx context.Context, job *domain.Job) (*domain.Job, error)
	GetByIDFn        func(ctx context.Context, id string) (*domain.Job, error)
	ListByPipelineFn func(ctx context.Context, pipelineID string) ([]domain.Job, error)
	UpdateFn         func(ctx context.Context, id string, req domain.UpdateJobRequest) (*domain.Job, error)
	DeleteFn         func(ctx context.Context, id string) error
}

func (m *MockJobRepo) Create(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	return job, nil
}

func (m *MockJobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockJobRepo.GetByID")
}

func (m *MockJobRepo) ListByPipeline(ctx context.Context, pipelineID string) ([]domain.Job, error) {
	if m.ListByPipelineFn != nil {
		return m.ListByPipelineFn(ctx, pipelineID)
	}
	panic("unexpected call to MockJobRepo.ListByPipeline")
}

func (m *MockJobRepo) Update(ctx context.Context, id string, req domain.UpdateJobRequest) (*domain.Job, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, req)
	}
	panic("unexpected call to MockJobRepo.Update")
}

func (m *MockJobRepo) Delete(ctx context.Context, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	panic("unexpected call to MockJobRepo.Delete")
}

var _ domain.JobRepository = (*MockJobRepo)(nil)

// === Log Repository Mock ===

// MockLogRepo implements domain.LogRepository, collecting inserted entries
// for assertions.
type MockLogRepo struct {
	InsertFn func(ctx context.Context, e *domain.LogEntry) error
	QueryFn  func(ctx context.Context, pipelineID string, f domain.LogFilter) ([]domain.LogEntry, error)
	Entries  []domain.LogEntry
}

func (m *MockLogRepo) Insert(ctx context.Context, e *domain.LogEntry) error {
	if m.InsertFn != nil {
		if err := m.InsertFn(ctx, e); err != nil {
			return err
		}
	}
	m.Entries = append(m.Entries, *e)
	return nil
}

func (m *MockLogRepo) Query(ctx context.Context, pipelineID string, f domain.LogFilter) ([]domain.LogEntry, error) {
	if m.QueryFn != nil {
		return m.QueryFn(ctx, pipelineID, f)
	}
	panic("unexpected call to MockLogRepo.Query")
}

// HasLevel returns true if any collected entry has the given log level.
func (m *MockLogRepo) HasLevel(level string) bool {
	for _, e := range m.Entries {
		if e.LogLevel == level {
			return true
		}
	}
	return false
}

var _ domain.LogRepository = (*MockLogRepo)(nil)

// === Dispatcher Mock ===

// MockDispatcher implements domain.Dispatcher, collecting dispatches for
// assertions.
type MockDispatcher struct {
	DispatchFn func(ctx context.Context, d domain.TaskDispatch) error
	Dispatches []domain.TaskDispatch
}

func (m *MockDispatcher) Dispatch(ctx context.Context, d domain.TaskDispatch) error {
	if m.DispatchFn != nil {
		if err := m.DispatchFn(ctx, d); err != nil {
			return err
		}
	}
	m.Dispatches = append(m.Dispatches, d)
	return nil
}

// WorkerClasses returns the worker classes dispatched, in order.
func (m *MockDispatcher) WorkerClasses() []string {
	out := make([]string, len(m.Dispatches))
	for i, d := range m.Dispatches {
		out[i] = d.WorkerClass
	}
	return out
}

var _ domain.Dispatcher = (*MockDispatcher)(nil)

// === Worker Catalog Mock ===

// MockWorkerCatalog reports the configured classes as registered. A nil or
// empty Classes map accepts everything.
type MockWorkerCatalog struct {
	Classes map[string]bool
}

func (m *MockWorkerCatalog) Has(workerClass string) bool {
	if len(m.Classes) == 0 {
		return true
	}
	return m.Classes[workerClass]
}

// === In-memory Execution Store ===

// FakeExecutionStore is an in-memory domain.ExecutionStore for state-machine
// tests. Transactions are not isolated: mutations apply immediately, which
// matches the success paths the tests exercise.
type FakeExecutionStore struct {
	Pipelines map[string]*domain.Pipeline
	Jobs      map[string]*domain.Job
	JobOrder  []string
	Tasks     map[string]*domain.TaskEnqueued
}

// NewFakeExecutionStore creates an empty FakeExecutionStore.
func NewFakeExecutionStore() *FakeExecutionStore {
	return &FakeExecutionStore{
		Pipelines: make(map[string]*domain.Pipeline),
		Jobs:      make(map[string]*domain.Job),
		Tasks:     make(map[string]*domain.TaskEnqueued),
	}
}

// AddPipeline stores a pipeline.
func (s *FakeExecutionStore) AddPipeline(p domain.Pipeline) {
	s.Pipelines[p.ID] = &p
}

// AddJob stores a job, preserving insertion order for ListJobs.
func (s *FakeExecutionStore) AddJob(j domain.Job) {
	s.Jobs[j.ID] = &j
	s.JobOrder = append(s.JobOrder, j.ID)
}

// TaskNamesForJob returns the outstanding task names recorded for a job.
func (s *FakeExecutionStore) TaskNamesForJob(jobID string) []string {
	var names []string
	for name, t := range s.Tasks {
		if t.JobID == jobID {
			names = append(names, name)
		}
	}
	return names
}

func (s *FakeExecutionStore) WithTx(ctx context.Context, fn func(domain.ExecutionTx) error) error {
	return fn(&fakeTx{store: s})
}

func (s *FakeExecutionStore) TasksInfo(ctx context.Context) (domain.TasksInfo, error) {
	info := domain.TasksInfo{RunningTasksCount: int64(len(s.Tasks))}
	for _, t := range s.Tasks {
		if info.OldestTaskTime == nil || t.CreatedAt.Before(*info.OldestTaskTime) {
			created := t.CreatedAt
			info.OldestTaskTime = &created
		}
	}
	return info, nil
}

func (s *FakeExecutionStore) ResetStatuses(ctx context.Context, batchSize int) error {
	for _, j := range s.Jobs {
		j.Status = domain.JobStatusIdle
		j.Message = ""
	}
	for _, p := range s.Pipelines {
		p.Status = domain.PipelineStatusIdle
		p.StopRequested = false
		p.Message = ""
	}
	s.Tasks = make(map[string]*domain.TaskEnqueued)
	return nil
}

var _ domain.ExecutionStore = (*FakeExecutionStore)(nil)

type fakeTx struct {
	store *FakeExecutionStore
}

func (t *fakeTx) GetPipeline(id string) (*domain.Pipeline, error) {
	p, ok := t.store.Pipelines[id]
	if !ok {
		return nil, domain.ErrNotFound("pipeline %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (t *fakeTx) UpdatePipelineState(p *domain.Pipeline) error {
	stored, ok := t.store.Pipelines[p.ID]
	if !ok {
		return domain.ErrNotFound("pipeline %s not found", p.ID)
	}
	stored.Status = p.Status
	stored.Message = p.Message
	stored.StopRequested = p.StopRequested
	return nil
}

func (t *fakeTx) ListJobs(pipelineID string) ([]domain.Job, error) {
	var jobs []domain.Job
	for _, id := range t.store.JobOrder {
		if j := t.store.Jobs[id]; j.PipelineID == pipelineID {
			jobs = append(jobs, *j)
		}
	}
	return jobs, nil
}

func (t *fakeTx) GetJob(id string) (*domain.Job, error) {
	j, ok := t.store.Jobs[id]
	if !ok {
		return nil, domain.ErrNotFound("job %s not found", id)
	}
	cp := *j
	return &cp, nil
}

func (t *fakeTx) SetJobStatus(id, status, message string) error {
	j, ok := t.store.Jobs[id]
	if !ok {
		return domain.ErrNotFound("job %s not found", id)
	}
	j.Status = status
	j.Message = message
	return nil
}

func (t *fakeTx) CreateTask(task *domain.TaskEnqueued) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	cp := *task
	t.store.Tasks[task.Name] = &cp
	return nil
}

func (t *fakeTx) GetTask(jobID, name string) (*domain.TaskEnqueued, error) {
	task, ok := t.store.Tasks[name]
	if !ok || task.JobID != jobID {
		return nil, domain.ErrNotFound("task %s not found for job %s", name, jobID)
	}
	cp := *task
	return &cp, nil
}

func (t *fakeTx) DeleteTask(jobID, name string) error {
	task, ok := t.store.Tasks[name]
	if !ok || task.JobID != jobID {
		return domain.ErrNotFound("task %s not found for job %s", name, jobID)
	}
	delete(t.store.Tasks, name)
	return nil
}

func (t *fakeTx) CountTasksForJob(jobID string) (int64, error) {
	var n int64
	for _, task := range t.store.Tasks {
		if task.JobID == jobID {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) CountTasksForPipeline(pipelineID string) (int64, error) {
	var n int64
	for _, task := range t.store.Tasks {
		if j, ok := t.store.Jobs[task.JobID]; ok && j.PipelineID == pipelineID {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) DeleteTasksForPipeline(pipelineID string) error {
	for name, task := range t.store.Tasks {
		if j, ok := t.store.Jobs[task.JobID]; ok && j.PipelineID == pipelineID {
			delete(t.store.Tasks, name)
		}
	}
	return nil
}

var _ domain.ExecutionTx = (*fakeTx)(nil)
