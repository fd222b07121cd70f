package domain

import "time"

// TaskEnqueued tracks one dispatched, still-outstanding unit of work for a
// job. The record lives from enqueue time until its result is consumed, and
// is the basis for duplicate/stale result detection.
type TaskEnqueued struct {
	Name      string // unique generated name, correlates dispatch and result
	JobID     string
	CreatedAt time.Time
}

// TaskDispatch describes a unit of work to hand to the task queue. Dispatches
// are collected inside the transaction that created their TaskEnqueued
// records and issued only after that transaction commits.
type TaskDispatch struct {
	TaskName    string
	PipelineID  string
	JobID       string
	WorkerClass string
	Params      map[string]any
	Delay       time.Duration
}

// Result is an asynchronous task-completion signal posted by a queue
// consumer. Delivery is at-least-once: the same result may arrive twice,
// late, or for a task record that no longer exists.
type Result struct {
	TaskName         string
	JobID            string
	Success          bool
	Message          string
	WorkersToEnqueue []WorkerEnqueue
}

// WorkerEnqueue is a follow-on (worker, params) pair requested by a worker,
// enqueued against the same job (continuation pattern).
type WorkerEnqueue struct {
	WorkerClass  string
	Params       map[string]any
	DelaySeconds int
}

// TasksInfo summarizes outstanding task records for the admin surface.
type TasksInfo struct {
	OldestTaskTime    *time.Time
	RunningTasksCount int64
}
