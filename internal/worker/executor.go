package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/hibiken/asynq"

	"pipeflow/internal/taskqueue"
)

// Executor is the queue-side task handler: it decodes a dispatched payload,
// runs the named worker, and posts the outcome back to the controller.
type Executor struct {
	registry *Registry
	results  *taskqueue.ResultClient
	logger   *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(registry *Registry, results *taskqueue.ResultClient, logger *slog.Logger) *Executor {
	return &Executor{registry: registry, results: results, logger: logger}
}

// ProcessTask implements asynq.Handler. Worker failures are reported to the
// controller as failed results, not as handler errors; only a failure to
// deliver the result is returned so the queue redelivers the task.
func (e *Executor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := taskqueue.DecodePayload(t)
	if err != nil {
		// Malformed payloads can never succeed; retrying is pointless.
		e.logger.Error("dropping malformed task", "error", err)
		return nil
	}

	logger := e.logger.With(
		"task_name", payload.TaskName,
		"pipeline_id", payload.PipelineID,
		"job_id", payload.JobID,
		"worker_class", payload.WorkerClass,
	)

	res := taskqueue.ResultPayload{
		TaskName: payload.TaskName,
		JobID:    payload.JobID,
		Success:  true,
	}

	w, err := e.registry.Get(payload.WorkerClass)
	if err != nil {
		logger.Error("unknown worker class")
		res.Success = false
		res.Message = fmt.Sprintf("unknown worker class: %s", payload.WorkerClass)
	} else {
		inv := &Invocation{
			TaskName:   payload.TaskName,
			PipelineID: payload.PipelineID,
			JobID:      payload.JobID,
			Params:     payload.Params,
			Logger:     logger,
		}
		logger.Info("task execution started")
		if execErr := e.run(ctx, w, inv); execErr != nil {
			logger.Error("task execution failed", "error", execErr)
			res.Success = false
			res.Message = execErr.Error()
		} else {
			logger.Info("task execution finished", "followups", len(inv.Enqueues()))
			for _, f := range inv.Enqueues() {
				res.WorkersToEnqueue = append(res.WorkersToEnqueue, taskqueue.WorkerEnqueuePayload{
					WorkerClass:  f.WorkerClass,
					Params:       f.Params,
					DelaySeconds: f.DelaySeconds,
				})
			}
		}
	}

	if err := e.results.Post(ctx, res); err != nil {
		logger.Error("posting result failed", "error", err)
		return err
	}
	return nil
}

// run executes the worker with panic isolation: a panicking worker fails
// its task instead of taking the consumer process down.
func (e *Executor) run(ctx context.Context, w Worker, inv *Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			inv.Logger.Error("worker panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("worker panicked: %v", r)
		}
	}()
	return w.Execute(ctx, inv)
}
