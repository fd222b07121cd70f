package pipeline

import (
	"context"
	"fmt"
	"time"

	"pipeflow/internal/domain"
)

// txOutcome collects side effects produced inside an execution transaction.
// Queue dispatches and log inserts touch other systems (or another pool
// connection) and are issued only after the transaction commits.
type txOutcome struct {
	dispatches []domain.TaskDispatch
	logEntries []domain.LogEntry
}

func (o *txOutcome) log(level, pipelineID, jobID, workerClass, msg string) {
	o.logEntries = append(o.logEntries, domain.LogEntry{
		PipelineID:  pipelineID,
		JobID:       jobID,
		WorkerClass: workerClass,
		LogLevel:    level,
		Message:     msg,
	})
}

// Start transitions a pipeline from a startable status into running: every
// job is reset to waiting, stale task records are purged, and each root job
// (no start conditions) gets one task dispatched.
func (s *Service) Start(ctx context.Context, id string) (*domain.Pipeline, error) {
	var out txOutcome
	err := s.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		p, err := tx.GetPipeline(id)
		if err != nil {
			return err
		}
		if !p.CanStart() {
			return domain.ErrBlocked("pipeline %q is %s and cannot be started", p.Name, p.Status)
		}

		jobs, err := tx.ListJobs(id)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			return domain.ErrValidation("pipeline %q has no jobs", p.Name)
		}
		if err := ValidateGraph(jobs); err != nil {
			return err
		}

		// Leftover records from a previous run would let a stale result
		// masquerade as fresh.
		if err := tx.DeleteTasksForPipeline(id); err != nil {
			return err
		}

		p.Status = domain.PipelineStatusRunning
		p.Message = ""
		p.StopRequested = false
		if err := tx.UpdatePipelineState(p); err != nil {
			return err
		}

		for i := range jobs {
			if err := tx.SetJobStatus(jobs[i].ID, domain.JobStatusWaiting, ""); err != nil {
				return err
			}
			jobs[i].Status = domain.JobStatusWaiting
		}

		for i := range jobs {
			if !jobs[i].IsRoot() {
				continue
			}
			if err := s.startJobTx(tx, &out, p, &jobs[i]); err != nil {
				return err
			}
		}

		out.log(domain.LogLevelInfo, p.ID, "", "", "pipeline started")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finishTx(ctx, out)
	s.logger.Info("pipeline started", "pipeline_id", id)
	return s.pipelines.GetByID(ctx, id)
}

// Stop requests cancellation of a running pipeline. Tasks already handed to
// the queue cannot be revoked; their results are still consumed but no
// further work is enqueued. With no tasks in flight the pipeline finalizes
// immediately.
func (s *Service) Stop(ctx context.Context, id string) (*domain.Pipeline, error) {
	var out txOutcome
	err := s.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		p, err := tx.GetPipeline(id)
		if err != nil {
			return err
		}
		if p.Status != domain.PipelineStatusRunning {
			return domain.ErrValidation("pipeline %q is %s, only a running pipeline can be stopped", p.Name, p.Status)
		}

		p.StopRequested = true
		outstanding, err := tx.CountTasksForPipeline(id)
		if err != nil {
			return err
		}
		if outstanding == 0 {
			return s.finalizeTx(tx, &out, p)
		}

		p.Status = domain.PipelineStatusStopping
		if err := tx.UpdatePipelineState(p); err != nil {
			return err
		}
		out.log(domain.LogLevelInfo, p.ID, "", "",
			fmt.Sprintf("stop requested, %d task(s) still in flight", outstanding))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finishTx(ctx, out)
	s.logger.Info("pipeline stop requested", "pipeline_id", id)
	return s.pipelines.GetByID(ctx, id)
}

// startJobTx moves a job to running and enqueues its initial task.
func (s *Service) startJobTx(tx domain.ExecutionTx, out *txOutcome, p *domain.Pipeline, job *domain.Job) error {
	if err := s.enqueueTaskTx(tx, out, p, job, job.WorkerClass, paramsMap(job.Params), 0); err != nil {
		return err
	}
	if err := tx.SetJobStatus(job.ID, domain.JobStatusRunning, ""); err != nil {
		return err
	}
	job.Status = domain.JobStatusRunning
	return nil
}

// enqueueTaskTx creates the outstanding-task record and stages the matching
// queue dispatch for after commit.
func (s *Service) enqueueTaskTx(tx domain.ExecutionTx, out *txOutcome, p *domain.Pipeline, job *domain.Job, workerClass string, params map[string]any, delaySeconds int) error {
	task := &domain.TaskEnqueued{
		Name:  domain.NewTaskName(),
		JobID: job.ID,
	}
	if err := tx.CreateTask(task); err != nil {
		return err
	}
	d := domain.TaskDispatch{
		TaskName:    task.Name,
		PipelineID:  p.ID,
		JobID:       job.ID,
		WorkerClass: workerClass,
		Params:      params,
	}
	if delaySeconds > 0 {
		d.Delay = time.Duration(delaySeconds) * time.Second
	}
	out.dispatches = append(out.dispatches, d)
	return nil
}

// enqueueAllowed reports whether new work may be enqueued for the pipeline.
// After a stop request, and once the pipeline has left its run (idle or
// succeeded), late results are consumed but enqueue nothing.
func enqueueAllowed(p *domain.Pipeline) bool {
	if p.StopRequested {
		return false
	}
	return p.Status != domain.PipelineStatusIdle && p.Status != domain.PipelineStatusSucceeded
}

// advanceTx runs after a job reaches a terminal status: it starts every
// waiting job whose conditions are now satisfied, then finalizes the
// pipeline if no tasks remain outstanding.
func (s *Service) advanceTx(tx domain.ExecutionTx, out *txOutcome, p *domain.Pipeline) error {
	jobs, err := tx.ListJobs(p.ID)
	if err != nil {
		return err
	}
	statusByID := make(map[string]string, len(jobs))
	for i := range jobs {
		statusByID[jobs[i].ID] = jobs[i].Status
	}

	if enqueueAllowed(p) {
		// A newly started job can never satisfy another waiting job's
		// conditions (it is running, not terminal), so one pass suffices.
		for i := range jobs {
			if jobs[i].Status != domain.JobStatusWaiting || jobs[i].IsRoot() {
				continue
			}
			satisfied := true
			for _, c := range jobs[i].StartConditions {
				if !c.Satisfied(statusByID[c.PrecedingJobID]) {
					satisfied = false
					break
				}
			}
			if !satisfied {
				continue
			}
			if err := s.startJobTx(tx, out, p, &jobs[i]); err != nil {
				return err
			}
			statusByID[jobs[i].ID] = domain.JobStatusRunning
		}
	}

	outstanding, err := tx.CountTasksForPipeline(p.ID)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return nil
	}
	return s.finalizeTx(tx, out, p)
}

// finalizeTx ends the run: waiting or running leftovers go back to idle and
// the pipeline lands on failed or succeeded. A pipeline already marked
// failed never reverts to succeeded.
func (s *Service) finalizeTx(tx domain.ExecutionTx, out *txOutcome, p *domain.Pipeline) error {
	jobs, err := tx.ListJobs(p.ID)
	if err != nil {
		return err
	}

	anyFailed := false
	for i := range jobs {
		switch jobs[i].Status {
		case domain.JobStatusFailed:
			anyFailed = true
		case domain.JobStatusSucceeded:
		default:
			if err := tx.SetJobStatus(jobs[i].ID, domain.JobStatusIdle, ""); err != nil {
				return err
			}
		}
	}

	switch {
	case p.StopRequested:
		p.Status = domain.PipelineStatusFailed
		p.Message = "stopped by user"
	case anyFailed || p.Status == domain.PipelineStatusFailed:
		p.Status = domain.PipelineStatusFailed
		if p.Message == "" {
			p.Message = "one or more jobs failed"
		}
	default:
		p.Status = domain.PipelineStatusSucceeded
		p.Message = ""
	}
	if err := tx.UpdatePipelineState(p); err != nil {
		return err
	}

	out.log(domain.LogLevelInfo, p.ID, "", "",
		fmt.Sprintf("pipeline finished with status %s", p.Status))
	return nil
}

// finishTx flushes the side effects collected during a committed
// transaction: persisted log entries first, then queue dispatches.
func (s *Service) finishTx(ctx context.Context, out txOutcome) {
	for i := range out.logEntries {
		if err := s.logs.Insert(ctx, &out.logEntries[i]); err != nil {
			s.logger.Error("persisting execution log failed", "error", err)
		}
	}
	for _, d := range out.dispatches {
		if err := s.dispatcher.Dispatch(ctx, d); err != nil {
			// The task record exists but the queue never saw it; the job
			// stays outstanding until an operator resets statuses.
			s.logger.Error("task dispatch failed",
				"task_name", d.TaskName,
				"pipeline_id", d.PipelineID,
				"job_id", d.JobID,
				"worker_class", d.WorkerClass,
				"error", err,
			)
			entry := domain.LogEntry{
				PipelineID:  d.PipelineID,
				JobID:       d.JobID,
				WorkerClass: d.WorkerClass,
				LogLevel:    domain.LogLevelError,
				Message:     fmt.Sprintf("failed to hand task %s to the queue: %v", d.TaskName, err),
			}
			if insErr := s.logs.Insert(ctx, &entry); insErr != nil {
				s.logger.Error("persisting execution log failed", "error", insErr)
			}
		}
	}
}
