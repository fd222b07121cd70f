package pipeline

import (
	"context"
	"errors"
	"fmt"

	"pipeflow/internal/domain"
)

// ProcessResult consumes one task-completion signal. The queue delivers at
// least once, so the same result may arrive twice, late, or after the run it
// belongs to has ended. Reconciliation rules:
//
//   - The referenced job no longer exists: log an error and do nothing.
//   - No matching outstanding-task record (duplicate or stale): log a
//     warning; a failure result may still move a non-terminal job forward,
//     a success result never resurrects a terminal one. When the pipeline is
//     idle (a reset ran since dispatch) the result is consumed and nothing
//     else happens.
//   - Matching record: consume it exactly once and apply the transition.
//
// A job succeeds only when its last outstanding task reports success;
// any failure result fails the job (and the pipeline) immediately.
func (s *Service) ProcessResult(ctx context.Context, res domain.Result) error {
	if res.TaskName == "" || res.JobID == "" {
		return domain.ErrValidation("task_name and job_id are required")
	}

	var out txOutcome
	err := s.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		job, err := tx.GetJob(res.JobID)
		if err != nil {
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				s.logger.Error("result for unknown job dropped",
					"task_name", res.TaskName, "job_id", res.JobID)
				return nil
			}
			return err
		}
		p, err := tx.GetPipeline(job.PipelineID)
		if err != nil {
			return err
		}

		task, err := tx.GetTask(job.ID, res.TaskName)
		if err != nil {
			var nf *domain.NotFoundError
			if !errors.As(err, &nf) {
				return err
			}
			task = nil
			out.log(domain.LogLevelWarning, p.ID, job.ID, job.WorkerClass,
				fmt.Sprintf("duplicate or stale result for task %s ignored as already consumed", res.TaskName))
			s.logger.Warn("duplicate or stale task result",
				"task_name", res.TaskName, "job_id", job.ID, "success", res.Success)
		}
		if task != nil {
			if err := tx.DeleteTask(job.ID, res.TaskName); err != nil {
				return err
			}
		} else if p.Status == domain.PipelineStatusIdle {
			// A stale result arriving after a reset has no run to advance;
			// consuming it must not restart the state machine.
			return nil
		}

		if res.Success {
			return s.taskSucceededTx(tx, &out, p, job, task != nil, res)
		}
		return s.taskFailedTx(tx, &out, p, job, res)
	})
	if err != nil {
		return err
	}

	s.finishTx(ctx, out)
	return nil
}

func (s *Service) taskSucceededTx(tx domain.ExecutionTx, out *txOutcome, p *domain.Pipeline, job *domain.Job, consumed bool, res domain.Result) error {
	// Follow-on enqueues keep the job alive past this task. They are honored
	// even on redelivery while the run is live, so a continuation lost to a
	// crash after commit is recovered by the queue's retry.
	if enqueueAllowed(p) {
		for _, w := range res.WorkersToEnqueue {
			if err := s.enqueueTaskTx(tx, out, p, job, w.WorkerClass, w.Params, w.DelaySeconds); err != nil {
				return err
			}
		}
	} else if len(res.WorkersToEnqueue) > 0 {
		out.log(domain.LogLevelWarning, p.ID, job.ID, job.WorkerClass,
			fmt.Sprintf("dropped %d follow-up enqueue(s): pipeline is %s", len(res.WorkersToEnqueue), p.Status))
	}

	if job.IsTerminal() {
		return nil
	}

	remaining, err := tx.CountTasksForJob(job.ID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}
	if !consumed && (job.Status == domain.JobStatusIdle || job.Status == domain.JobStatusWaiting) {
		// A stale success for a job that has not started this run must not
		// fast-forward it past its start conditions.
		return nil
	}

	if err := tx.SetJobStatus(job.ID, domain.JobStatusSucceeded, ""); err != nil {
		return err
	}
	job.Status = domain.JobStatusSucceeded
	out.log(domain.LogLevelInfo, p.ID, job.ID, job.WorkerClass,
		fmt.Sprintf("job %q succeeded", job.Name))
	return s.advanceTx(tx, out, p)
}

func (s *Service) taskFailedTx(tx domain.ExecutionTx, out *txOutcome, p *domain.Pipeline, job *domain.Job, res domain.Result) error {
	if job.IsTerminal() {
		return nil
	}

	if err := tx.SetJobStatus(job.ID, domain.JobStatusFailed, res.Message); err != nil {
		return err
	}
	job.Status = domain.JobStatusFailed
	out.log(domain.LogLevelError, p.ID, job.ID, job.WorkerClass,
		fmt.Sprintf("job %q failed: %s", job.Name, res.Message))

	// The pipeline is marked failed as soon as any job fails, but the run
	// keeps draining: dependents gated on fail/whatever still start.
	if p.Status == domain.PipelineStatusRunning {
		p.Status = domain.PipelineStatusFailed
		p.Message = fmt.Sprintf("job %q failed", job.Name)
		if err := tx.UpdatePipelineState(p); err != nil {
			return err
		}
	}

	return s.advanceTx(tx, out, p)
}
