package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeflow/internal/db"
	"pipeflow/internal/domain"
)

type execStoreFixture struct {
	store    *ExecutionStore
	pipeline *domain.Pipeline
	job      *domain.Job
}

func newExecStoreFixture(t *testing.T) *execStoreFixture {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	ctx := context.Background()

	p, err := NewPipelineRepo(writeDB).Create(ctx, &domain.Pipeline{Name: "p"})
	require.NoError(t, err)
	j, err := NewJobRepo(writeDB).Create(ctx, &domain.Job{
		PipelineID: p.ID, Name: "j", WorkerClass: "Delay",
	})
	require.NoError(t, err)

	return &execStoreFixture{store: NewExecutionStore(writeDB), pipeline: p, job: j}
}

func TestExecutionStore_TaskLifecycle(t *testing.T) {
	f := newExecStoreFixture(t)
	ctx := context.Background()

	err := f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		if err := tx.CreateTask(&domain.TaskEnqueued{Name: "t1", JobID: f.job.ID}); err != nil {
			return err
		}
		return tx.CreateTask(&domain.TaskEnqueued{Name: "t2", JobID: f.job.ID})
	})
	require.NoError(t, err)

	err = f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		task, err := tx.GetTask(f.job.ID, "t1")
		if err != nil {
			return err
		}
		assert.Equal(t, "t1", task.Name)
		assert.False(t, task.CreatedAt.IsZero())

		if err := tx.DeleteTask(f.job.ID, "t1"); err != nil {
			return err
		}
		n, err := tx.CountTasksForJob(f.job.ID)
		if err != nil {
			return err
		}
		assert.EqualValues(t, 1, n)

		n, err = tx.CountTasksForPipeline(f.pipeline.ID)
		if err != nil {
			return err
		}
		assert.EqualValues(t, 1, n)
		return nil
	})
	require.NoError(t, err)
}

func TestExecutionStore_GetTaskScopedToJob(t *testing.T) {
	f := newExecStoreFixture(t)
	ctx := context.Background()

	err := f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		if err := tx.CreateTask(&domain.TaskEnqueued{Name: "t1", JobID: f.job.ID}); err != nil {
			return err
		}
		_, err := tx.GetTask("other-job", "t1")
		assert.ErrorAs(t, err, new(*domain.NotFoundError))
		return nil
	})
	require.NoError(t, err)
}

func TestExecutionStore_DuplicateTaskNameConflicts(t *testing.T) {
	f := newExecStoreFixture(t)
	ctx := context.Background()

	err := f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		if err := tx.CreateTask(&domain.TaskEnqueued{Name: "t1", JobID: f.job.ID}); err != nil {
			return err
		}
		return tx.CreateTask(&domain.TaskEnqueued{Name: "t1", JobID: f.job.ID})
	})
	assert.ErrorAs(t, err, new(*domain.ConflictError))
}

func TestExecutionStore_RollbackOnError(t *testing.T) {
	f := newExecStoreFixture(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		if err := tx.SetJobStatus(f.job.ID, domain.JobStatusRunning, ""); err != nil {
			return err
		}
		if err := tx.CreateTask(&domain.TaskEnqueued{Name: "t1", JobID: f.job.ID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		job, err := tx.GetJob(f.job.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, domain.JobStatusIdle, job.Status, "failed transaction must leave no trace")
		n, err := tx.CountTasksForJob(f.job.ID)
		if err != nil {
			return err
		}
		assert.Zero(t, n)
		return nil
	})
	require.NoError(t, err)
}

func TestExecutionStore_UpdatePipelineState(t *testing.T) {
	f := newExecStoreFixture(t)
	ctx := context.Background()

	err := f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		p, err := tx.GetPipeline(f.pipeline.ID)
		if err != nil {
			return err
		}
		p.Status = domain.PipelineStatusStopping
		p.StopRequested = true
		p.Message = "stop requested"
		return tx.UpdatePipelineState(p)
	})
	require.NoError(t, err)

	err = f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		p, err := tx.GetPipeline(f.pipeline.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, domain.PipelineStatusStopping, p.Status)
		assert.True(t, p.StopRequested)
		assert.Equal(t, "stop requested", p.Message)
		return nil
	})
	require.NoError(t, err)
}

func TestExecutionStore_TasksInfo(t *testing.T) {
	f := newExecStoreFixture(t)
	ctx := context.Background()

	info, err := f.store.TasksInfo(ctx)
	require.NoError(t, err)
	assert.Nil(t, info.OldestTaskTime)
	assert.Zero(t, info.RunningTasksCount)

	oldest := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	err = f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		if err := tx.CreateTask(&domain.TaskEnqueued{Name: "old", JobID: f.job.ID, CreatedAt: oldest}); err != nil {
			return err
		}
		return tx.CreateTask(&domain.TaskEnqueued{Name: "new", JobID: f.job.ID})
	})
	require.NoError(t, err)

	info, err = f.store.TasksInfo(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, info.RunningTasksCount)
	require.NotNil(t, info.OldestTaskTime)
	assert.True(t, info.OldestTaskTime.Equal(oldest))
}

func TestExecutionStore_ResetStatuses(t *testing.T) {
	f := newExecStoreFixture(t)
	ctx := context.Background()

	err := f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		p, err := tx.GetPipeline(f.pipeline.ID)
		if err != nil {
			return err
		}
		p.Status = domain.PipelineStatusRunning
		p.StopRequested = true
		if err := tx.UpdatePipelineState(p); err != nil {
			return err
		}
		if err := tx.SetJobStatus(f.job.ID, domain.JobStatusRunning, "busy"); err != nil {
			return err
		}
		return tx.CreateTask(&domain.TaskEnqueued{Name: "t1", JobID: f.job.ID})
	})
	require.NoError(t, err)

	// batchSize 1 forces multiple batches per statement.
	require.NoError(t, f.store.ResetStatuses(ctx, 1))

	err = f.store.WithTx(ctx, func(tx domain.ExecutionTx) error {
		p, err := tx.GetPipeline(f.pipeline.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, domain.PipelineStatusIdle, p.Status)
		assert.False(t, p.StopRequested)

		job, err := tx.GetJob(f.job.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, domain.JobStatusIdle, job.Status)
		assert.Empty(t, job.Message)

		n, err := tx.CountTasksForJob(f.job.ID)
		if err != nil {
			return err
		}
		assert.Zero(t, n)
		return nil
	})
	require.NoError(t, err)
}
