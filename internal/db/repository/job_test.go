package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeflow/internal/db"
	"pipeflow/internal/domain"
)

type jobFixture struct {
	pipelines *PipelineRepo
	jobs      *JobRepo
	pipeline  *domain.Pipeline
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	pipelines := NewPipelineRepo(writeDB)
	jobs := NewJobRepo(writeDB)

	p, err := pipelines.Create(context.Background(), &domain.Pipeline{Name: "p"})
	require.NoError(t, err)

	return &jobFixture{pipelines: pipelines, jobs: jobs, pipeline: p}
}

func TestJobRepo_CreateAndGet(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	root, err := f.jobs.Create(ctx, &domain.Job{
		PipelineID:  f.pipeline.ID,
		Name:        "extract",
		WorkerClass: "BQScriptExecutor",
		Params:      []domain.Param{{Name: "query", Type: domain.ParamTypeText, Value: "SELECT 1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusIdle, root.Status)

	child, err := f.jobs.Create(ctx, &domain.Job{
		PipelineID:  f.pipeline.ID,
		Name:        "transform",
		WorkerClass: "BQScriptExecutor",
		StartConditions: []domain.StartCondition{
			{PrecedingJobID: root.ID, Condition: domain.ConditionSuccess},
		},
	})
	require.NoError(t, err)

	got, err := f.jobs.GetByID(ctx, child.ID)
	require.NoError(t, err)
	require.Len(t, got.StartConditions, 1)
	assert.Equal(t, root.ID, got.StartConditions[0].PrecedingJobID)
	assert.Equal(t, domain.ConditionSuccess, got.StartConditions[0].Condition)
	assert.Equal(t, child.ID, got.StartConditions[0].JobID)
}

func TestJobRepo_ListByPipeline(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.jobs.Create(ctx, &domain.Job{
			PipelineID: f.pipeline.ID, Name: name, WorkerClass: "Delay",
		})
		require.NoError(t, err)
	}

	jobs, err := f.jobs.ListByPipeline(ctx, f.pipeline.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	other, err := f.jobs.ListByPipeline(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestJobRepo_Update(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	a, err := f.jobs.Create(ctx, &domain.Job{
		PipelineID: f.pipeline.ID, Name: "a", WorkerClass: "Delay",
	})
	require.NoError(t, err)
	b, err := f.jobs.Create(ctx, &domain.Job{
		PipelineID: f.pipeline.ID, Name: "b", WorkerClass: "Delay",
		Params: []domain.Param{{Name: "delay_seconds", Value: "5"}},
		StartConditions: []domain.StartCondition{
			{PrecedingJobID: a.ID, Condition: domain.ConditionSuccess},
		},
	})
	require.NoError(t, err)

	cls := "BQWaiter"
	updated, err := f.jobs.Update(ctx, b.ID, domain.UpdateJobRequest{
		WorkerClass: &cls,
		StartConditions: []domain.StartConditionInput{
			{PrecedingJobID: a.ID, Condition: domain.ConditionWhatever},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "b", updated.Name, "nil name leaves the field untouched")
	assert.Equal(t, "BQWaiter", updated.WorkerClass)
	require.Len(t, updated.StartConditions, 1, "non-nil conditions replace wholesale")
	assert.Equal(t, domain.ConditionWhatever, updated.StartConditions[0].Condition)
	require.Len(t, updated.Params, 1, "nil params leave the relation untouched")
}

func TestJobRepo_DeleteRemovesConditionsReferencingIt(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	a, err := f.jobs.Create(ctx, &domain.Job{
		PipelineID: f.pipeline.ID, Name: "a", WorkerClass: "Delay",
	})
	require.NoError(t, err)
	b, err := f.jobs.Create(ctx, &domain.Job{
		PipelineID: f.pipeline.ID, Name: "b", WorkerClass: "Delay",
		StartConditions: []domain.StartCondition{
			{PrecedingJobID: a.ID, Condition: domain.ConditionSuccess},
		},
	})
	require.NoError(t, err)

	require.NoError(t, f.jobs.Delete(ctx, a.ID))

	got, err := f.jobs.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.StartConditions, "edges referencing the deleted job must go with it")

	err = f.jobs.Delete(ctx, "nope")
	assert.ErrorAs(t, err, new(*domain.NotFoundError))
}
