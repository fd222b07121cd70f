package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeflow/internal/db"
	"pipeflow/internal/domain"
)

func newPipelineRepo(t *testing.T) *PipelineRepo {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	return NewPipelineRepo(writeDB)
}

func TestPipelineRepo_CreateAndGet(t *testing.T) {
	repo := newPipelineRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Pipeline{
		Name:                   "nightly",
		EmailsForNotifications: "ops@example.com",
		RunOnSchedule:          true,
		Schedules:              []domain.Schedule{{Cron: "0 3 * * *"}},
		Params: []domain.Param{
			{Name: "project", Type: domain.ParamTypeString, Value: "acme"},
			{Name: "retries", Type: domain.ParamTypeNumber, Value: "3"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, domain.PipelineStatusIdle, created.Status)
	assert.True(t, created.RunOnSchedule)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "nightly", got.Name)
	assert.Equal(t, "ops@example.com", got.EmailsForNotifications)
	require.Len(t, got.Schedules, 1)
	assert.Equal(t, "0 3 * * *", got.Schedules[0].Cron)
	require.Len(t, got.Params, 2)
	assert.Equal(t, "project", got.Params[0].Name, "param order must survive")
	assert.Equal(t, "retries", got.Params[1].Name)
}

func TestPipelineRepo_GetMissing(t *testing.T) {
	repo := newPipelineRepo(t)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorAs(t, err, new(*domain.NotFoundError))
}

func TestPipelineRepo_List(t *testing.T) {
	repo := newPipelineRepo(t)
	ctx := context.Background()

	for _, name := range []string{"alpha ingest", "beta ingest", "gamma export"} {
		_, err := repo.Create(ctx, &domain.Pipeline{Name: name})
		require.NoError(t, err)
	}

	all, total, err := repo.List(ctx, domain.PipelineFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	filtered, total, err := repo.List(ctx, domain.PipelineFilter{NameContains: "INGEST"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, filtered, 2)

	paged, total, err := repo.List(ctx, domain.PipelineFilter{
		Page: domain.PageRequest{Page: 1, ItemsPerPage: 2},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, paged, 2)
}

func TestPipelineRepo_ListScheduled(t *testing.T) {
	repo := newPipelineRepo(t)
	ctx := context.Background()

	scheduled, err := repo.Create(ctx, &domain.Pipeline{
		Name:          "scheduled",
		RunOnSchedule: true,
		Schedules:     []domain.Schedule{{Cron: "*/5 * * * *"}},
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.Pipeline{Name: "manual"})
	require.NoError(t, err)

	got, err := repo.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, scheduled.ID, got[0].ID)
	require.Len(t, got[0].Schedules, 1)
	assert.Equal(t, "*/5 * * * *", got[0].Schedules[0].Cron)
}

func TestPipelineRepo_Update(t *testing.T) {
	repo := newPipelineRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Pipeline{
		Name:      "orig",
		Schedules: []domain.Schedule{{Cron: "0 1 * * *"}, {Cron: "0 2 * * *"}},
		Params:    []domain.Param{{Name: "keep", Value: "v"}},
	})
	require.NoError(t, err)

	name := "renamed"
	updated, err := repo.Update(ctx, created.ID, domain.UpdatePipelineRequest{
		Name:      &name,
		Schedules: []domain.ScheduleInput{{Cron: "30 4 * * *"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Name)
	require.Len(t, updated.Schedules, 1, "non-nil schedules replace wholesale")
	assert.Equal(t, "30 4 * * *", updated.Schedules[0].Cron)
	require.Len(t, updated.Params, 1, "nil params leave the relation untouched")
	assert.Equal(t, "keep", updated.Params[0].Name)
}

func TestPipelineRepo_SetRunOnSchedule(t *testing.T) {
	repo := newPipelineRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Pipeline{Name: "p"})
	require.NoError(t, err)

	p, err := repo.SetRunOnSchedule(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, p.RunOnSchedule)

	_, err = repo.SetRunOnSchedule(ctx, "nope", true)
	assert.ErrorAs(t, err, new(*domain.NotFoundError))
}

func TestPipelineRepo_DeleteCascades(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	pipelines := NewPipelineRepo(writeDB)
	jobs := NewJobRepo(writeDB)
	ctx := context.Background()

	p, err := pipelines.Create(ctx, &domain.Pipeline{
		Name:      "doomed",
		Schedules: []domain.Schedule{{Cron: "0 0 * * *"}},
		Params:    []domain.Param{{Name: "x", Value: "1"}},
	})
	require.NoError(t, err)
	j, err := jobs.Create(ctx, &domain.Job{
		PipelineID: p.ID, Name: "j", WorkerClass: "Delay",
		Params: []domain.Param{{Name: "delay_seconds", Value: "5"}},
	})
	require.NoError(t, err)

	require.NoError(t, pipelines.Delete(ctx, p.ID))

	_, err = pipelines.GetByID(ctx, p.ID)
	assert.ErrorAs(t, err, new(*domain.NotFoundError))
	_, err = jobs.GetByID(ctx, j.ID)
	assert.ErrorAs(t, err, new(*domain.NotFoundError))

	var orphans int
	require.NoError(t, writeDB.QueryRow(`SELECT COUNT(*) FROM params`).Scan(&orphans))
	assert.Zero(t, orphans, "params of the pipeline and its jobs must be removed")
}

func TestPipelineRepo_DeleteMissing(t *testing.T) {
	repo := newPipelineRepo(t)

	err := repo.Delete(context.Background(), "nope")
	assert.ErrorAs(t, err, new(*domain.NotFoundError))
}
