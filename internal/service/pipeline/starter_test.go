package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeflow/internal/domain"
)

func TestStartPipelines_SkipsFailures(t *testing.T) {
	f := newExecFixture()
	f.seedDiamond(domain.PipelineStatusIdle)

	started := f.svc.StartPipelines(context.Background(), []string{"p1", "missing"})

	assert.Equal(t, 1, started)
	assert.Equal(t, domain.PipelineStatusRunning, f.store.Pipelines["p1"].Status)
}

func TestStartScheduled_MatchingTick(t *testing.T) {
	f := newExecFixture()
	f.seedDiamond(domain.PipelineStatusIdle)
	f.store.Pipelines["p1"].RunOnSchedule = true
	f.store.Pipelines["p1"].Schedules = []domain.Schedule{
		{ID: "s1", PipelineID: "p1", Cron: "0 3 * * *"},
	}

	tick := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	started, err := f.svc.StartScheduled(context.Background(), tick)
	require.NoError(t, err)

	assert.Equal(t, 1, started)
	assert.Equal(t, domain.PipelineStatusRunning, f.store.Pipelines["p1"].Status)
}

func TestStartScheduled_NoMatch(t *testing.T) {
	f := newExecFixture()
	f.seedDiamond(domain.PipelineStatusIdle)
	f.store.Pipelines["p1"].RunOnSchedule = true
	f.store.Pipelines["p1"].Schedules = []domain.Schedule{
		{ID: "s1", PipelineID: "p1", Cron: "0 3 * * *"},
	}

	tick := time.Date(2026, 3, 2, 4, 0, 0, 0, time.UTC)
	started, err := f.svc.StartScheduled(context.Background(), tick)
	require.NoError(t, err)

	assert.Equal(t, 0, started)
	assert.Equal(t, domain.PipelineStatusIdle, f.store.Pipelines["p1"].Status)
}

func TestStartScheduled_AtMostOncePerTick(t *testing.T) {
	f := newExecFixture()
	f.seedDiamond(domain.PipelineStatusIdle)
	f.store.Pipelines["p1"].RunOnSchedule = true
	// Two schedules that both fire on this tick must produce one start.
	f.store.Pipelines["p1"].Schedules = []domain.Schedule{
		{ID: "s1", PipelineID: "p1", Cron: "* * * * *"},
		{ID: "s2", PipelineID: "p1", Cron: "0 * * * *"},
	}

	tick := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	started, err := f.svc.StartScheduled(context.Background(), tick)
	require.NoError(t, err)

	assert.Equal(t, 1, started)
	assert.Len(t, f.dispatcher.Dispatches, 1)
}

func TestStartScheduled_RunningPipelineSkipped(t *testing.T) {
	f := newExecFixture()
	f.seedDiamond(domain.PipelineStatusRunning)
	f.store.Pipelines["p1"].RunOnSchedule = true
	f.store.Pipelines["p1"].Schedules = []domain.Schedule{
		{ID: "s1", PipelineID: "p1", Cron: "* * * * *"},
	}

	started, err := f.svc.StartScheduled(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 0, started)
	assert.Empty(t, f.dispatcher.Dispatches)
}

func TestStartScheduled_SchedulingDisabled(t *testing.T) {
	f := newExecFixture()
	f.seedDiamond(domain.PipelineStatusIdle)
	f.store.Pipelines["p1"].Schedules = []domain.Schedule{
		{ID: "s1", PipelineID: "p1", Cron: "* * * * *"},
	}

	started, err := f.svc.StartScheduled(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 0, started)
}
