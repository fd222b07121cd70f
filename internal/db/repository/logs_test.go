package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeflow/internal/db"
	"pipeflow/internal/domain"
)

type logFixture struct {
	logs       *LogRepo
	base       time.Time
	pipelineID string
	job        *domain.Job
}

// newLogFixture seeds one pipeline with a job and four log entries, one per
// level, spaced a minute apart starting at base (oldest is DEBUG).
func newLogFixture(t *testing.T) *logFixture {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	ctx := context.Background()

	p, err := NewPipelineRepo(writeDB).Create(ctx, &domain.Pipeline{Name: "p"})
	require.NoError(t, err)

	job, err := NewJobRepo(writeDB).Create(ctx, &domain.Job{
		PipelineID: p.ID, Name: "extract", WorkerClass: "Delay",
	})
	require.NoError(t, err)

	logs := NewLogRepo(writeDB)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, level := range []string{
		domain.LogLevelDebug, domain.LogLevelInfo, domain.LogLevelWarning, domain.LogLevelError,
	} {
		require.NoError(t, logs.Insert(ctx, &domain.LogEntry{
			PipelineID:  p.ID,
			JobID:       job.ID,
			WorkerClass: "Delay",
			LogLevel:    level,
			Message:     "entry " + level,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	return &logFixture{logs: logs, base: base, pipelineID: p.ID, job: job}
}

func TestLogRepo_QueryNewestFirstExcludingDebug(t *testing.T) {
	f := newLogFixture(t)

	entries, err := f.logs.Query(context.Background(), f.pipelineID, domain.LogFilter{})
	require.NoError(t, err)

	require.Len(t, entries, 3, "DEBUG is hidden unless requested")
	assert.Equal(t, domain.LogLevelError, entries[0].LogLevel)
	assert.Equal(t, domain.LogLevelWarning, entries[1].LogLevel)
	assert.Equal(t, domain.LogLevelInfo, entries[2].LogLevel)
	assert.Equal(t, "extract", entries[0].JobName)
}

func TestLogRepo_QueryExplicitLevel(t *testing.T) {
	f := newLogFixture(t)

	entries, err := f.logs.Query(context.Background(), f.pipelineID, domain.LogFilter{
		LogLevel: domain.LogLevelDebug,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "entry DEBUG", entries[0].Message)
}

func TestLogRepo_QueryFilters(t *testing.T) {
	f := newLogFixture(t)
	ctx := context.Background()

	byJob, err := f.logs.Query(ctx, f.pipelineID, domain.LogFilter{JobID: f.job.ID})
	require.NoError(t, err)
	assert.Len(t, byJob, 3)

	byWorker, err := f.logs.Query(ctx, f.pipelineID, domain.LogFilter{WorkerClass: "BQWaiter"})
	require.NoError(t, err)
	assert.Empty(t, byWorker)

	byText, err := f.logs.Query(ctx, f.pipelineID, domain.LogFilter{Query: "WARN"})
	require.NoError(t, err)
	require.Len(t, byText, 1)
	assert.Equal(t, domain.LogLevelWarning, byText[0].LogLevel)

	from := f.base.Add(2 * time.Minute)
	byTime, err := f.logs.Query(ctx, f.pipelineID, domain.LogFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, byTime, 2)
}

func TestLogRepo_QueryBeforeCursor(t *testing.T) {
	f := newLogFixture(t)

	before := f.base.Add(3 * time.Minute)
	entries, err := f.logs.Query(context.Background(), f.pipelineID, domain.LogFilter{
		Before: &before, Limit: 1,
	})
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, domain.LogLevelWarning, entries[0].LogLevel,
		"cursor is strictly-older-than and the limit applies after it")
}

func TestLogRepo_JobNameFallback(t *testing.T) {
	f := newLogFixture(t)
	ctx := context.Background()

	require.NoError(t, f.logs.Insert(ctx, &domain.LogEntry{
		PipelineID: f.pipelineID,
		JobID:      "long-gone",
		LogLevel:   domain.LogLevelInfo,
		Message:    "orphan",
		CreatedAt:  f.base.Add(10 * time.Minute),
	}))

	entries, err := f.logs.Query(ctx, f.pipelineID, domain.LogFilter{Query: "orphan"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "N/A", entries[0].JobName)
}
