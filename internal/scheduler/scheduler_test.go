package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStarter struct {
	ticks []time.Time
	err   error
}

func (f *fakeStarter) StartScheduled(_ context.Context, tick time.Time) (int, error) {
	f.ticks = append(f.ticks, tick)
	return 1, f.err
}

func TestTickHandsCurrentTimeToStarter(t *testing.T) {
	starter := &fakeStarter{}
	s := New(starter, slog.New(slog.NewTextHandler(io.Discard, nil)))

	before := time.Now()
	s.tick()

	require.Len(t, starter.ticks, 1)
	assert.False(t, starter.ticks[0].Before(before))
}

func TestTickSurvivesStarterError(t *testing.T) {
	starter := &fakeStarter{err: errors.New("db locked")}
	s := New(starter, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.tick()
	s.tick()

	assert.Len(t, starter.ticks, 2, "a failed scan must not stop future ticks")
}

func TestStartStop(t *testing.T) {
	s := New(&fakeStarter{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, s.Start())
	s.Stop()
}
