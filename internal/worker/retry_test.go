package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shrinkBackoff(t *testing.T) {
	t.Helper()
	orig := baseRetryDelay
	baseRetryDelay = time.Millisecond
	t.Cleanup(func() { baseRetryDelay = orig })
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	shrinkBackoff(t)
	calls := 0
	err := retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	shrinkBackoff(t)
	calls := 0
	last := errors.New("still broken")
	err := retry(context.Background(), func() error {
		calls++
		return last
	})
	assert.ErrorIs(t, err, last)
	assert.Equal(t, maxAttempts, calls)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
