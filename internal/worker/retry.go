package worker

import (
	"context"
	"time"
)

const (
	maxAttempts   = 5
	maxRetryDelay = 30 * time.Second
)

// baseRetryDelay is a variable so tests can shrink the backoff.
var baseRetryDelay = time.Second

// retry runs fn up to maxAttempts times, doubling the delay between
// attempts from baseRetryDelay and capping it at maxRetryDelay. The last
// error is returned when every attempt fails.
func retry(ctx context.Context, fn func() error) error {
	var err error
	delay := baseRetryDelay
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
