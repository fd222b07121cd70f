package worker

import (
	"context"
	"time"

	"pipeflow/internal/domain"
)

// maxDelaySeconds bounds the Delay worker so a typo cannot pin a queue
// consumer for hours.
const maxDelaySeconds = 3600

// Delay pauses a pipeline branch for a configured number of seconds. Useful
// between a data load and a consumer that needs propagation time.
type Delay struct{}

// Spec implements Worker.
func (d *Delay) Spec() Spec {
	return Spec{
		Class:       "Delay",
		Description: "Waits the given number of seconds, then succeeds.",
		Params: []ParamSpec{
			{Name: "delay_seconds", Type: domain.ParamTypeNumber, Required: true, Label: "Delay in seconds"},
		},
	}
}

// Execute implements Worker.
func (d *Delay) Execute(ctx context.Context, inv *Invocation) error {
	seconds := int(inv.NumberParam("delay_seconds", 0))
	if seconds <= 0 {
		return domain.ErrValidation("delay_seconds must be a positive number")
	}
	if seconds > maxDelaySeconds {
		return domain.ErrValidation("delay_seconds must not exceed %d", maxDelaySeconds)
	}

	inv.Logger.Info("delaying", "seconds", seconds)
	select {
	case <-time.After(time.Duration(seconds) * time.Second):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
