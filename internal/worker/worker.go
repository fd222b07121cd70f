// Package worker defines the worker contract, the registry of available
// worker classes, and the queue-side executor that runs them.
package worker

import (
	"context"
	"log/slog"

	"pipeflow/internal/domain"
)

// Worker executes one unit of a job. Implementations must be safe for
// concurrent invocations.
type Worker interface {
	// Spec describes the worker class and its accepted parameters.
	Spec() Spec
	// Execute performs the work. Returning a non-nil error reports the task
	// as failed; follow-on work is requested through inv.Enqueue.
	Execute(ctx context.Context, inv *Invocation) error
}

// Spec describes a worker class for the catalog surface.
type Spec struct {
	Class       string      `json:"class"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"params"`
}

// ParamSpec declares one accepted parameter of a worker class.
type ParamSpec struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Default  any    `json:"default,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Invocation carries the inputs of one task execution and collects the
// follow-on enqueues the worker requests.
type Invocation struct {
	TaskName   string
	PipelineID string
	JobID      string
	Params     map[string]any
	Logger     *slog.Logger

	enqueues []domain.WorkerEnqueue
}

// Enqueue requests a follow-on execution against the same job, delayed by
// delaySeconds. The request takes effect only if the overall execution
// reports success.
func (inv *Invocation) Enqueue(workerClass string, params map[string]any, delaySeconds int) {
	inv.enqueues = append(inv.enqueues, domain.WorkerEnqueue{
		WorkerClass:  workerClass,
		Params:       params,
		DelaySeconds: delaySeconds,
	})
}

// Enqueues returns the follow-on executions requested so far.
func (inv *Invocation) Enqueues() []domain.WorkerEnqueue {
	return inv.enqueues
}

// StringParam returns a string parameter or def when absent.
func (inv *Invocation) StringParam(name, def string) string {
	v, ok := inv.Params[name]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// NumberParam returns a numeric parameter or def when absent. JSON decoding
// produces float64; integral string values are not coerced.
func (inv *Invocation) NumberParam(name string, def float64) float64 {
	v, ok := inv.Params[name]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return def
}

// BoolParam returns a boolean parameter or def when absent.
func (inv *Invocation) BoolParam(name string, def bool) bool {
	v, ok := inv.Params[name]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// RequiredString returns a string parameter, erroring when missing or empty.
func (inv *Invocation) RequiredString(name string) (string, error) {
	s := inv.StringParam(name, "")
	if s == "" {
		return "", domain.ErrValidation("missing required param %q", name)
	}
	return s, nil
}
