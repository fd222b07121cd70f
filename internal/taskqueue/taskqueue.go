// Package taskqueue bridges the controller and the queue consumers. The
// controller dispatches work items through a Dispatcher; consumers decode
// them with the shared payload codec and post results back over HTTP.
package taskqueue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"pipeflow/internal/domain"
)

// TypeExecuteWorker is the asynq task type for worker executions.
const TypeExecuteWorker = "pipeflow:execute"

// Payload is the wire form of a dispatched unit of work.
type Payload struct {
	TaskName    string         `json:"task_name"`
	PipelineID  string         `json:"pipeline_id"`
	JobID       string         `json:"job_id"`
	WorkerClass string         `json:"worker_class"`
	Params      map[string]any `json:"params,omitempty"`
}

// EncodeTask builds the asynq task for a dispatch.
func EncodeTask(d domain.TaskDispatch) (*asynq.Task, error) {
	raw, err := json.Marshal(Payload{
		TaskName:    d.TaskName,
		PipelineID:  d.PipelineID,
		JobID:       d.JobID,
		WorkerClass: d.WorkerClass,
		Params:      d.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal task payload: %w", err)
	}
	return asynq.NewTask(TypeExecuteWorker, raw), nil
}

// DecodePayload parses the payload of a received asynq task.
func DecodePayload(t *asynq.Task) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("unmarshal task payload: %w", err)
	}
	if p.TaskName == "" || p.JobID == "" || p.WorkerClass == "" {
		return p, fmt.Errorf("task payload missing task_name, job_id, or worker_class")
	}
	return p, nil
}
