package taskqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pipeflow/internal/domain"
)

// ResultPayload is the wire form of a task-completion callback.
type ResultPayload struct {
	TaskName         string                 `json:"task_name"`
	JobID            string                 `json:"job_id"`
	Success          bool                   `json:"success"`
	Message          string                 `json:"message,omitempty"`
	WorkersToEnqueue []WorkerEnqueuePayload `json:"workers_to_enqueue,omitempty"`
}

// WorkerEnqueuePayload is one follow-on enqueue request inside a result.
type WorkerEnqueuePayload struct {
	WorkerClass  string         `json:"worker_class"`
	Params       map[string]any `json:"params,omitempty"`
	DelaySeconds int            `json:"delay_seconds,omitempty"`
}

// ToDomain converts the wire result to its domain form.
func (p ResultPayload) ToDomain() domain.Result {
	res := domain.Result{
		TaskName: p.TaskName,
		JobID:    p.JobID,
		Success:  p.Success,
		Message:  p.Message,
	}
	for _, w := range p.WorkersToEnqueue {
		res.WorkersToEnqueue = append(res.WorkersToEnqueue, domain.WorkerEnqueue{
			WorkerClass:  w.WorkerClass,
			Params:       w.Params,
			DelaySeconds: w.DelaySeconds,
		})
	}
	return res
}

// ResultClient posts task results to the controller's push endpoint.
type ResultClient struct {
	url    string
	client *http.Client
}

// NewResultClient creates a ResultClient for the given controller URL
// (e.g. http://controller:8080/push/task-finished).
func NewResultClient(url string) *ResultClient {
	return &ResultClient{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Post delivers one result. A non-2xx response is an error so the queue
// redelivers the task; the controller's result handling is idempotent.
func (c *ResultClient) Post(ctx context.Context, res ResultPayload) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build result request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post result for task %s: %w", res.TaskName, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post result for task %s: unexpected status %d", res.TaskName, resp.StatusCode)
	}
	return nil
}
