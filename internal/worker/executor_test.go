package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeflow/internal/taskqueue"
)

// scriptedWorker lets a test control the outcome of an execution.
type scriptedWorker struct {
	class   string
	execute func(ctx context.Context, inv *Invocation) error
}

func (w *scriptedWorker) Spec() Spec { return Spec{Class: w.class} }

func (w *scriptedWorker) Execute(ctx context.Context, inv *Invocation) error {
	return w.execute(ctx, inv)
}

// executorFixture runs an Executor against a controller stub that records
// every posted result.
type executorFixture struct {
	executor *Executor
	results  []taskqueue.ResultPayload
	status   int
}

func newExecutorFixture(t *testing.T, workers ...Worker) *executorFixture {
	t.Helper()
	f := &executorFixture{status: http.StatusOK}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var res taskqueue.ResultPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&res))
		f.results = append(f.results, res)
		w.WriteHeader(f.status)
	}))
	t.Cleanup(srv.Close)

	registry := NewRegistry()
	for _, w := range workers {
		registry.Register(w)
	}
	f.executor = NewExecutor(registry, taskqueue.NewResultClient(srv.URL), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func dispatchTask(t *testing.T, workerClass string, params map[string]any) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(taskqueue.Payload{
		TaskName:    "task-1",
		PipelineID:  "p1",
		JobID:       "j1",
		WorkerClass: workerClass,
		Params:      params,
	})
	require.NoError(t, err)
	return asynq.NewTask(taskqueue.TypeExecuteWorker, raw)
}

func TestExecutor_Success(t *testing.T) {
	f := newExecutorFixture(t, &scriptedWorker{
		class: "Echo",
		execute: func(_ context.Context, inv *Invocation) error {
			assert.Equal(t, "v", inv.StringParam("k", ""))
			inv.Enqueue("Echo", map[string]any{"k": "again"}, 30)
			return nil
		},
	})

	err := f.executor.ProcessTask(context.Background(), dispatchTask(t, "Echo", map[string]any{"k": "v"}))
	require.NoError(t, err)

	require.Len(t, f.results, 1)
	res := f.results[0]
	assert.True(t, res.Success)
	assert.Equal(t, "task-1", res.TaskName)
	assert.Equal(t, "j1", res.JobID)
	require.Len(t, res.WorkersToEnqueue, 1)
	assert.Equal(t, 30, res.WorkersToEnqueue[0].DelaySeconds)
}

func TestExecutor_WorkerFailure(t *testing.T) {
	f := newExecutorFixture(t, &scriptedWorker{
		class: "Boom",
		execute: func(context.Context, *Invocation) error {
			return errors.New("query timed out")
		},
	})

	err := f.executor.ProcessTask(context.Background(), dispatchTask(t, "Boom", nil))
	require.NoError(t, err, "a worker failure is reported as a result, not a handler error")

	require.Len(t, f.results, 1)
	assert.False(t, f.results[0].Success)
	assert.Equal(t, "query timed out", f.results[0].Message)
}

func TestExecutor_WorkerPanic(t *testing.T) {
	f := newExecutorFixture(t, &scriptedWorker{
		class: "Panics",
		execute: func(context.Context, *Invocation) error {
			panic("nil map write")
		},
	})

	err := f.executor.ProcessTask(context.Background(), dispatchTask(t, "Panics", nil))
	require.NoError(t, err)

	require.Len(t, f.results, 1)
	assert.False(t, f.results[0].Success)
	assert.Contains(t, f.results[0].Message, "worker panicked")
}

func TestExecutor_UnknownWorkerClass(t *testing.T) {
	f := newExecutorFixture(t)

	err := f.executor.ProcessTask(context.Background(), dispatchTask(t, "Ghost", nil))
	require.NoError(t, err)

	require.Len(t, f.results, 1)
	assert.False(t, f.results[0].Success)
	assert.Contains(t, f.results[0].Message, "unknown worker class")
}

func TestExecutor_MalformedPayloadDropped(t *testing.T) {
	f := newExecutorFixture(t)

	err := f.executor.ProcessTask(context.Background(),
		asynq.NewTask(taskqueue.TypeExecuteWorker, []byte("{")))
	require.NoError(t, err)
	assert.Empty(t, f.results, "a payload that can never succeed must not be redelivered")
}

func TestExecutor_ResultPostFailureReturnsError(t *testing.T) {
	f := newExecutorFixture(t, &scriptedWorker{
		class:   "Echo",
		execute: func(context.Context, *Invocation) error { return nil },
	})
	f.status = http.StatusBadGateway

	err := f.executor.ProcessTask(context.Background(), dispatchTask(t, "Echo", nil))
	assert.Error(t, err, "an undelivered result must surface so the queue redelivers")
}
