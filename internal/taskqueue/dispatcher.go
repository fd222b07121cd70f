package taskqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"pipeflow/internal/domain"
)

// Compile-time check.
var _ domain.Dispatcher = (*AsynqDispatcher)(nil)

// AsynqDispatcher hands work items to a Redis-backed asynq queue. asynq
// delivers at least once; the controller's result processing is idempotent
// against redelivery.
type AsynqDispatcher struct {
	client *asynq.Client
	queue  string
	logger *slog.Logger
}

// NewAsynqDispatcher creates a dispatcher publishing to the given queue.
func NewAsynqDispatcher(redisOpt asynq.RedisClientOpt, queue string, logger *slog.Logger) *AsynqDispatcher {
	return &AsynqDispatcher{
		client: asynq.NewClient(redisOpt),
		queue:  queue,
		logger: logger,
	}
}

// Dispatch enqueues one unit of work. The task ID is the generated task name
// so an accidental double-dispatch of the same record is collapsed by the
// queue; redelivery by the queue itself can still occur.
func (d *AsynqDispatcher) Dispatch(ctx context.Context, dispatch domain.TaskDispatch) error {
	task, err := EncodeTask(dispatch)
	if err != nil {
		return err
	}

	opts := []asynq.Option{
		asynq.Queue(d.queue),
		asynq.TaskID(dispatch.TaskName),
		asynq.MaxRetry(5),
	}
	if dispatch.Delay > 0 {
		opts = append(opts, asynq.ProcessIn(dispatch.Delay))
	}

	info, err := d.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s for job %s: %w", dispatch.WorkerClass, dispatch.JobID, err)
	}
	d.logger.Debug("task dispatched",
		"task_name", dispatch.TaskName,
		"worker_class", dispatch.WorkerClass,
		"queue", info.Queue,
	)
	return nil
}

// Close releases the underlying Redis connections.
func (d *AsynqDispatcher) Close() error {
	return d.client.Close()
}
