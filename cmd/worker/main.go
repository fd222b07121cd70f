// The queue consumer binary: pulls dispatched tasks off the Redis queue,
// executes the named worker, and posts results back to the controller.
package main

import (
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"pipeflow/internal/config"
	"pipeflow/internal/taskqueue"
	"pipeflow/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = config.LoadDotEnv(".env")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	registry := worker.DefaultRegistry()
	results := taskqueue.NewResultClient(cfg.ResultURL)
	executor := worker.NewExecutor(registry, results, logger.With("component", "executor"))

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues:      map[string]int{cfg.QueueName: 1},
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(taskqueue.TypeExecuteWorker, executor)

	logger.Info("queue consumer starting",
		"queue", cfg.QueueName,
		"concurrency", cfg.WorkerConcurrency,
		"result_url", cfg.ResultURL,
	)
	return srv.Run(mux)
}
