// The controller binary: serves the management API, receives task results
// from queue consumers, and optionally runs the in-process schedule ticker.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"pipeflow/internal/api"
	"pipeflow/internal/app"
	"pipeflow/internal/config"
	internaldb "pipeflow/internal/db"
	"pipeflow/internal/scheduler"
	"pipeflow/internal/taskqueue"
)

func main() {
	if err := run(); err != nil {
		slog.Error("controller exited", "error", err)
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

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 0)
	if err != nil {
		return err
	}
	defer writeDB.Close()
	defer readDB.Close()

	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	dispatcher := taskqueue.NewAsynqDispatcher(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, cfg.QueueName, logger.With("component", "dispatcher"))
	defer dispatcher.Close()

	application := app.New(app.Deps{
		Cfg:        cfg,
		WriteDB:    writeDB,
		ReadDB:     readDB,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	handler := api.NewHandler(
		application.Services.Pipeline,
		application.Services.Logs,
		application.Registry,
		logger.With("component", "api"),
	)
	router := api.NewRouter(handler, cfg, logger.With("component", "http"))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.SchedulerEnabled {
		sched := scheduler.New(application.Services.Pipeline, logger.With("component", "scheduler"))
		if err := sched.Start(); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	} else {
		logger.Info("scheduler disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
