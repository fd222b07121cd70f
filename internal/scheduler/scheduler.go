// Package scheduler drives scheduled pipeline starts from an in-process
// minute tick.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Starter starts every pipeline whose schedule matches the tick.
type Starter interface {
	StartScheduled(ctx context.Context, tick time.Time) (int, error)
}

// Scheduler fires once a minute and hands the tick to the Starter, which
// owns cron matching per pipeline. Running more than one controller with
// the scheduler enabled double-starts pipelines; enable it on one instance.
type Scheduler struct {
	cron        *cron.Cron
	starter     Starter
	logger      *slog.Logger
	tickTimeout time.Duration
}

// New creates a Scheduler.
func New(starter Starter, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		starter:     starter,
		logger:      logger,
		tickTimeout: 50 * time.Second,
	}
}

// Start begins ticking. It returns immediately; ticks run on the cron
// goroutine.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("* * * * *", s.tick)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started")
	return nil
}

// Stop halts ticking and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) tick() {
	tick := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.tickTimeout)
	defer cancel()

	started, err := s.starter.StartScheduled(ctx, tick)
	if err != nil {
		s.logger.Error("scheduled scan failed", "error", err)
		return
	}
	if started > 0 {
		s.logger.Info("scheduled scan finished", "started", started)
	}
}
