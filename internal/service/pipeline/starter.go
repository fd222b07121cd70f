package pipeline

import (
	"context"
	"time"

	"pipeflow/internal/domain"
)

// StartPipelines starts each listed pipeline. Failures are logged and do not
// abort the batch; the count of successfully started pipelines is returned.
func (s *Service) StartPipelines(ctx context.Context, ids []string) int {
	started := 0
	for _, id := range ids {
		if _, err := s.Start(ctx, id); err != nil {
			s.logger.Warn("batch start skipped pipeline", "pipeline_id", id, "error", err)
			continue
		}
		started++
	}
	return started
}

// StartScheduled scans every pipeline with scheduling enabled and starts
// those with a schedule matching the tick. A pipeline starts at most once
// per tick regardless of how many of its schedules match.
func (s *Service) StartScheduled(ctx context.Context, tick time.Time) (int, error) {
	pipelines, err := s.pipelines.ListScheduled(ctx)
	if err != nil {
		return 0, err
	}

	started := 0
	for i := range pipelines {
		if !s.scheduleMatches(&pipelines[i], tick) {
			continue
		}
		if _, err := s.Start(ctx, pipelines[i].ID); err != nil {
			// Typically the pipeline is still running from a previous tick.
			s.logger.Warn("scheduled start skipped",
				"pipeline_id", pipelines[i].ID, "error", err)
			continue
		}
		s.logger.Info("scheduled start", "pipeline_id", pipelines[i].ID, "name", pipelines[i].Name)
		started++
	}
	return started, nil
}

func (s *Service) scheduleMatches(p *domain.Pipeline, tick time.Time) bool {
	for _, sched := range p.Schedules {
		if CronMatches(sched.Cron, tick) {
			return true
		}
	}
	return false
}
