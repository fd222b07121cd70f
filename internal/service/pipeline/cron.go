package pipeline

import (
	"time"

	"github.com/robfig/cron/v3"

	"pipeflow/internal/domain"
)

// ValidateCron checks a standard five-field cron expression.
func ValidateCron(expr string) error {
	if expr == "" {
		return domain.ErrValidation("cron expression is required")
	}
	if _, err := cron.ParseStandard(expr); err != nil {
		return domain.ErrValidation("invalid cron expression %q: %v", expr, err)
	}
	return nil
}

// CronMatches reports whether the expression fires at the given instant,
// truncated to minute precision. Invalid expressions never match; they are
// rejected at definition time.
func CronMatches(expr string, t time.Time) bool {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return false
	}
	tick := t.Truncate(time.Minute)
	return sched.Next(tick.Add(-time.Second)).Equal(tick)
}
