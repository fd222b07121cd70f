// Package logs provides querying over persisted execution logs.
package logs

import (
	"context"
	"log/slog"
	"time"

	"pipeflow/internal/domain"
)

// Service answers log queries for the API surface.
type Service struct {
	pipelines domain.PipelineRepository
	logs      domain.LogRepository
	logger    *slog.Logger
}

// NewService creates a new logs Service.
func NewService(pipelines domain.PipelineRepository, logs domain.LogRepository, logger *slog.Logger) *Service {
	return &Service{pipelines: pipelines, logs: logs, logger: logger}
}

// Page is one page of log entries plus the cursor for the next page. A
// cursor is the timestamp of the oldest entry returned; passing it back
// continues strictly before that instant. NextCursor is empty on the last
// page.
type Page struct {
	Entries    []domain.LogEntry
	NextCursor string
}

// Query returns execution logs for a pipeline, newest first. Cursor, when
// non-empty, must be a cursor returned by a previous call.
func (s *Service) Query(ctx context.Context, pipelineID string, f domain.LogFilter, cursor string) (*Page, error) {
	if _, err := s.pipelines.GetByID(ctx, pipelineID); err != nil {
		return nil, err
	}
	if f.LogLevel != "" && !validLevel(f.LogLevel) {
		return nil, domain.ErrValidation("unknown log level: %s", f.LogLevel)
	}
	if cursor != "" {
		before, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, domain.ErrValidation("malformed cursor: %s", cursor)
		}
		f.Before = &before
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}

	entries, err := s.logs.Query(ctx, pipelineID, f)
	if err != nil {
		return nil, err
	}

	page := &Page{Entries: entries}
	if len(entries) == f.Limit {
		page.NextCursor = entries[len(entries)-1].CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return page, nil
}

func validLevel(level string) bool {
	switch level {
	case domain.LogLevelDebug, domain.LogLevelInfo, domain.LogLevelWarning, domain.LogLevelError:
		return true
	}
	return false
}
