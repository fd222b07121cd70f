package domain

import "time"

// Log levels for persisted execution logs.
const (
	LogLevelDebug   = "DEBUG"
	LogLevelInfo    = "INFO"
	LogLevelWarning = "WARNING"
	LogLevelError   = "ERROR"
)

// LogEntry is one persisted execution log record, tagged with the pipeline,
// job, and worker class that produced it.
type LogEntry struct {
	ID          string
	PipelineID  string
	JobID       string
	JobName     string // resolved at query time, "N/A" when the job is gone
	WorkerClass string
	LogLevel    string
	Message     string
	CreatedAt   time.Time
}

// LogFilter holds filter parameters for querying execution logs. Timestamps
// are compared against LogEntry.CreatedAt; Before acts as the pagination
// cursor (strictly-older-than).
type LogFilter struct {
	WorkerClass string
	JobID       string
	LogLevel    string
	Query       string // free-text substring match on the message
	From        *time.Time
	To          *time.Time
	Before      *time.Time
	Limit       int
}
