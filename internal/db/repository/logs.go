package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"pipeflow/internal/domain"
)

// Compile-time check.
var _ domain.LogRepository = (*LogRepo)(nil)

// LogRepo persists execution log records in the metastore.
type LogRepo struct {
	db *sql.DB
}

// NewLogRepo creates a new LogRepo.
func NewLogRepo(db *sql.DB) *LogRepo {
	return &LogRepo{db: db}
}

// Insert stores one execution log record.
func (r *LogRepo) Insert(ctx context.Context, e *domain.LogEntry) error {
	id := e.ID
	if id == "" {
		id = domain.NewID()
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO job_logs (id, pipeline_id, job_id, worker_class, log_level, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, e.PipelineID, e.JobID, e.WorkerClass, e.LogLevel, e.Message, createdAt)
	return mapDBError(err)
}

// Query returns log entries for a pipeline, newest first, with the job name
// resolved where the job still exists. DEBUG entries are excluded unless
// explicitly requested via the LogLevel filter.
func (r *LogRepo) Query(ctx context.Context, pipelineID string, f domain.LogFilter) ([]domain.LogEntry, error) {
	var sb strings.Builder
	sb.WriteString(
		`SELECT l.id, l.pipeline_id, l.job_id, COALESCE(j.name, 'N/A'),
		        l.worker_class, l.log_level, l.message, l.created_at
		 FROM job_logs l LEFT JOIN jobs j ON j.id = l.job_id
		 WHERE l.pipeline_id = ?`)
	args := []any{pipelineID}

	if f.LogLevel != "" {
		sb.WriteString(` AND l.log_level = ?`)
		args = append(args, f.LogLevel)
	} else {
		sb.WriteString(` AND l.log_level != ?`)
		args = append(args, domain.LogLevelDebug)
	}
	if f.WorkerClass != "" {
		sb.WriteString(` AND l.worker_class = ?`)
		args = append(args, f.WorkerClass)
	}
	if f.JobID != "" {
		sb.WriteString(` AND l.job_id = ?`)
		args = append(args, f.JobID)
	}
	if f.Query != "" {
		sb.WriteString(` AND l.message LIKE ?`)
		args = append(args, "%"+f.Query+"%")
	}
	if f.From != nil {
		sb.WriteString(` AND l.created_at >= ?`)
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		sb.WriteString(` AND l.created_at <= ?`)
		args = append(args, f.To.UTC())
	}
	if f.Before != nil {
		sb.WriteString(` AND l.created_at < ?`)
		args = append(args, f.Before.UTC())
	}

	sb.WriteString(` ORDER BY l.created_at DESC LIMIT ?`)
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.ID, &e.PipelineID, &e.JobID, &e.JobName,
			&e.WorkerClass, &e.LogLevel, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
