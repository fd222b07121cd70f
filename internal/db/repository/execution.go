package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pipeflow/internal/domain"
)

// Compile-time check.
var _ domain.ExecutionStore = (*ExecutionStore)(nil)

// ExecutionStore applies execution state transitions on the write pool.
// The pool's single connection plus _txlock=immediate serializes concurrent
// result callbacks, making check-then-act over task counts atomic.
type ExecutionStore struct {
	db *sql.DB
}

// NewExecutionStore creates an ExecutionStore on the write pool.
func NewExecutionStore(db *sql.DB) *ExecutionStore {
	return &ExecutionStore{db: db}
}

// WithTx runs fn inside a single metastore transaction, committing on nil
// and rolling back on error or panic.
func (s *ExecutionStore) WithTx(ctx context.Context, fn func(domain.ExecutionTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&executionTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// TasksInfo reports the oldest outstanding task and the total count.
// MIN() strips the column's declared type, so the driver hands the timestamp
// back as its stored string form.
func (s *ExecutionStore) TasksInfo(ctx context.Context) (domain.TasksInfo, error) {
	var info domain.TasksInfo
	var oldest sql.NullString
	err := s.db.QueryRow(
		`SELECT MIN(created_at), COUNT(*) FROM enqueued_tasks`).
		Scan(&oldest, &info.RunningTasksCount)
	if err != nil {
		return info, err
	}
	if oldest.Valid {
		for _, layout := range []string{
			"2006-01-02 15:04:05.999999999-07:00",
			"2006-01-02 15:04:05",
			time.RFC3339Nano,
		} {
			if t, err := time.Parse(layout, oldest.String); err == nil {
				info.OldestTaskTime = &t
				break
			}
		}
	}
	return info, nil
}

// ResetStatuses forces every job and pipeline back to idle and purges task
// records. Updates run in bounded batches so no single transaction holds the
// write lock for long.
func (s *ExecutionStore) ResetStatuses(ctx context.Context, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	for _, stmt := range []string{
		`UPDATE jobs SET status = 'idle', message = ''
		 WHERE id IN (SELECT id FROM jobs WHERE status != 'idle' LIMIT ?)`,
		`UPDATE pipelines SET status = 'idle', stop_requested = 0
		 WHERE id IN (SELECT id FROM pipelines WHERE status != 'idle' LIMIT ?)`,
		`DELETE FROM enqueued_tasks
		 WHERE name IN (SELECT name FROM enqueued_tasks LIMIT ?)`,
	} {
		for {
			res, err := s.db.ExecContext(ctx, stmt, batchSize)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				break
			}
		}
	}
	return nil
}

// executionTx implements domain.ExecutionTx over a *sql.Tx.
type executionTx struct {
	tx *sql.Tx
}

func (t *executionTx) GetPipeline(id string) (*domain.Pipeline, error) {
	return getPipeline(t.tx, id)
}

func (t *executionTx) UpdatePipelineState(p *domain.Pipeline) error {
	res, err := t.tx.Exec(
		`UPDATE pipelines
		 SET status = ?, message = ?, stop_requested = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.Status, p.Message, boolToInt(p.StopRequested), p.ID)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("pipeline %s not found", p.ID)
	}
	return nil
}

func (t *executionTx) ListJobs(pipelineID string) ([]domain.Job, error) {
	return listJobs(t.tx, pipelineID)
}

func (t *executionTx) GetJob(id string) (*domain.Job, error) {
	return getJob(t.tx, id)
}

func (t *executionTx) SetJobStatus(id, status, message string) error {
	res, err := t.tx.Exec(
		`UPDATE jobs SET status = ?, message = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, message, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("job %s not found", id)
	}
	return nil
}

func (t *executionTx) CreateTask(task *domain.TaskEnqueued) error {
	createdAt := task.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := t.tx.Exec(
		`INSERT INTO enqueued_tasks (name, job_id, created_at) VALUES (?, ?, ?)`,
		task.Name, task.JobID, createdAt)
	return mapDBError(err)
}

func (t *executionTx) GetTask(jobID, name string) (*domain.TaskEnqueued, error) {
	var task domain.TaskEnqueued
	err := t.tx.QueryRow(
		`SELECT name, job_id, created_at FROM enqueued_tasks WHERE job_id = ? AND name = ?`,
		jobID, name).
		Scan(&task.Name, &task.JobID, &task.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &task, nil
}

func (t *executionTx) DeleteTask(jobID, name string) error {
	_, err := t.tx.Exec(
		`DELETE FROM enqueued_tasks WHERE job_id = ? AND name = ?`, jobID, name)
	return mapDBError(err)
}

func (t *executionTx) CountTasksForJob(jobID string) (int64, error) {
	var n int64
	err := t.tx.QueryRow(
		`SELECT COUNT(*) FROM enqueued_tasks WHERE job_id = ?`, jobID).Scan(&n)
	return n, err
}

func (t *executionTx) CountTasksForPipeline(pipelineID string) (int64, error) {
	var n int64
	err := t.tx.QueryRow(
		`SELECT COUNT(*) FROM enqueued_tasks
		 WHERE job_id IN (SELECT id FROM jobs WHERE pipeline_id = ?)`, pipelineID).Scan(&n)
	return n, err
}

func (t *executionTx) DeleteTasksForPipeline(pipelineID string) error {
	_, err := t.tx.Exec(
		`DELETE FROM enqueued_tasks
		 WHERE job_id IN (SELECT id FROM jobs WHERE pipeline_id = ?)`, pipelineID)
	return mapDBError(err)
}
