package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pipeflow/internal/domain"
)

// Compile-time check.
var _ domain.JobRepository = (*JobRepo)(nil)

// JobRepo implements JobRepository using SQLite.
type JobRepo struct {
	db *sql.DB
}

// NewJobRepo creates a new JobRepo on the write pool.
func NewJobRepo(db *sql.DB) *JobRepo {
	return &JobRepo{db: db}
}

// Create inserts a new job with its params and start conditions.
func (r *JobRepo) Create(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := job.ID
	if id == "" {
		id = domain.NewID()
	}
	_, err = tx.Exec(
		`INSERT INTO jobs (id, pipeline_id, name, worker_class, status)
		 VALUES (?, ?, ?, ?, ?)`,
		id, job.PipelineID, job.Name, job.WorkerClass, domain.JobStatusIdle)
	if err != nil {
		return nil, mapDBError(err)
	}

	for i, p := range job.Params {
		typ := p.Type
		if typ == "" {
			typ = domain.ParamTypeString
		}
		if _, err := tx.Exec(
			`INSERT INTO params (id, owner_id, position, name, type, value, label)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			domain.NewID(), id, i, p.Name, typ, p.Value, p.Label); err != nil {
			return nil, mapDBError(err)
		}
	}
	for _, c := range job.StartConditions {
		if _, err := tx.Exec(
			`INSERT INTO start_conditions (id, job_id, preceding_job_id, condition)
			 VALUES (?, ?, ?, ?)`,
			domain.NewID(), id, c.PrecedingJobID, c.Condition); err != nil {
			return nil, mapDBError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a job with params and start conditions preloaded.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	return getJob(r.db, id)
}

func getJob(q querier, id string) (*domain.Job, error) {
	var j domain.Job
	err := q.QueryRow(
		`SELECT id, pipeline_id, name, worker_class, status, message, created_at, updated_at
		 FROM jobs WHERE id = ?`, id).
		Scan(&j.ID, &j.PipelineID, &j.Name, &j.WorkerClass, &j.Status, &j.Message,
			&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	if j.Params, err = loadParams(q, id); err != nil {
		return nil, err
	}
	if j.StartConditions, err = loadStartConditions(q, id); err != nil {
		return nil, err
	}
	return &j, nil
}

// ListByPipeline returns every job of a pipeline in creation order, params
// and start conditions preloaded.
func (r *JobRepo) ListByPipeline(ctx context.Context, pipelineID string) ([]domain.Job, error) {
	return listJobs(r.db, pipelineID)
}

func listJobs(q querier, pipelineID string) ([]domain.Job, error) {
	rows, err := q.Query(
		`SELECT id, pipeline_id, name, worker_class, status, message, created_at, updated_at
		 FROM jobs WHERE pipeline_id = ? ORDER BY created_at, id`, pipelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(&j.ID, &j.PipelineID, &j.Name, &j.WorkerClass, &j.Status,
			&j.Message, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range jobs {
		if jobs[i].Params, err = loadParams(q, jobs[i].ID); err != nil {
			return nil, err
		}
		if jobs[i].StartConditions, err = loadStartConditions(q, jobs[i].ID); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

// Update applies partial updates to a job. Non-nil param and condition
// slices replace the existing relations wholesale.
func (r *JobRepo) Update(ctx context.Context, id string, req domain.UpdateJobRequest) (*domain.Job, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if req.Name != nil {
		name = *req.Name
	}
	workerClass := current.WorkerClass
	if req.WorkerClass != nil {
		workerClass = *req.WorkerClass
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE jobs SET name = ?, worker_class = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, workerClass, id)
	if err != nil {
		return nil, mapDBError(err)
	}

	if req.Params != nil {
		if err := replaceParams(tx, id, req.Params); err != nil {
			return nil, mapDBError(err)
		}
	}
	if req.StartConditions != nil {
		if _, err := tx.Exec(`DELETE FROM start_conditions WHERE job_id = ?`, id); err != nil {
			return nil, err
		}
		for _, c := range req.StartConditions {
			if _, err := tx.Exec(
				`INSERT INTO start_conditions (id, job_id, preceding_job_id, condition)
				 VALUES (?, ?, ?, ?)`,
				domain.NewID(), id, c.PrecedingJobID, c.Condition); err != nil {
				return nil, mapDBError(err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a job, its params, and any conditions referencing it.
func (r *JobRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM params WHERE owner_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("job %s not found", id)
	}
	return tx.Commit()
}
