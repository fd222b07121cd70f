package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pipeflow/internal/domain"
)

// Compile-time check.
var _ domain.PipelineRepository = (*PipelineRepo)(nil)

// PipelineRepo implements PipelineRepository using SQLite.
type PipelineRepo struct {
	db *sql.DB
}

// NewPipelineRepo creates a new PipelineRepo on the write pool.
func NewPipelineRepo(db *sql.DB) *PipelineRepo {
	return &PipelineRepo{db: db}
}

// Create inserts a new pipeline together with its schedules and params.
func (r *PipelineRepo) Create(ctx context.Context, p *domain.Pipeline) (*domain.Pipeline, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := p.ID
	if id == "" {
		id = domain.NewID()
	}
	_, err = tx.Exec(
		`INSERT INTO pipelines (id, name, status, emails_for_notifications, run_on_schedule)
		 VALUES (?, ?, ?, ?, ?)`,
		id, p.Name, domain.PipelineStatusIdle, p.EmailsForNotifications, boolToInt(p.RunOnSchedule))
	if err != nil {
		return nil, mapDBError(err)
	}

	for _, s := range p.Schedules {
		if _, err := tx.Exec(
			`INSERT INTO schedules (id, pipeline_id, cron) VALUES (?, ?, ?)`,
			domain.NewID(), id, s.Cron); err != nil {
			return nil, mapDBError(err)
		}
	}
	for i, prm := range p.Params {
		typ := prm.Type
		if typ == "" {
			typ = domain.ParamTypeString
		}
		if _, err := tx.Exec(
			`INSERT INTO params (id, owner_id, position, name, type, value, label)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			domain.NewID(), id, i, prm.Name, typ, prm.Value, prm.Label); err != nil {
			return nil, mapDBError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a pipeline with schedules and params preloaded.
func (r *PipelineRepo) GetByID(ctx context.Context, id string) (*domain.Pipeline, error) {
	return getPipeline(r.db, id)
}

func getPipeline(q querier, id string) (*domain.Pipeline, error) {
	var p domain.Pipeline
	var runOnSchedule, stopRequested int64
	err := q.QueryRow(
		`SELECT id, name, status, emails_for_notifications, run_on_schedule,
		        stop_requested, message, created_at, updated_at
		 FROM pipelines WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Status, &p.EmailsForNotifications, &runOnSchedule,
			&stopRequested, &p.Message, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	p.RunOnSchedule = runOnSchedule != 0
	p.StopRequested = stopRequested != 0

	if p.Schedules, err = loadSchedules(q, id); err != nil {
		return nil, err
	}
	if p.Params, err = loadParams(q, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func loadSchedules(q querier, pipelineID string) ([]domain.Schedule, error) {
	rows, err := q.Query(
		`SELECT id, pipeline_id, cron FROM schedules WHERE pipeline_id = ? ORDER BY id`,
		pipelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		var s domain.Schedule
		if err := rows.Scan(&s.ID, &s.PipelineID, &s.Cron); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

// List returns a filtered, paginated list of pipelines ordered by most
// recently updated, schedules preloaded.
func (r *PipelineRepo) List(ctx context.Context, filter domain.PipelineFilter) ([]domain.Pipeline, int64, error) {
	where := ""
	var args []any
	if filter.NameContains != "" {
		where = ` WHERE name LIKE ? COLLATE NOCASE`
		args = append(args, "%"+filter.NameContains+"%")
	}

	var total int64
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM pipelines`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listArgs := append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := r.db.Query(
		`SELECT id, name, status, emails_for_notifications, run_on_schedule,
		        stop_requested, message, created_at, updated_at
		 FROM pipelines`+where+` ORDER BY updated_at DESC LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var pipelines []domain.Pipeline
	for rows.Next() {
		var p domain.Pipeline
		var runOnSchedule, stopRequested int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.EmailsForNotifications,
			&runOnSchedule, &stopRequested, &p.Message, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		p.RunOnSchedule = runOnSchedule != 0
		p.StopRequested = stopRequested != 0
		pipelines = append(pipelines, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range pipelines {
		if pipelines[i].Schedules, err = loadSchedules(r.db, pipelines[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return pipelines, total, nil
}

// ListScheduled returns every pipeline with run_on_schedule set.
func (r *PipelineRepo) ListScheduled(ctx context.Context) ([]domain.Pipeline, error) {
	rows, err := r.db.Query(
		`SELECT id, name, status, emails_for_notifications, run_on_schedule,
		        stop_requested, message, created_at, updated_at
		 FROM pipelines WHERE run_on_schedule = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pipelines []domain.Pipeline
	for rows.Next() {
		var p domain.Pipeline
		var runOnSchedule, stopRequested int64
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.EmailsForNotifications,
			&runOnSchedule, &stopRequested, &p.Message, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.RunOnSchedule = runOnSchedule != 0
		p.StopRequested = stopRequested != 0
		pipelines = append(pipelines, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range pipelines {
		if pipelines[i].Schedules, err = loadSchedules(r.db, pipelines[i].ID); err != nil {
			return nil, err
		}
	}
	return pipelines, nil
}

// Update applies partial updates to a pipeline. Non-nil schedule and param
// slices replace the existing relations wholesale.
func (r *PipelineRepo) Update(ctx context.Context, id string, req domain.UpdatePipelineRequest) (*domain.Pipeline, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if req.Name != nil {
		name = *req.Name
	}
	emails := current.EmailsForNotifications
	if req.EmailsForNotifications != nil {
		emails = *req.EmailsForNotifications
	}
	runOnSchedule := current.RunOnSchedule
	if req.RunOnSchedule != nil {
		runOnSchedule = *req.RunOnSchedule
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE pipelines
		 SET name = ?, emails_for_notifications = ?, run_on_schedule = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, emails, boolToInt(runOnSchedule), id)
	if err != nil {
		return nil, mapDBError(err)
	}

	if req.Schedules != nil {
		if _, err := tx.Exec(`DELETE FROM schedules WHERE pipeline_id = ?`, id); err != nil {
			return nil, err
		}
		for _, s := range req.Schedules {
			if _, err := tx.Exec(
				`INSERT INTO schedules (id, pipeline_id, cron) VALUES (?, ?, ?)`,
				domain.NewID(), id, s.Cron); err != nil {
				return nil, mapDBError(err)
			}
		}
	}
	if req.Params != nil {
		if err := replaceParams(tx, id, req.Params); err != nil {
			return nil, mapDBError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r.GetByID(ctx, id)
}

// SetRunOnSchedule toggles scheduled execution for a pipeline.
func (r *PipelineRepo) SetRunOnSchedule(ctx context.Context, id string, runOnSchedule bool) (*domain.Pipeline, error) {
	res, err := r.db.Exec(
		`UPDATE pipelines SET run_on_schedule = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		boolToInt(runOnSchedule), id)
	if err != nil {
		return nil, mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound("pipeline %s not found", id)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a pipeline; owned schedules, params, jobs, conditions, and
// task records go with it via cascading foreign keys.
func (r *PipelineRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// Params have no FK (shared owner column), clean them up explicitly.
	if _, err := tx.Exec(
		`DELETE FROM params WHERE owner_id IN (SELECT id FROM jobs WHERE pipeline_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM params WHERE owner_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(
		`DELETE FROM job_logs WHERE pipeline_id = ?`, id); err != nil {
		return err
	}

	res, err := tx.Exec(`DELETE FROM pipelines WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound("pipeline %s not found", id)
	}
	return tx.Commit()
}
