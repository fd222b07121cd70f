// Package repository implements domain repository interfaces using SQLite.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"pipeflow/internal/domain"
)

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx so relation loaders can be
// shared between repositories and the execution transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// loadParams returns the ordered params owned by the given pipeline or job.
func loadParams(q querier, ownerID string) ([]domain.Param, error) {
	rows, err := q.Query(
		`SELECT id, owner_id, name, type, value, label
		 FROM params WHERE owner_id = ? ORDER BY position`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var params []domain.Param
	for rows.Next() {
		var p domain.Param
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Type, &p.Value, &p.Label); err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

// replaceParams deletes and re-inserts the params owned by ownerID,
// preserving input order.
func replaceParams(q querier, ownerID string, params []domain.ParamInput) error {
	if _, err := q.Exec(`DELETE FROM params WHERE owner_id = ?`, ownerID); err != nil {
		return err
	}
	for i, p := range params {
		typ := p.Type
		if typ == "" {
			typ = domain.ParamTypeString
		}
		_, err := q.Exec(
			`INSERT INTO params (id, owner_id, position, name, type, value, label)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			domain.NewID(), ownerID, i, p.Name, typ, p.Value, p.Label)
		if err != nil {
			return err
		}
	}
	return nil
}

// loadStartConditions returns the start conditions of the given job.
func loadStartConditions(q querier, jobID string) ([]domain.StartCondition, error) {
	rows, err := q.Query(
		`SELECT id, job_id, preceding_job_id, condition
		 FROM start_conditions WHERE job_id = ? ORDER BY id`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conds []domain.StartCondition
	for rows.Next() {
		var c domain.StartCondition
		if err := rows.Scan(&c.ID, &c.JobID, &c.PrecedingJobID, &c.Condition); err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, rows.Err()
}
