package worker

import (
	"context"
	"fmt"
	"time"

	bigquery "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"

	"pipeflow/internal/domain"
)

const (
	// bqPollInterval is how often a running BigQuery job is polled.
	bqPollInterval = 5 * time.Second
	// bqPollCeiling bounds how long a single task polls before handing the
	// wait off to a delayed BQWaiter follow-up. Keeps long-running queries
	// from pinning a queue consumer.
	bqPollCeiling        = 300 * time.Second
	bqWaiterDelaySeconds = 60
)

// BQScriptExecutor submits a SQL script to BigQuery and waits for it.
type BQScriptExecutor struct{}

// Spec implements Worker.
func (w *BQScriptExecutor) Spec() Spec {
	return Spec{
		Class:       "BQScriptExecutor",
		Description: "Runs a SQL script in BigQuery and waits for completion.",
		Params: []ParamSpec{
			{Name: "query", Type: domain.ParamTypeText, Required: true, Label: "SQL script"},
			{Name: "project_id", Type: domain.ParamTypeString, Required: true, Label: "GCP project"},
			{Name: "location", Type: domain.ParamTypeString, Required: false, Default: "US", Label: "BigQuery location"},
		},
	}
}

// Execute implements Worker.
func (w *BQScriptExecutor) Execute(ctx context.Context, inv *Invocation) error {
	query, err := inv.RequiredString("query")
	if err != nil {
		return err
	}
	project, err := inv.RequiredString("project_id")
	if err != nil {
		return err
	}
	location := inv.StringParam("location", "US")

	svc, err := bigquery.NewService(ctx)
	if err != nil {
		return fmt.Errorf("create bigquery client: %w", err)
	}

	job := &bigquery.Job{
		JobReference: &bigquery.JobReference{
			ProjectId: project,
			Location:  location,
		},
		Configuration: &bigquery.JobConfiguration{
			Query: &bigquery.JobConfigurationQuery{
				Query:        query,
				UseLegacySql: googleapi.Bool(false),
			},
		},
	}

	var inserted *bigquery.Job
	err = retry(ctx, func() error {
		var insertErr error
		inserted, insertErr = svc.Jobs.Insert(project, job).Context(ctx).Do()
		return insertErr
	})
	if err != nil {
		return fmt.Errorf("submit bigquery job: %w", err)
	}

	jobID := inserted.JobReference.JobId
	inv.Logger.Info("bigquery job submitted", "bq_job_id", jobID, "location", location)
	return waitForBQJob(ctx, inv, svc, project, jobID, location)
}

// BQWaiter resumes waiting on an already-submitted BigQuery job. It is
// normally enqueued by BQScriptExecutor (or by itself) once the polling
// ceiling is reached.
type BQWaiter struct{}

// Spec implements Worker.
func (w *BQWaiter) Spec() Spec {
	return Spec{
		Class:       "BQWaiter",
		Description: "Waits for a previously submitted BigQuery job to finish.",
		Params: []ParamSpec{
			{Name: "project_id", Type: domain.ParamTypeString, Required: true, Label: "GCP project"},
			{Name: "bq_job_id", Type: domain.ParamTypeString, Required: true, Label: "BigQuery job id"},
			{Name: "location", Type: domain.ParamTypeString, Required: false, Default: "US", Label: "BigQuery location"},
		},
	}
}

// Execute implements Worker.
func (w *BQWaiter) Execute(ctx context.Context, inv *Invocation) error {
	project, err := inv.RequiredString("project_id")
	if err != nil {
		return err
	}
	jobID, err := inv.RequiredString("bq_job_id")
	if err != nil {
		return err
	}
	location := inv.StringParam("location", "US")

	svc, err := bigquery.NewService(ctx)
	if err != nil {
		return fmt.Errorf("create bigquery client: %w", err)
	}
	return waitForBQJob(ctx, inv, svc, project, jobID, location)
}

// waitForBQJob polls until the job finishes or the polling ceiling passes,
// in which case a delayed BQWaiter follow-up continues the wait.
func waitForBQJob(ctx context.Context, inv *Invocation, svc *bigquery.Service, project, jobID, location string) error {
	deadline := time.Now().Add(bqPollCeiling)
	for {
		var job *bigquery.Job
		err := retry(ctx, func() error {
			var getErr error
			job, getErr = svc.Jobs.Get(project, jobID).Location(location).Context(ctx).Do()
			return getErr
		})
		if err != nil {
			return fmt.Errorf("poll bigquery job %s: %w", jobID, err)
		}

		if job.Status != nil && job.Status.State == "DONE" {
			if job.Status.ErrorResult != nil {
				return fmt.Errorf("bigquery job %s failed: %s", jobID, job.Status.ErrorResult.Message)
			}
			inv.Logger.Info("bigquery job finished", "bq_job_id", jobID)
			return nil
		}

		if time.Now().After(deadline) {
			inv.Logger.Info("bigquery job still running, scheduling waiter",
				"bq_job_id", jobID, "delay_seconds", bqWaiterDelaySeconds)
			inv.Enqueue("BQWaiter", map[string]any{
				"project_id": project,
				"bq_job_id":  jobID,
				"location":   location,
			}, bqWaiterDelaySeconds)
			return nil
		}

		select {
		case <-time.After(bqPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
