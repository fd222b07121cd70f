package domain

import "time"

// Job status constants.
const (
	JobStatusIdle      = "idle"
	JobStatusWaiting   = "waiting"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// Start condition kinds. A dependent job starts only once every one of its
// preceding jobs has reached a terminal status satisfying the condition.
const (
	ConditionSuccess  = "success"
	ConditionFail     = "fail"
	ConditionWhatever = "whatever"
)

// ValidCondition reports whether c is a known start-condition kind.
func ValidCondition(c string) bool {
	switch c {
	case ConditionSuccess, ConditionFail, ConditionWhatever:
		return true
	}
	return false
}

// Job wraps one worker's invocation(s) inside a pipeline, with dependency
// conditions on other jobs of the same pipeline.
type Job struct {
	ID              string
	PipelineID      string
	Name            string
	WorkerClass     string
	Status          string
	Message         string
	Params          []Param
	StartConditions []StartCondition
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal reports whether the job has reached a terminal status.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}

// IsRoot reports whether the job has no start conditions.
func (j *Job) IsRoot() bool {
	return len(j.StartConditions) == 0
}

// StartCondition is a dependency edge from a job to a preceding job with a
// required terminal-status kind.
type StartCondition struct {
	ID             string
	JobID          string
	PrecedingJobID string
	Condition      string
}

// Satisfied reports whether the condition is met by the preceding job's
// current status. It returns false while the preceding job is non-terminal.
func (c StartCondition) Satisfied(precedingStatus string) bool {
	switch c.Condition {
	case ConditionSuccess:
		return precedingStatus == JobStatusSucceeded
	case ConditionFail:
		return precedingStatus == JobStatusFailed
	case ConditionWhatever:
		return precedingStatus == JobStatusSucceeded || precedingStatus == JobStatusFailed
	}
	return false
}

// Decided reports whether the condition can no longer change: the preceding
// job is terminal, so the condition is either satisfied or permanently unmet.
func (c StartCondition) Decided(precedingStatus string) bool {
	return precedingStatus == JobStatusSucceeded || precedingStatus == JobStatusFailed
}

// StartConditionInput carries a dependency edge in create/update requests.
type StartConditionInput struct {
	PrecedingJobID string
	Condition      string
}

// CreateJobRequest holds parameters for creating a job.
type CreateJobRequest struct {
	Name            string
	WorkerClass     string
	Params          []ParamInput
	StartConditions []StartConditionInput
}

// Validate checks that the request is well-formed. Worker class existence
// and preceding-job resolution are validated by the service.
func (r *CreateJobRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	if r.WorkerClass == "" {
		return ErrValidation("worker_class is required")
	}
	for _, c := range r.StartConditions {
		if c.PrecedingJobID == "" {
			return ErrValidation("start condition preceding_job_id is required")
		}
		if !ValidCondition(c.Condition) {
			return ErrValidation("unknown start condition kind: %s", c.Condition)
		}
	}
	return nil
}

// UpdateJobRequest holds partial-update parameters for a job. Nil pointer
// fields are left unchanged; non-nil slices replace the relation wholesale.
type UpdateJobRequest struct {
	Name            *string
	WorkerClass     *string
	Params          []ParamInput
	StartConditions []StartConditionInput
}
