package domain

import "time"

// Pipeline status constants.
const (
	PipelineStatusIdle      = "idle"
	PipelineStatusRunning   = "running"
	PipelineStatusStopping  = "stopping"
	PipelineStatusFailed    = "failed"
	PipelineStatusSucceeded = "succeeded"
)

// Param value types accepted for pipeline and job parameters.
const (
	ParamTypeString  = "string"
	ParamTypeText    = "text"
	ParamTypeNumber  = "number"
	ParamTypeBoolean = "boolean"
)

// Pipeline is a named, schedulable graph of jobs with an overall run status.
type Pipeline struct {
	ID                     string
	Name                   string
	Status                 string
	EmailsForNotifications string
	RunOnSchedule          bool
	// StopRequested is set by Stop and cleared by Start. While set, result
	// callbacks are still consumed but never enqueue further work.
	StopRequested bool
	// Message holds the last pipeline-level error, cleared on Start.
	Message   string
	Schedules []Schedule
	Params    []Param
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsBlocked reports whether the pipeline is active and therefore cannot be
// edited or deleted.
func (p *Pipeline) IsBlocked() bool {
	return p.Status == PipelineStatusRunning || p.Status == PipelineStatusStopping
}

// CanStart reports whether a fresh Start is allowed from the current status.
func (p *Pipeline) CanStart() bool {
	switch p.Status {
	case PipelineStatusIdle, PipelineStatusFailed, PipelineStatusSucceeded:
		return true
	}
	return false
}

// Schedule is a single cron expression attached to a pipeline.
type Schedule struct {
	ID         string
	PipelineID string
	Cron       string
}

// Param is an ordered name/type/value triple owned by a pipeline or a job.
type Param struct {
	ID      string
	OwnerID string // pipeline ID or job ID
	Name    string
	Type    string
	Value   string
	Label   string
}

// ValidParamType reports whether t is an accepted parameter type.
func ValidParamType(t string) bool {
	switch t {
	case ParamTypeString, ParamTypeText, ParamTypeNumber, ParamTypeBoolean:
		return true
	}
	return false
}

// ScheduleInput carries a cron expression in create/update requests.
type ScheduleInput struct {
	Cron string
}

// ParamInput carries a parameter in create/update requests.
type ParamInput struct {
	Name  string
	Type  string
	Value string
	Label string
}

// CreatePipelineRequest holds parameters for creating a pipeline.
type CreatePipelineRequest struct {
	Name                   string
	EmailsForNotifications string
	RunOnSchedule          bool
	Schedules              []ScheduleInput
	Params                 []ParamInput
}

// Validate checks that the request is well-formed. Cron expressions are
// validated by the service, which owns the cron parser.
func (r *CreatePipelineRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	for _, p := range r.Params {
		if p.Name == "" {
			return ErrValidation("param name is required")
		}
		if p.Type != "" && !ValidParamType(p.Type) {
			return ErrValidation("unknown param type: %s", p.Type)
		}
	}
	return nil
}

// UpdatePipelineRequest holds partial-update parameters for a pipeline.
// Nil pointer fields are left unchanged; non-nil slices replace the
// existing relation wholesale.
type UpdatePipelineRequest struct {
	Name                   *string
	EmailsForNotifications *string
	RunOnSchedule          *bool
	Schedules              []ScheduleInput
	Params                 []ParamInput
}

// PipelineFilter holds list parameters for querying pipelines.
type PipelineFilter struct {
	NameContains string
	Page         PageRequest
}
