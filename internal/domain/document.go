package domain

// PipelineDocument is the import/export representation of a pipeline. Job ids
// are opaque within the document: export re-anonymizes real ids, import
// re-resolves them to newly created ones, preserving the dependency graph
// shape exactly.
type PipelineDocument struct {
	Name          string             `json:"name" yaml:"name"`
	RunOnSchedule bool               `json:"run_on_schedule" yaml:"run_on_schedule"`
	Schedules     []ScheduleDocument `json:"schedules" yaml:"schedules"`
	Params        []ParamDocument    `json:"params" yaml:"params"`
	Jobs          []JobDocument      `json:"jobs" yaml:"jobs"`
}

// ScheduleDocument is one cron schedule in a pipeline document.
type ScheduleDocument struct {
	Cron string `json:"cron" yaml:"cron"`
}

// ParamDocument is one parameter in a pipeline document.
type ParamDocument struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
	Type  string `json:"type" yaml:"type"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// JobDocument is one job in a pipeline document. ID is document-local.
type JobDocument struct {
	ID                  string                   `json:"id" yaml:"id"`
	Name                string                   `json:"name" yaml:"name"`
	WorkerClass         string                   `json:"worker_class" yaml:"worker_class"`
	Params              []ParamDocument          `json:"params" yaml:"params"`
	HashStartConditions []StartConditionDocument `json:"hash_start_conditions" yaml:"hash_start_conditions"`
}

// StartConditionDocument is one dependency edge in a pipeline document,
// referencing the preceding job by its document-local id.
type StartConditionDocument struct {
	PrecedingJobID string `json:"preceding_job_id" yaml:"preceding_job_id"`
	Condition      string `json:"condition" yaml:"condition"`
}
