package api

import (
	"encoding/json"
	"time"

	"pipeflow/internal/domain"
)

// === Wire types ===

// Pipeline is the JSON representation of a pipeline.
type Pipeline struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Status                 string     `json:"status"`
	EmailsForNotifications string     `json:"emails_for_notifications,omitempty"`
	RunOnSchedule          bool       `json:"run_on_schedule"`
	Message                string     `json:"message,omitempty"`
	Schedules              []Schedule `json:"schedules"`
	Params                 []Param    `json:"params"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Schedule is the JSON representation of a cron schedule.
type Schedule struct {
	Cron string `json:"cron"`
}

// Param is the JSON representation of a pipeline or job parameter.
type Param struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Job is the JSON representation of a job.
type Job struct {
	ID                  string           `json:"id"`
	PipelineID          string           `json:"pipeline_id"`
	Name                string           `json:"name"`
	WorkerClass         string           `json:"worker_class"`
	Status              string           `json:"status"`
	Message             string           `json:"message,omitempty"`
	Params              []Param          `json:"params"`
	HashStartConditions []StartCondition `json:"hash_start_conditions"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// StartCondition is the JSON representation of a dependency edge.
type StartCondition struct {
	PrecedingJobID string `json:"preceding_job_id"`
	Condition      string `json:"condition"`
}

// LogEntry is the JSON representation of one execution log record.
type LogEntry struct {
	ID          string    `json:"id"`
	PipelineID  string    `json:"pipeline_id"`
	JobID       string    `json:"job_id,omitempty"`
	JobName     string    `json:"job_name"`
	WorkerClass string    `json:"worker_class,omitempty"`
	LogLevel    string    `json:"log_level"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// === Request bodies ===

type scheduleInput struct {
	Cron string `json:"cron"`
}

type paramInput struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
	Label string `json:"label"`
}

type startConditionInput struct {
	PrecedingJobID string `json:"preceding_job_id"`
	Condition      string `json:"condition"`
}

type createPipelineBody struct {
	Name                   string          `json:"name"`
	EmailsForNotifications string          `json:"emails_for_notifications"`
	RunOnSchedule          bool            `json:"run_on_schedule"`
	Schedules              []scheduleInput `json:"schedules"`
	Params                 []paramInput    `json:"params"`
}

type updatePipelineBody struct {
	Name                   *string         `json:"name"`
	EmailsForNotifications *string         `json:"emails_for_notifications"`
	RunOnSchedule          *bool           `json:"run_on_schedule"`
	Schedules              []scheduleInput `json:"schedules"`
	Params                 []paramInput    `json:"params"`
}

type runOnScheduleBody struct {
	RunOnSchedule bool `json:"run_on_schedule"`
}

type createJobBody struct {
	Name                string                `json:"name"`
	WorkerClass         string                `json:"worker_class"`
	Params              []paramInput          `json:"params"`
	HashStartConditions []startConditionInput `json:"hash_start_conditions"`
}

type updateJobBody struct {
	Name                *string               `json:"name"`
	WorkerClass         *string               `json:"worker_class"`
	Params              []paramInput          `json:"params"`
	HashStartConditions []startConditionInput `json:"hash_start_conditions"`
}

// startPipelinesBody carries either the sentinel string "scheduled" or an
// explicit list of pipeline ids, so it is decoded in two steps.
type startPipelinesBody struct {
	PipelineIDs json.RawMessage `json:"pipeline_ids"`
}

type resetBody struct {
	BatchSize int `json:"batch_size"`
}

// === Mappers ===

func pipelineToAPI(p *domain.Pipeline) Pipeline {
	out := Pipeline{
		ID:                     p.ID,
		Name:                   p.Name,
		Status:                 p.Status,
		EmailsForNotifications: p.EmailsForNotifications,
		RunOnSchedule:          p.RunOnSchedule,
		Message:                p.Message,
		Schedules:              []Schedule{},
		Params:                 []Param{},
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
	for _, s := range p.Schedules {
		out.Schedules = append(out.Schedules, Schedule{Cron: s.Cron})
	}
	for _, prm := range p.Params {
		out.Params = append(out.Params, Param{Name: prm.Name, Type: prm.Type, Value: prm.Value, Label: prm.Label})
	}
	return out
}

func jobToAPI(j *domain.Job) Job {
	out := Job{
		ID:                  j.ID,
		PipelineID:          j.PipelineID,
		Name:                j.Name,
		WorkerClass:         j.WorkerClass,
		Status:              j.Status,
		Message:             j.Message,
		Params:              []Param{},
		HashStartConditions: []StartCondition{},
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
	}
	for _, prm := range j.Params {
		out.Params = append(out.Params, Param{Name: prm.Name, Type: prm.Type, Value: prm.Value, Label: prm.Label})
	}
	for _, c := range j.StartConditions {
		out.HashStartConditions = append(out.HashStartConditions, StartCondition{
			PrecedingJobID: c.PrecedingJobID, Condition: c.Condition,
		})
	}
	return out
}

func logEntryToAPI(e *domain.LogEntry) LogEntry {
	return LogEntry{
		ID:          e.ID,
		PipelineID:  e.PipelineID,
		JobID:       e.JobID,
		JobName:     e.JobName,
		WorkerClass: e.WorkerClass,
		LogLevel:    e.LogLevel,
		Message:     e.Message,
		CreatedAt:   e.CreatedAt,
	}
}

func schedulesToDomain(in []scheduleInput) []domain.ScheduleInput {
	if in == nil {
		return nil
	}
	out := make([]domain.ScheduleInput, 0, len(in))
	for _, s := range in {
		out = append(out, domain.ScheduleInput{Cron: s.Cron})
	}
	return out
}

func paramsToDomain(in []paramInput) []domain.ParamInput {
	if in == nil {
		return nil
	}
	out := make([]domain.ParamInput, 0, len(in))
	for _, p := range in {
		out = append(out, domain.ParamInput{Name: p.Name, Type: p.Type, Value: p.Value, Label: p.Label})
	}
	return out
}

func conditionsToDomain(in []startConditionInput) []domain.StartConditionInput {
	if in == nil {
		return nil
	}
	out := make([]domain.StartConditionInput, 0, len(in))
	for _, c := range in {
		out = append(out, domain.StartConditionInput{PrecedingJobID: c.PrecedingJobID, Condition: c.Condition})
	}
	return out
}
