package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pipeflow/internal/domain"
)

// Export renders a pipeline as a portable document. Real job ids are
// replaced by fresh opaque tokens so documents carry no metastore ids;
// dependency edges are rewritten against the same tokens.
func (s *Service) Export(ctx context.Context, id string) (*domain.PipelineDocument, error) {
	p, err := s.pipelines.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobs.ListByPipeline(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := &domain.PipelineDocument{
		Name:          p.Name,
		RunOnSchedule: p.RunOnSchedule,
		Schedules:     []domain.ScheduleDocument{},
		Params:        []domain.ParamDocument{},
		Jobs:          []domain.JobDocument{},
	}
	for _, sched := range p.Schedules {
		doc.Schedules = append(doc.Schedules, domain.ScheduleDocument{Cron: sched.Cron})
	}
	for _, prm := range p.Params {
		doc.Params = append(doc.Params, paramDoc(prm))
	}

	tokens := make(map[string]string, len(jobs))
	for _, j := range jobs {
		tokens[j.ID] = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	for _, j := range jobs {
		jd := domain.JobDocument{
			ID:                  tokens[j.ID],
			Name:                j.Name,
			WorkerClass:         j.WorkerClass,
			Params:              []domain.ParamDocument{},
			HashStartConditions: []domain.StartConditionDocument{},
		}
		for _, prm := range j.Params {
			jd.Params = append(jd.Params, paramDoc(prm))
		}
		for _, c := range j.StartConditions {
			jd.HashStartConditions = append(jd.HashStartConditions, domain.StartConditionDocument{
				PrecedingJobID: tokens[c.PrecedingJobID],
				Condition:      c.Condition,
			})
		}
		doc.Jobs = append(doc.Jobs, jd)
	}
	return doc, nil
}

// Import creates a new pipeline from a document. Document-local job ids are
// resolved to freshly generated ones; the dependency graph keeps its shape.
func (s *Service) Import(ctx context.Context, doc *domain.PipelineDocument) (*domain.Pipeline, error) {
	if err := s.validateDocument(doc); err != nil {
		return nil, err
	}

	createReq := domain.CreatePipelineRequest{
		Name:          doc.Name,
		RunOnSchedule: doc.RunOnSchedule,
	}
	for _, sched := range doc.Schedules {
		createReq.Schedules = append(createReq.Schedules, domain.ScheduleInput{Cron: sched.Cron})
	}
	for _, prm := range doc.Params {
		createReq.Params = append(createReq.Params, paramInput(prm))
	}

	p, err := s.CreatePipeline(ctx, createReq)
	if err != nil {
		return nil, err
	}

	// Jobs are created without conditions first so every document-local id
	// resolves, then edges are attached in a second pass.
	realID := make(map[string]string, len(doc.Jobs))
	for _, jd := range doc.Jobs {
		job := &domain.Job{
			ID:          domain.NewID(),
			PipelineID:  p.ID,
			Name:        jd.Name,
			WorkerClass: jd.WorkerClass,
		}
		for _, prm := range jd.Params {
			job.Params = append(job.Params, domain.Param{
				Name: prm.Name, Type: prm.Type, Value: prm.Value, Label: prm.Label,
			})
		}
		created, err := s.jobs.Create(ctx, job)
		if err != nil {
			return nil, err
		}
		realID[jd.ID] = created.ID
	}
	for _, jd := range doc.Jobs {
		if len(jd.HashStartConditions) == 0 {
			continue
		}
		conditions := make([]domain.StartConditionInput, 0, len(jd.HashStartConditions))
		for _, c := range jd.HashStartConditions {
			conditions = append(conditions, domain.StartConditionInput{
				PrecedingJobID: realID[c.PrecedingJobID],
				Condition:      c.Condition,
			})
		}
		if _, err := s.jobs.Update(ctx, realID[jd.ID], domain.UpdateJobRequest{
			StartConditions: conditions,
		}); err != nil {
			return nil, err
		}
	}

	s.logger.Info("pipeline imported", "pipeline_id", p.ID, "name", p.Name, "jobs", len(doc.Jobs))
	return s.pipelines.GetByID(ctx, p.ID)
}

// validateDocument rejects malformed documents before anything is created.
func (s *Service) validateDocument(doc *domain.PipelineDocument) error {
	if doc == nil || doc.Name == "" {
		return domain.ErrValidation("pipeline document requires a name")
	}
	for _, sched := range doc.Schedules {
		if err := ValidateCron(sched.Cron); err != nil {
			return err
		}
	}
	for _, prm := range doc.Params {
		if prm.Name == "" {
			return domain.ErrValidation("param name is required")
		}
		if prm.Type != "" && !domain.ValidParamType(prm.Type) {
			return domain.ErrValidation("unknown param type: %s", prm.Type)
		}
	}

	seen := make(map[string]bool, len(doc.Jobs))
	graph := make([]domain.Job, 0, len(doc.Jobs))
	for _, jd := range doc.Jobs {
		if jd.ID == "" {
			return domain.ErrValidation("job %q is missing a document id", jd.Name)
		}
		if seen[jd.ID] {
			return domain.ErrValidation("duplicate job id %s in document", jd.ID)
		}
		seen[jd.ID] = true
		if jd.Name == "" {
			return domain.ErrValidation("job name is required")
		}
		if !s.workers.Has(jd.WorkerClass) {
			return domain.ErrValidation("unknown worker class: %s", jd.WorkerClass)
		}
		for _, prm := range jd.Params {
			if prm.Type != "" && !domain.ValidParamType(prm.Type) {
				return domain.ErrValidation("unknown param type: %s", prm.Type)
			}
		}

		job := domain.Job{ID: jd.ID}
		for _, c := range jd.HashStartConditions {
			if !domain.ValidCondition(c.Condition) {
				return domain.ErrValidation("unknown start condition kind: %s", c.Condition)
			}
			job.StartConditions = append(job.StartConditions, domain.StartCondition{
				JobID: jd.ID, PrecedingJobID: c.PrecedingJobID, Condition: c.Condition,
			})
		}
		graph = append(graph, job)
	}
	if err := ValidateGraph(graph); err != nil {
		return fmt.Errorf("invalid job graph in document: %w", err)
	}
	return nil
}

func paramDoc(p domain.Param) domain.ParamDocument {
	return domain.ParamDocument{Name: p.Name, Value: p.Value, Type: p.Type, Label: p.Label}
}

func paramInput(p domain.ParamDocument) domain.ParamInput {
	return domain.ParamInput{Name: p.Name, Type: p.Type, Value: p.Value, Label: p.Label}
}
