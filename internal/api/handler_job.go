package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pipeflow/internal/domain"
)

// ListJobs handles GET /api/pipelines/{pipelineID}/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.pipelines.ListJobs(r.Context(), chi.URLParam(r, "pipelineID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	data := make([]Job, len(jobs))
	for i := range jobs {
		data[i] = jobToAPI(&jobs[i])
	}
	h.writeJSON(w, http.StatusOK, data)
}

// CreateJob handles POST /api/pipelines/{pipelineID}/jobs.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var body createJobBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	job, err := h.pipelines.CreateJob(r.Context(), chi.URLParam(r, "pipelineID"), domain.CreateJobRequest{
		Name:            body.Name,
		WorkerClass:     body.WorkerClass,
		Params:          paramsToDomain(body.Params),
		StartConditions: conditionsToDomain(body.HashStartConditions),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, jobToAPI(job))
}

// GetJob handles GET /api/pipelines/{pipelineID}/jobs/{jobID}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.pipelines.GetJob(r.Context(), chi.URLParam(r, "pipelineID"), chi.URLParam(r, "jobID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, jobToAPI(job))
}

// UpdateJob handles PUT /api/pipelines/{pipelineID}/jobs/{jobID}.
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var body updateJobBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	job, err := h.pipelines.UpdateJob(r.Context(), chi.URLParam(r, "pipelineID"), chi.URLParam(r, "jobID"), domain.UpdateJobRequest{
		Name:            body.Name,
		WorkerClass:     body.WorkerClass,
		Params:          paramsToDomain(body.Params),
		StartConditions: conditionsToDomain(body.HashStartConditions),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, jobToAPI(job))
}

// DeleteJob handles DELETE /api/pipelines/{pipelineID}/jobs/{jobID}.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := h.pipelines.DeleteJob(r.Context(), chi.URLParam(r, "pipelineID"), chi.URLParam(r, "jobID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
