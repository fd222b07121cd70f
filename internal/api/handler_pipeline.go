package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pipeflow/internal/domain"
)

// ListPipelines handles GET /api/pipelines.
func (h *Handler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	filter := domain.PipelineFilter{
		NameContains: r.URL.Query().Get("q"),
		Page: domain.PageRequest{
			Page:         queryInt(r, "page", 1),
			ItemsPerPage: queryInt(r, "items_per_page", 10),
		},
	}

	pipelines, total, err := h.pipelines.ListPipelines(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	data := make([]Pipeline, len(pipelines))
	for i := range pipelines {
		data[i] = pipelineToAPI(&pipelines[i])
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"data":  data,
		"total": total,
	})
}

// CreatePipeline handles POST /api/pipelines.
func (h *Handler) CreatePipeline(w http.ResponseWriter, r *http.Request) {
	var body createPipelineBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	p, err := h.pipelines.CreatePipeline(r.Context(), domain.CreatePipelineRequest{
		Name:                   body.Name,
		EmailsForNotifications: body.EmailsForNotifications,
		RunOnSchedule:          body.RunOnSchedule,
		Schedules:              schedulesToDomain(body.Schedules),
		Params:                 paramsToDomain(body.Params),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, pipelineToAPI(p))
}

// GetPipeline handles GET /api/pipelines/{pipelineID}.
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	p, err := h.pipelines.GetPipeline(r.Context(), chi.URLParam(r, "pipelineID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pipelineToAPI(p))
}

// UpdatePipeline handles PUT /api/pipelines/{pipelineID}.
func (h *Handler) UpdatePipeline(w http.ResponseWriter, r *http.Request) {
	var body updatePipelineBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	p, err := h.pipelines.UpdatePipeline(r.Context(), chi.URLParam(r, "pipelineID"), domain.UpdatePipelineRequest{
		Name:                   body.Name,
		EmailsForNotifications: body.EmailsForNotifications,
		RunOnSchedule:          body.RunOnSchedule,
		Schedules:              schedulesToDomain(body.Schedules),
		Params:                 paramsToDomain(body.Params),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pipelineToAPI(p))
}

// SetRunOnSchedule handles PATCH /api/pipelines/{pipelineID}/run_on_schedule.
func (h *Handler) SetRunOnSchedule(w http.ResponseWriter, r *http.Request) {
	var body runOnScheduleBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	p, err := h.pipelines.SetRunOnSchedule(r.Context(), chi.URLParam(r, "pipelineID"), body.RunOnSchedule)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pipelineToAPI(p))
}

// DeletePipeline handles DELETE /api/pipelines/{pipelineID}.
func (h *Handler) DeletePipeline(w http.ResponseWriter, r *http.Request) {
	if err := h.pipelines.DeletePipeline(r.Context(), chi.URLParam(r, "pipelineID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartPipeline handles POST /api/pipelines/{pipelineID}/start.
func (h *Handler) StartPipeline(w http.ResponseWriter, r *http.Request) {
	p, err := h.pipelines.Start(r.Context(), chi.URLParam(r, "pipelineID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pipelineToAPI(p))
}

// StopPipeline handles POST /api/pipelines/{pipelineID}/stop.
func (h *Handler) StopPipeline(w http.ResponseWriter, r *http.Request) {
	p, err := h.pipelines.Stop(r.Context(), chi.URLParam(r, "pipelineID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, pipelineToAPI(p))
}
