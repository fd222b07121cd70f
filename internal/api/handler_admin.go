package api

import (
	"net/http"
)

// ResetStatuses handles POST /api/admin/reset: force every job and pipeline
// back to idle and purge outstanding task records.
func (h *Handler) ResetStatuses(w http.ResponseWriter, r *http.Request) {
	var body resetBody
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			h.writeError(w, err)
			return
		}
	}

	if err := h.pipelines.ResetStatuses(r.Context(), body.BatchSize); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TasksInfo handles GET /api/admin/tasks: outstanding task counts and the
// age of the oldest record, for spotting stuck work.
func (h *Handler) TasksInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.pipelines.TasksInfo(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"oldest_task_time":    info.OldestTaskTime,
		"running_tasks_count": info.RunningTasksCount,
	})
}
