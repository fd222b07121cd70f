package api

import (
	"encoding/json"
	"net/http"
	"time"

	"pipeflow/internal/domain"
	"pipeflow/internal/taskqueue"
)

// TaskFinished handles POST /push/task-finished, the result callback posted
// by queue consumers. Results that are recognized but cannot change state
// (unknown job, duplicate delivery) still return 200 so the queue does not
// redeliver them forever; only transport-level failures return an error
// status.
func (h *Handler) TaskFinished(w http.ResponseWriter, r *http.Request) {
	var payload taskqueue.ResultPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.pipelines.ProcessResult(r.Context(), payload.ToDomain()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StartPipelines handles POST /push/start-pipeline, the inbound trigger used
// by external schedulers. pipeline_ids is either the string "scheduled",
// which scans run-on-schedule pipelines against the current tick, or a list
// of ids started directly. Per-pipeline failures are skipped, not fatal.
func (h *Handler) StartPipelines(w http.ResponseWriter, r *http.Request) {
	var body startPipelinesBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	var sentinel string
	if json.Unmarshal(body.PipelineIDs, &sentinel) == nil {
		if sentinel != "scheduled" {
			h.writeError(w, domain.ErrValidation("pipeline_ids must be a list of ids or the string \"scheduled\""))
			return
		}
		started, err := h.pipelines.StartScheduled(r.Context(), time.Now())
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]int{"started": started})
		return
	}

	var ids []string
	if err := json.Unmarshal(body.PipelineIDs, &ids); err != nil || len(ids) == 0 {
		h.writeError(w, domain.ErrValidation("pipeline_ids is required"))
		return
	}

	started := h.pipelines.StartPipelines(r.Context(), ids)
	h.writeJSON(w, http.StatusOK, map[string]int{"started": started})
}
