package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pipeflow/internal/domain"
)

// QueryLogs handles GET /api/pipelines/{pipelineID}/logs. Filters: job_id,
// worker_class, log_level, q (message substring), from/to (RFC3339), limit,
// and cursor for pagination.
func (h *Handler) QueryLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.LogFilter{
		JobID:       q.Get("job_id"),
		WorkerClass: q.Get("worker_class"),
		LogLevel:    q.Get("log_level"),
		Query:       q.Get("q"),
		Limit:       queryInt(r, "limit", 20),
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, domain.ErrValidation("malformed from timestamp: %s", v))
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeError(w, domain.ErrValidation("malformed to timestamp: %s", v))
			return
		}
		filter.To = &t
	}

	page, err := h.logs.Query(r.Context(), chi.URLParam(r, "pipelineID"), filter, q.Get("cursor"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	entries := make([]LogEntry, len(page.Entries))
	for i := range page.Entries {
		entries[i] = logEntryToAPI(&page.Entries[i])
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"entries":     entries,
		"next_cursor": page.NextCursor,
	})
}
