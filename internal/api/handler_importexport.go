package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"pipeflow/internal/domain"
)

// ExportPipeline handles GET /api/pipelines/{pipelineID}/export. The
// document is JSON by default; ?format=yaml switches to YAML. Exported job
// ids are anonymized tokens, safe to share. The timestamped download name is
// exposed via the Filename header so browser clients can read it.
func (h *Handler) ExportPipeline(w http.ResponseWriter, r *http.Request) {
	doc, err := h.pipelines.Export(r.Context(), chi.URLParam(r, "pipelineID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	ext := ".json"
	if r.URL.Query().Get("format") == "yaml" {
		ext = ".yaml"
	}
	filename := strings.ToLower(doc.Name) + "-" + time.Now().Format("20060102150405") + ext
	w.Header().Set("Access-Control-Expose-Headers", "Filename")
	w.Header().Set("Filename", filename)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if ext == ".yaml" {
		raw, err := yaml.Marshal(doc)
		if err != nil {
			h.writeError(w, fmt.Errorf("marshal pipeline document: %w", err))
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
		return
	}

	h.writeJSON(w, http.StatusOK, doc)
}

// ImportPipeline handles POST /api/pipelines/import. The body is a pipeline
// document, JSON or YAML depending on Content-Type.
func (h *Handler) ImportPipeline(w http.ResponseWriter, r *http.Request) {
	var doc domain.PipelineDocument

	ct := r.Header.Get("Content-Type")
	if strings.Contains(ct, "yaml") {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			h.writeError(w, domain.ErrValidation("reading request body failed: %v", err))
			return
		}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			h.writeError(w, domain.ErrValidation("malformed pipeline document: %v", err))
			return
		}
	} else {
		if err := decodeJSON(r, &doc); err != nil {
			h.writeError(w, err)
			return
		}
	}

	p, err := h.pipelines.Import(r.Context(), &doc)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, pipelineToAPI(p))
}
