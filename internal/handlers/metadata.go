package handlers

import (
	"net/http"

	"car-archive/internal/catalog"
	"car-archive/internal/metaview"

	"github.com/gorilla/mux"
)

// GetMetadata returns the metadata panel fields for one image:
// known keys first in display order, extras after, flags last.
func (h *Handlers) GetMetadata(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	imageID := mux.Vars(r)["imageId"]
	if err := g.Focus(imageID); err != nil {
		writeGalleryError(w, err)
		return
	}
	rec, ok := g.CurrentImage()
	if !ok {
		writeJSONError(w, "image not in loaded page", http.StatusNotFound)
		return
	}

	writeJSONOK(w, map[string]interface{}{
		"imageId":  rec.ID,
		"filename": rec.Filename,
		"fields":   metaview.Fields(rec.Metadata),
	})
}

// UpdateMetadata rewrites an image's metadata through the catalog and
// returns the refreshed page view.
func (h *Handlers) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	var md catalog.Metadata
	if !decodeJSON(w, r, &md) {
		return
	}

	view, err := g.UpdateMetadata(r.Context(), mux.Vars(r)["imageId"], md)
	if err != nil {
		writeGalleryError(w, err)
		return
	}
	writeJSONOK(w, view)
}

// Reanalyze queues an analysis pass for one image. The request either
// names a configured preset or supplies an explicit prompt and model.
func (h *Handlers) Reanalyze(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	var req struct {
		Preset string `json:"preset,omitempty"`
		Prompt string `json:"prompt,omitempty"`
		Model  string `json:"model,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	prompt, model := req.Prompt, req.Model
	if req.Preset != "" {
		found := false
		for _, p := range h.presets {
			if p.Name == req.Preset {
				prompt, model = p.Prompt, p.Model
				found = true
				break
			}
		}
		if !found {
			writeJSONError(w, "unknown preset", http.StatusBadRequest)
			return
		}
	}
	if prompt == "" {
		writeJSONError(w, "prompt or preset is required", http.StatusBadRequest)
		return
	}

	if err := g.Reanalyze(r.Context(), mux.Vars(r)["imageId"], prompt, model); err != nil {
		writeGalleryError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "queued"})
}

// GetPresets lists the configured analysis presets.
func (h *Handlers) GetPresets(w http.ResponseWriter, _ *http.Request) {
	writeJSONOK(w, map[string]interface{}{"presets": h.presets})
}
