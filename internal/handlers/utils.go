package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"car-archive/internal/catalog"
	"car-archive/internal/gallery"
	"car-archive/internal/logging"
	"car-archive/internal/selection"
	"car-archive/internal/viewer"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged; there is no recovering from them in a
// handler.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONOK writes v with a 200 and JSON content type.
func writeJSONOK(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// decodeJSON reads a JSON request body into v, rejecting unknown
// fields so client typos surface as 400s instead of silent defaults.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSONError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// galleryErrorStatus maps domain errors onto HTTP status codes and
// client-facing messages.
func galleryErrorStatus(err error) (int, string) {
	var statusErr *catalog.StatusError

	switch {
	case errors.Is(err, gallery.ErrStale):
		return http.StatusConflict, "superseded by a newer page request"
	case errors.Is(err, gallery.ErrImageNotFound):
		return http.StatusNotFound, "image not in loaded page"
	case errors.Is(err, selection.ErrNotInEditMode),
		errors.Is(err, selection.ErrEmptySelection),
		errors.Is(err, selection.ErrTierUnspecified),
		errors.Is(err, viewer.ErrOutOfRange):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, selection.ErrDeleteInFlight):
		return http.StatusConflict, err.Error()
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, "catalog error: " + err.Error()
	default:
		logging.Error("request failed: %v", err)
		return http.StatusInternalServerError, "internal error"
	}
}

// writeGalleryError maps domain errors onto HTTP status codes.
func writeGalleryError(w http.ResponseWriter, err error) {
	status, msg := galleryErrorStatus(err)
	writeJSONError(w, msg, status)
}

// parseTier maps the wire tier names onto the delete tiers. An empty
// or unknown value maps to TierUnspecified, which every delete path
// rejects.
func parseTier(s string) selection.Tier {
	switch s {
	case "database-only":
		return selection.TierDatabaseOnly
	case "database-and-storage":
		return selection.TierDatabaseAndStorage
	default:
		return selection.TierUnspecified
	}
}
