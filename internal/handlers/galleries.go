package handlers

import (
	"net/http"
	"strconv"

	"car-archive/internal/catalog"
	"car-archive/internal/grid"
	"car-archive/internal/logging"
	"car-archive/internal/viewer"

	"github.com/gorilla/mux"
)

// CreateGallery mounts a gallery for a car and loads its first page.
func (h *Handlers) CreateGallery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CarID string `json:"carId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CarID == "" {
		writeJSONError(w, "carId is required", http.StatusBadRequest)
		return
	}

	g := h.registry.Mount(req.CarID)
	view, err := g.LoadPage(r.Context(), 0, catalog.Query{})
	if err != nil {
		h.registry.Unmount(g.ID())
		writeGalleryError(w, err)
		return
	}

	logging.Info("mounted gallery %s for car %s", g.ID(), req.CarID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]interface{}{
		"galleryId": g.ID(),
		"view":      view,
	})
}

// CloseGallery unmounts a gallery and discards its session state.
func (h *Handlers) CloseGallery(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.registry.Unmount(id) {
		writeJSONError(w, "gallery not found", http.StatusNotFound)
		return
	}
	writeJSONOK(w, map[string]string{"status": "closed"})
}

// queryFromRequest builds a catalog query from the request's URL
// parameters.
func queryFromRequest(r *http.Request) catalog.Query {
	q := catalog.Query{
		Angle:     r.URL.Query().Get("angle"),
		View:      r.URL.Query().Get("view"),
		Movement:  r.URL.Query().Get("movement"),
		TimeOfDay: r.URL.Query().Get("tod"),
		Side:      r.URL.Query().Get("side"),
		Search:    r.URL.Query().Get("search"),
		SortField: r.URL.Query().Get("sort"),
	}
	if order := r.URL.Query().Get("order"); order == "desc" {
		q.SortDir = catalog.SortDesc
	} else if order == "asc" {
		q.SortDir = catalog.SortAsc
	}
	return q
}

// GetPage loads a page of the gallery. Filters and sorting come from
// the URL parameters; the page number is zero-based.
func (h *Handlers) GetPage(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			writeJSONError(w, "invalid page", http.StatusBadRequest)
			return
		}
		page = n
	}

	view, err := g.LoadPage(r.Context(), page, queryFromRequest(r))
	if err != nil {
		writeGalleryError(w, err)
		return
	}
	writeJSONOK(w, view)
}

// Scroll reports a viewport sample and returns the mount plan for it.
func (h *Handlers) Scroll(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	var req struct {
		ScrollTop int `json:"scrollTop"`
		Height    int `json:"height"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Height <= 0 {
		writeJSONError(w, "height must be positive", http.StatusBadRequest)
		return
	}

	plan := g.Scroll(grid.Viewport{ScrollTop: req.ScrollTop, Height: req.Height})
	writeJSONOK(w, plan)
}

// Focus marks an image as the current one and warms its neighbors.
func (h *Handlers) Focus(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	var req struct {
		ImageID string `json:"imageId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := g.Focus(req.ImageID); err != nil {
		writeGalleryError(w, err)
		return
	}
	writeJSONOK(w, map[string]string{"currentId": req.ImageID})
}

// Selection drives the edit-mode selection state machine.
func (h *Handlers) Selection(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	var req struct {
		Action  string `json:"action"`
		ImageID string `json:"imageId,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var err error
	switch req.Action {
	case "enter-edit":
		g.EnterEdit()
	case "exit-edit":
		g.ExitEdit()
	case "toggle":
		err = g.ToggleSelect(req.ImageID)
	case "all":
		err = g.SelectAll()
	case "none":
		g.SelectNone()
	default:
		writeJSONError(w, "unknown selection action", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeGalleryError(w, err)
		return
	}

	writeJSONOK(w, map[string]interface{}{
		"editMode": g.EditMode(),
		"selected": g.Selected(),
	})
}

// Delete removes images at an explicitly chosen tier. With imageId set
// it deletes that one image; otherwise it deletes the edit-mode
// selection.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	var req struct {
		Tier    string `json:"tier"`
		ImageID string `json:"imageId,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	tier := parseTier(req.Tier)

	var (
		res  *catalog.DeleteResult
		view interface{}
		err  error
	)
	if req.ImageID != "" {
		res, view, err = g.DeleteSingle(r.Context(), req.ImageID, tier)
	} else {
		res, view, err = g.DeleteSelected(r.Context(), tier)
	}
	if err != nil {
		// The delete itself may have succeeded even when the follow-up
		// page refetch did not; report what was removed alongside the
		// error so the caller never re-deletes or assumes a full failure.
		if res != nil {
			status, msg := galleryErrorStatus(err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			writeJSON(w, map[string]interface{}{
				"error":   msg,
				"deleted": res.Deleted,
				"failed":  res.Failed,
			})
			return
		}
		writeGalleryError(w, err)
		return
	}

	writeJSONOK(w, map[string]interface{}{
		"deleted": res.Deleted,
		"failed":  res.Failed,
		"view":    view,
	})
}

// SetPrimary marks an image as the car's primary shot.
func (h *Handlers) SetPrimary(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	view, err := g.SetPrimary(r.Context(), mux.Vars(r)["imageId"])
	if err != nil {
		writeGalleryError(w, err)
		return
	}
	writeJSONOK(w, view)
}

// Viewer drives the full-size viewer: open, close, navigation, and
// the keyboard contract.
func (h *Handlers) Viewer(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	var req struct {
		Action  string `json:"action"`
		ImageID string `json:"imageId,omitempty"`
		Key     string `json:"key,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var act viewer.Action
	switch req.Action {
	case "open":
		var err error
		act, err = g.OpenViewer(req.ImageID)
		if err != nil {
			writeGalleryError(w, err)
			return
		}
	case "close":
		g.CloseViewer()
		act = viewer.Action{Kind: viewer.ActionClosed}
	case "next":
		act = g.ViewerNext()
	case "prev":
		act = g.ViewerPrev()
	case "key":
		act = g.ViewerKey(viewer.Key(req.Key))
	default:
		writeJSONError(w, "unknown viewer action", http.StatusBadRequest)
		return
	}

	writeJSONOK(w, act)
}

// WarmHistory returns the persisted warm keys for a gallery instance.
func (h *Handlers) WarmHistory(w http.ResponseWriter, r *http.Request) {
	g, ok := h.gallery(w, r)
	if !ok {
		return
	}

	keys, err := h.store.WarmHistory(g.ID())
	if err != nil {
		writeGalleryError(w, err)
		return
	}
	writeJSONOK(w, map[string]interface{}{"keys": keys})
}
