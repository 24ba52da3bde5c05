package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"car-archive/internal/catalog"
	"car-archive/internal/gallery"
	"car-archive/internal/startup"
	"car-archive/internal/store"
	"car-archive/internal/transform"
)

// fakeCatalog pages an in-memory image list.
type fakeCatalog struct {
	mu       sync.Mutex
	images   []catalog.ImageRecord
	fetchErr error
}

func newFakeCatalog(count int) *fakeCatalog {
	f := &fakeCatalog{}
	for i := 0; i < count; i++ {
		f.images = append(f.images, catalog.ImageRecord{
			ID:       fmt.Sprintf("img-%03d", i),
			URL:      fmt.Sprintf("https://imagedelivery.net/acct/img-%03d/public", i),
			Filename: fmt.Sprintf("shot-%03d.jpg", i),
			Metadata: catalog.Metadata{Angle: "front", View: "exterior"},
		})
	}
	return f
}

// failFetches makes every subsequent page fetch return err.
func (f *fakeCatalog) failFetches(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

func (f *fakeCatalog) FetchPage(ctx context.Context, carID string, q catalog.Query) (*catalog.PageResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	all := f.images
	if q.PageSize == 0 {
		out := make([]catalog.ImageRecord, len(all))
		copy(out, all)
		return &catalog.PageResult{Images: out}, nil
	}
	start := q.Page * q.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + q.PageSize
	if end > len(all) {
		end = len(all)
	}
	out := make([]catalog.ImageRecord, end-start)
	copy(out, all[start:end])

	res := &catalog.PageResult{Images: out}
	if q.IncludeCount {
		totalPages := (len(all) + q.PageSize - 1) / q.PageSize
		res.Pagination = &catalog.Pagination{
			TotalImages:  len(all),
			TotalPages:   totalPages,
			CurrentPage:  q.Page + 1,
			ItemsPerPage: q.PageSize,
		}
	}
	return res, nil
}

func (f *fakeCatalog) DeleteImages(ctx context.Context, carID string, ids []string, fromStorage bool) (*catalog.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	kept := f.images[:0]
	for _, rec := range f.images {
		if _, ok := gone[rec.ID]; !ok {
			kept = append(kept, rec)
		}
	}
	f.images = kept
	return &catalog.DeleteResult{Deleted: ids}, nil
}

func (f *fakeCatalog) SetPrimary(ctx context.Context, carID, imageID string) error { return nil }
func (f *fakeCatalog) UpdateMetadata(ctx context.Context, carID, imageID string, md catalog.Metadata) error {
	return nil
}
func (f *fakeCatalog) Reanalyze(ctx context.Context, carID, imageID, prompt, model string) error {
	return nil
}

type nopWarmer struct{}

func (nopWarmer) Warm(ctx context.Context, url string) error { return nil }

type inlineScheduler struct{}

func (inlineScheduler) Schedule(work func(), timeout time.Duration) { work() }

func newTestHandlers(t *testing.T, imageCount int) (*Handlers, *Registry) {
	t.Helper()
	return newTestHandlersWithCatalog(t, newFakeCatalog(imageCount), t.TempDir())
}

func newTestHandlersWithCatalog(t *testing.T, cat *fakeCatalog, toolsDir string) (*Handlers, *Registry) {
	t.Helper()

	st, err := store.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	opts := gallery.DefaultOptions()
	opts.Warmer = nopWarmer{}
	opts.Scheduler = inlineScheduler{}
	opts.Preload.ScrollDebounce = time.Millisecond
	opts.Preload.SettleDelay = time.Millisecond
	opts.Recorder = st

	reg := NewRegistry(cat, opts, 0)
	t.Cleanup(reg.Close)

	presets, err := startup.LoadPresets("")
	if err != nil {
		t.Fatal(err)
	}

	cfg := &startup.Config{
		PreviewDir:      filepath.Join(t.TempDir(), "previews"),
		TransformDir:    t.TempDir(),
		PreviewsEnabled: true,
	}
	runner := transform.New(toolsDir, time.Minute)

	return New(reg, st, runner, presets, cfg), reg
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func mountGallery(t *testing.T, router http.Handler) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/galleries", map[string]string{"carId": "car-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create gallery: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		GalleryID string `json:"galleryId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.GalleryID == "" {
		t.Fatal("empty galleryId")
	}
	return resp.GalleryID
}

func TestCreateAndCloseGallery(t *testing.T) {
	h, reg := newTestHandlers(t, 40)
	router := h.Router()

	id := mountGallery(t, router)
	if reg.Count() != 1 {
		t.Errorf("registry count = %d, want 1", reg.Count())
	}

	rec := doJSON(t, router, http.MethodDelete, "/api/galleries/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close gallery: status %d", rec.Code)
	}
	if reg.Count() != 0 {
		t.Errorf("registry count after close = %d, want 0", reg.Count())
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/galleries/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double close: status %d, want 404", rec.Code)
	}
}

func TestCreateGalleryRequiresCarID(t *testing.T) {
	h, _ := newTestHandlers(t, 5)
	rec := doJSON(t, h.Router(), http.MethodPost, "/api/galleries", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetPage(t *testing.T) {
	h, _ := newTestHandlers(t, 40)
	router := h.Router()
	id := mountGallery(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/galleries/"+id+"/page?page=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	var view gallery.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Images) != 15 {
		t.Errorf("page 1 has %d images, want 15", len(view.Images))
	}
	if view.Images[0].ID != "img-015" {
		t.Errorf("page 1 starts at %s, want img-015", view.Images[0].ID)
	}
	if view.Display.CurrentPage != 2 {
		t.Errorf("CurrentPage = %d, want 2", view.Display.CurrentPage)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/galleries/"+id+"/page?page=-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative page: status %d, want 400", rec.Code)
	}
}

func TestScroll(t *testing.T) {
	h, _ := newTestHandlers(t, 40)
	router := h.Router()
	id := mountGallery(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/galleries/"+id+"/scroll",
		map[string]int{"scrollTop": 400, "height": 400})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	var plan struct {
		Virtualized bool `json:"virtualized"`
		TotalHeight int  `json:"totalHeight"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatal(err)
	}
	if plan.TotalHeight != 1100 {
		t.Errorf("TotalHeight = %d, want 1100 (5 rows of 220)", plan.TotalHeight)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/galleries/"+id+"/scroll",
		map[string]int{"scrollTop": 0, "height": 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero height: status %d, want 400", rec.Code)
	}
}

func TestSelectionLifecycle(t *testing.T) {
	h, _ := newTestHandlers(t, 20)
	router := h.Router()
	id := mountGallery(t, router)
	base := "/api/galleries/" + id + "/selection"

	// Toggling outside edit mode is rejected.
	rec := doJSON(t, router, http.MethodPost, base, map[string]string{"action": "toggle", "imageId": "img-001"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("toggle in view mode: status %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, base, map[string]string{"action": "enter-edit"})
	if rec.Code != http.StatusOK {
		t.Fatalf("enter-edit failed: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, base, map[string]string{"action": "toggle", "imageId": "img-001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle failed: %d %s", rec.Code, rec.Body.String())
	}
	var state struct {
		EditMode bool     `json:"editMode"`
		Selected []string `json:"selected"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if !state.EditMode || len(state.Selected) != 1 || state.Selected[0] != "img-001" {
		t.Errorf("state after toggle = %+v", state)
	}

	rec = doJSON(t, router, http.MethodPost, base, map[string]string{"action": "all"})
	json.Unmarshal(rec.Body.Bytes(), &state)
	if len(state.Selected) != 15 {
		t.Errorf("select all selected %d, want 15 (loaded page)", len(state.Selected))
	}

	// Exiting edit mode clears the selection.
	rec = doJSON(t, router, http.MethodPost, base, map[string]string{"action": "exit-edit"})
	json.Unmarshal(rec.Body.Bytes(), &state)
	if state.EditMode || len(state.Selected) != 0 {
		t.Errorf("state after exit-edit = %+v", state)
	}
}

func TestDeleteRequiresExplicitTier(t *testing.T) {
	h, _ := newTestHandlers(t, 20)
	router := h.Router()
	id := mountGallery(t, router)

	doJSON(t, router, http.MethodPost, "/api/galleries/"+id+"/selection", map[string]string{"action": "enter-edit"})
	doJSON(t, router, http.MethodPost, "/api/galleries/"+id+"/selection", map[string]string{"action": "toggle", "imageId": "img-001"})

	rec := doJSON(t, router, http.MethodPost, "/api/galleries/"+id+"/delete", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("delete without tier: status %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/galleries/"+id+"/delete",
		map[string]string{"tier": "database-only"})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Deleted []string `json:"deleted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Deleted) != 1 || resp.Deleted[0] != "img-001" {
		t.Errorf("deleted = %v, want [img-001]", resp.Deleted)
	}
}

func TestViewerActions(t *testing.T) {
	h, _ := newTestHandlers(t, 20)
	router := h.Router()
	id := mountGallery(t, router)
	base := "/api/galleries/" + id + "/viewer"

	rec := doJSON(t, router, http.MethodPost, base, map[string]string{"action": "open", "imageId": "img-000"})
	if rec.Code != http.StatusOK {
		t.Fatalf("open: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, base, map[string]string{"action": "next"})
	var act struct {
		Kind  string `json:"kind"`
		Index int    `json:"index"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &act); err != nil {
		t.Fatal(err)
	}
	if act.Kind != "moved" || act.Index != 1 {
		t.Errorf("next = %+v, want moved to 1", act)
	}

	rec = doJSON(t, router, http.MethodPost, base, map[string]string{"action": "key", "key": "Escape"})
	json.Unmarshal(rec.Body.Bytes(), &act)
	if act.Kind != "closed" {
		t.Errorf("escape = %+v, want closed", act)
	}

	rec = doJSON(t, router, http.MethodPost, base, map[string]string{"action": "teleport"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown action: status %d, want 400", rec.Code)
	}
}

func TestGetMetadataPanel(t *testing.T) {
	h, _ := newTestHandlers(t, 5)
	router := h.Router()
	id := mountGallery(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/galleries/"+id+"/images/img-002/metadata", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ImageID  string `json:"imageId"`
		Filename string `json:"filename"`
		Fields   []struct {
			Key   string `json:"key"`
			Label string `json:"label"`
			Value string `json:"value"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ImageID != "img-002" || resp.Filename != "shot-002.jpg" {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Fields) == 0 || resp.Fields[0].Key != "angle" {
		t.Errorf("fields = %+v, want angle first", resp.Fields)
	}
}

func TestReanalyzeWithPreset(t *testing.T) {
	h, _ := newTestHandlers(t, 5)
	router := h.Router()
	id := mountGallery(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/galleries/"+id+"/images/img-001/reanalyze",
		map[string]string{"preset": "full"})
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202; body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/galleries/"+id+"/images/img-001/reanalyze",
		map[string]string{"preset": "nonexistent"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown preset: status %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/galleries/"+id+"/images/img-001/reanalyze",
		map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no prompt or preset: status %d, want 400", rec.Code)
	}
}

func TestGetPresets(t *testing.T) {
	h, _ := newTestHandlers(t, 0)
	rec := doJSON(t, h.Router(), http.MethodGet, "/api/presets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Presets []startup.AnalysisPreset `json:"presets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Presets) == 0 {
		t.Error("no presets returned")
	}
}

func TestTransformUnavailableTool(t *testing.T) {
	h, _ := newTestHandlers(t, 0)
	rec := doJSON(t, h.Router(), http.MethodPost, "/api/transform/extend_canvas",
		map[string]interface{}{"inputPath": "/tmp/in.jpg", "outputPath": "/tmp/out.jpg", "desiredHeight": 1200})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 (binary not present)", rec.Code)
	}
}

// fakeToolsDir lays down stand-in tool binaries so availability checks
// pass without running anything.
func fakeToolsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"extend_canvas", "image_cropper", "matte_generator"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestTransformRejectedParamsLeaveNoJobRow(t *testing.T) {
	h, _ := newTestHandlersWithCatalog(t, newFakeCatalog(0), fakeToolsDir(t))
	router := h.Router()

	cases := []struct {
		tool string
		body map[string]interface{}
	}{
		{"extend_canvas", map[string]interface{}{"inputPath": "/in.jpg", "outputPath": "/out.jpg"}},
		{"image_cropper", map[string]interface{}{"inputPath": "/in.jpg", "outputPath": "/out.jpg"}},
		{"matte_generator", map[string]interface{}{"inputPath": "/in.jpg", "outputPath": "/out.jpg", "canvasWidth": 400}},
	}
	for _, tc := range cases {
		rec := doJSON(t, router, http.MethodPost, "/api/transform/"+tc.tool, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s with missing params: status %d, want 400", tc.tool, rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodPost, "/api/transform/nonexistent",
		map[string]interface{}{"inputPath": "/in.jpg", "outputPath": "/out.jpg"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown tool: status %d, want 404", rec.Code)
	}

	stats, err := h.store.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TransformJobs != 0 {
		t.Errorf("job log has %d rows after rejected requests, want 0", stats.TransformJobs)
	}
}

func TestGetPreviewRejectsPathOutsideRoot(t *testing.T) {
	h, _ := newTestHandlers(t, 0)
	router := h.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/preview?path=/etc/hosts", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("absolute outside path: status %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/preview?path="+url.QueryEscape("../../etc/hosts"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("traversal path: status %d, want 400", rec.Code)
	}
}

func TestDeleteReportsOutcomeWhenRefetchFails(t *testing.T) {
	cat := newFakeCatalog(10)
	h, _ := newTestHandlersWithCatalog(t, cat, t.TempDir())
	router := h.Router()
	id := mountGallery(t, router)

	// The delete reaches the catalog; the follow-up page refetch does not.
	cat.failFetches(&catalog.StatusError{Op: "fetch_page", Status: http.StatusServiceUnavailable})

	rec := doJSON(t, router, http.MethodPost, "/api/galleries/"+id+"/delete",
		map[string]string{"tier": "database-only", "imageId": "img-003"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502; body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error   string   `json:"error"`
		Deleted []string `json:"deleted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" {
		t.Error("error message missing from refetch-failure response")
	}
	if len(resp.Deleted) != 1 || resp.Deleted[0] != "img-003" {
		t.Errorf("deleted = %v, want [img-003] despite refetch failure", resp.Deleted)
	}
}

func TestHealthAndVersion(t *testing.T) {
	h, _ := newTestHandlers(t, 0)
	router := h.Router()

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	var health HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != statusHealthy || !health.Ready {
		t.Errorf("health = %+v", health)
	}

	rec = doJSON(t, router, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/version", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("version status = %d", rec.Code)
	}
}

func TestUnknownGallery(t *testing.T) {
	h, _ := newTestHandlers(t, 0)
	rec := doJSON(t, h.Router(), http.MethodGet, "/api/galleries/nope/page", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
