package handlers

import (
	"net/http"

	"car-archive/internal/gallery"
	"car-archive/internal/media"
	"car-archive/internal/startup"
	"car-archive/internal/store"
	"car-archive/internal/transform"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers carries the shared dependencies of every endpoint.
type Handlers struct {
	registry   *Registry
	store      *store.Store
	runner     *transform.Runner
	previewGen *media.PreviewGenerator
	presets    []startup.AnalysisPreset
	config     *startup.Config
}

func New(reg *Registry, st *store.Store, runner *transform.Runner, presets []startup.AnalysisPreset, config *startup.Config) *Handlers {
	return &Handlers{
		registry:   reg,
		store:      st,
		runner:     runner,
		previewGen: media.NewPreviewGenerator(config.PreviewDir, config.TransformDir, config.PreviewsEnabled),
		presets:    presets,
		config:     config,
	}
}

// Router builds the API route table.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/galleries", h.CreateGallery).Methods(http.MethodPost)
	api.HandleFunc("/galleries/{id}", h.CloseGallery).Methods(http.MethodDelete)

	g := api.PathPrefix("/galleries/{id}").Subrouter()
	g.HandleFunc("/page", h.GetPage).Methods(http.MethodGet)
	g.HandleFunc("/scroll", h.Scroll).Methods(http.MethodPost)
	g.HandleFunc("/focus", h.Focus).Methods(http.MethodPost)
	g.HandleFunc("/selection", h.Selection).Methods(http.MethodPost)
	g.HandleFunc("/delete", h.Delete).Methods(http.MethodPost)
	g.HandleFunc("/viewer", h.Viewer).Methods(http.MethodPost)
	g.HandleFunc("/warm-history", h.WarmHistory).Methods(http.MethodGet)
	g.HandleFunc("/images/{imageId}/primary", h.SetPrimary).Methods(http.MethodPost)
	g.HandleFunc("/images/{imageId}/metadata", h.GetMetadata).Methods(http.MethodGet)
	g.HandleFunc("/images/{imageId}/metadata", h.UpdateMetadata).Methods(http.MethodPatch)
	g.HandleFunc("/images/{imageId}/reanalyze", h.Reanalyze).Methods(http.MethodPost)

	api.HandleFunc("/presets", h.GetPresets).Methods(http.MethodGet)
	api.HandleFunc("/transform/{tool}", h.RunTransform).Methods(http.MethodPost)
	api.HandleFunc("/transform/jobs/{jobId}", h.GetTransformJob).Methods(http.MethodGet)
	api.HandleFunc("/preview", h.GetPreview).Methods(http.MethodGet)

	return r
}

// MetricsHandler returns the Prometheus metrics handler
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// gallery looks up the gallery for a request's {id} path variable.
func (h *Handlers) gallery(w http.ResponseWriter, r *http.Request) (*gallery.Gallery, bool) {
	id := mux.Vars(r)["id"]
	g, ok := h.registry.Get(id)
	if !ok {
		writeJSONError(w, "gallery not found", http.StatusNotFound)
		return nil, false
	}
	return g, true
}
