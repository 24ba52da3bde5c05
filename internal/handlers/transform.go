package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"car-archive/internal/logging"
	"car-archive/internal/media"
	"car-archive/internal/transform"

	"github.com/gorilla/mux"
)

type transformRequest struct {
	InputPath  string `json:"inputPath"`
	OutputPath string `json:"outputPath"`

	// extend_canvas
	DesiredHeight  int     `json:"desiredHeight,omitempty"`
	PaddingPct     float64 `json:"paddingPct,omitempty"`
	WhiteThreshold int     `json:"whiteThreshold,omitempty"`

	// image_cropper
	Crop *transform.CropSpec `json:"crop,omitempty"`

	// matte_generator
	CanvasWidth  int    `json:"canvasWidth,omitempty"`
	CanvasHeight int    `json:"canvasHeight,omitempty"`
	MatteColor   string `json:"matteColor,omitempty"`
}

// RunTransform executes a native image tool synchronously and records
// the run in the job log.
func (h *Handlers) RunTransform(w http.ResponseWriter, r *http.Request) {
	tool := transform.Tool(mux.Vars(r)["tool"])

	var req transformRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.InputPath == "" || req.OutputPath == "" {
		writeJSONError(w, "inputPath and outputPath are required", http.StatusBadRequest)
		return
	}
	// Validate the tool and its parameters before touching the job
	// log, so a rejected request never leaves a running row behind.
	var run func(ctx context.Context) error
	switch tool {
	case transform.ToolExtendCanvas:
		if req.DesiredHeight <= 0 {
			writeJSONError(w, "desiredHeight must be positive", http.StatusBadRequest)
			return
		}
		whiteThresh := req.WhiteThreshold
		if whiteThresh == 0 {
			whiteThresh = -1
		}
		run = func(ctx context.Context) error {
			return h.runner.ExtendCanvas(ctx, req.InputPath, req.OutputPath, req.DesiredHeight, req.PaddingPct, whiteThresh)
		}
	case transform.ToolCrop:
		if req.Crop == nil {
			writeJSONError(w, "crop spec is required", http.StatusBadRequest)
			return
		}
		run = func(ctx context.Context) error {
			return h.runner.Crop(ctx, req.InputPath, req.OutputPath, *req.Crop)
		}
	case transform.ToolMatte:
		if req.CanvasWidth <= 0 || req.CanvasHeight <= 0 {
			writeJSONError(w, "canvasWidth and canvasHeight must be positive", http.StatusBadRequest)
			return
		}
		run = func(ctx context.Context) error {
			return h.runner.Matte(ctx, req.InputPath, req.OutputPath, req.CanvasWidth, req.CanvasHeight, req.PaddingPct, req.MatteColor)
		}
	default:
		writeJSONError(w, "unknown tool", http.StatusNotFound)
		return
	}

	if !h.runner.IsAvailable(tool) {
		writeJSONError(w, "tool not available: "+string(tool), http.StatusServiceUnavailable)
		return
	}

	jobID, err := h.store.CreateTransformJob(string(tool), req.InputPath, req.OutputPath)
	if err != nil {
		logging.Error("failed to create transform job: %v", err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	err = run(r.Context())

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	if ferr := h.store.FinishTransformJob(jobID, errMsg); ferr != nil {
		logging.Error("failed to finish transform job %d: %v", jobID, ferr)
	}

	if err != nil {
		logging.Error("transform %s failed: %v", tool, err)
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSONOK(w, map[string]interface{}{
		"jobId":      jobID,
		"status":     "done",
		"outputPath": req.OutputPath,
	})
}

// GetTransformJob returns one entry from the transform job log.
func (h *Handlers) GetTransformJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["jobId"], 10, 64)
	if err != nil {
		writeJSONError(w, "invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.store.GetTransformJob(id)
	if err != nil {
		writeJSONError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSONOK(w, job)
}

// GetPreview serves a downscaled JPEG preview of a local image file,
// used to inspect transform tool output without shipping full-size
// bytes to the browser.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}

	data, err := h.previewGen.GetPreview(path)
	if err != nil {
		if errors.Is(err, media.ErrOutsideRoot) {
			writeJSONError(w, "path outside transform output root", http.StatusBadRequest)
			return
		}
		writeJSONError(w, "preview unavailable: "+err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		logging.Debug("preview write failed: %v", err)
	}
}
