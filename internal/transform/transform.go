package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"car-archive/internal/logging"
	"car-archive/internal/metrics"
)

// Tool names the native transform programs. Each takes an input path
// and produces an output path; the gallery never parses their output
// beyond checking the exit code and that the output file exists.
type Tool string

const (
	// ToolExtendCanvas extends an image's canvas to a desired height.
	ToolExtendCanvas Tool = "extend_canvas"
	// ToolCrop crops and optionally rescales an image.
	ToolCrop Tool = "image_cropper"
	// ToolMatte composes an image onto a colored matte canvas.
	ToolMatte Tool = "matte_generator"
)

var allTools = []Tool{ToolExtendCanvas, ToolCrop, ToolMatte}

var (
	// ErrToolUnavailable means the binary was not found at startup;
	// the operation is feature-disabled, not broken.
	ErrToolUnavailable = errors.New("transform: tool unavailable")
	// ErrNoOutput means the tool exited zero but produced no file.
	ErrNoOutput = errors.New("transform: tool produced no output file")
)

// CropSpec are the image_cropper parameters.
type CropSpec struct {
	X            int     `json:"x"`
	Y            int     `json:"y"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	OutputWidth  int     `json:"outputWidth,omitempty"`
	OutputHeight int     `json:"outputHeight,omitempty"`
	Scale        float64 `json:"scale,omitempty"`
}

// Runner invokes the native transform tools with bounded execution
// timeouts. Missing binaries degrade to per-tool disabled state.
type Runner struct {
	toolsDir  string
	timeout   time.Duration
	available map[Tool]bool
}

// New probes toolsDir for the known binaries. A missing binary is
// logged once and disables that tool for the life of the process.
func New(toolsDir string, timeout time.Duration) *Runner {
	r := &Runner{
		toolsDir:  toolsDir,
		timeout:   timeout,
		available: make(map[Tool]bool, len(allTools)),
	}

	for _, tool := range allTools {
		path := r.binPath(tool)
		info, err := os.Stat(path)
		ok := err == nil && !info.IsDir()
		r.available[tool] = ok
		if ok {
			logging.Info("transform: %s available at %s", tool, path)
		} else {
			logging.Warn("transform: %s not found at %s, operation disabled", tool, path)
		}
	}

	return r
}

func (r *Runner) binPath(tool Tool) string {
	return filepath.Join(r.toolsDir, string(tool))
}

// IsAvailable reports whether a tool's binary was found.
func (r *Runner) IsAvailable(tool Tool) bool {
	return r.available[tool]
}

// Available lists the tools that can run.
func (r *Runner) Available() []Tool {
	out := make([]Tool, 0, len(allTools))
	for _, tool := range allTools {
		if r.available[tool] {
			out = append(out, tool)
		}
	}
	return out
}

// ExtendCanvas runs extend_canvas. padPct <= 0 uses the tool's default
// padding; whiteThresh < 0 lets the tool auto-detect.
func (r *Runner) ExtendCanvas(ctx context.Context, in, out string, desiredHeight int, padPct float64, whiteThresh int) error {
	args := []string{in, out, strconv.Itoa(desiredHeight)}
	if padPct > 0 {
		args = append(args, strconv.FormatFloat(padPct, 'f', -1, 64))
	} else {
		args = append(args, "0.05")
	}
	args = append(args, strconv.Itoa(whiteThresh))

	return r.run(ctx, ToolExtendCanvas, out, args)
}

// Crop runs image_cropper.
func (r *Runner) Crop(ctx context.Context, in, out string, spec CropSpec) error {
	args := []string{
		"--input", in,
		"--output", out,
		"--crop-x", strconv.Itoa(spec.X),
		"--crop-y", strconv.Itoa(spec.Y),
		"--crop-width", strconv.Itoa(spec.Width),
		"--crop-height", strconv.Itoa(spec.Height),
	}
	if spec.OutputWidth > 0 {
		args = append(args, "--output-width", strconv.Itoa(spec.OutputWidth))
	}
	if spec.OutputHeight > 0 {
		args = append(args, "--output-height", strconv.Itoa(spec.OutputHeight))
	}
	if spec.Scale > 0 {
		args = append(args, "--scale", strconv.FormatFloat(spec.Scale, 'f', -1, 64))
	}

	return r.run(ctx, ToolCrop, out, args)
}

// Matte runs matte_generator. color is a hex string like "#1a1a1a";
// empty uses the tool's default.
func (r *Runner) Matte(ctx context.Context, in, out string, canvasWidth, canvasHeight int, padPct float64, color string) error {
	args := []string{
		"--input", in,
		"--output", out,
		"--width", strconv.Itoa(canvasWidth),
		"--height", strconv.Itoa(canvasHeight),
		"--padding", strconv.FormatFloat(padPct, 'f', -1, 64),
	}
	if color != "" {
		args = append(args, "--color", color)
	}

	return r.run(ctx, ToolMatte, out, args)
}

// run executes one tool with the bounded timeout and verifies the
// expected output file exists afterwards.
func (r *Runner) run(ctx context.Context, tool Tool, outPath string, args []string) error {
	if !r.available[tool] {
		return fmt.Errorf("%w: %s", ErrToolUnavailable, tool)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.binPath(tool), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)
	metrics.TransformDuration.WithLabelValues(string(tool)).Observe(duration.Seconds())

	if err != nil {
		metrics.TransformRunsTotal.WithLabelValues(string(tool), "error").Inc()
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("transform: %s timed out after %v", tool, r.timeout)
		}
		return fmt.Errorf("transform: %s failed: %w - %s", tool, err, stderr.String())
	}

	if _, statErr := os.Stat(outPath); statErr != nil {
		metrics.TransformRunsTotal.WithLabelValues(string(tool), "error").Inc()
		return fmt.Errorf("%w: %s expected %s", ErrNoOutput, tool, outPath)
	}

	metrics.TransformRunsTotal.WithLabelValues(string(tool), "success").Inc()
	logging.Debug("transform: %s finished in %v", tool, duration)
	return nil
}
