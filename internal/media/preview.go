package media

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"car-archive/internal/logging"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Preview dimensions and JPEG quality for transform-output previews.
const (
	previewWidth  = 480
	previewHeight = 480
	previewQual   = 80
)

// ErrOutsideRoot rejects preview requests for paths that resolve
// outside the configured source root.
var ErrOutsideRoot = errors.New("media: path outside preview source root")

// PreviewGenerator produces small JPEG previews of local image files
// (transform tool outputs live on disk, not behind the CDN). Previews
// are cached on disk keyed by the md5 of the source path. Source paths
// are confined to sourceRoot; the query string is caller-controlled
// and must never reach arbitrary host files.
type PreviewGenerator struct {
	cacheDir   string
	sourceRoot string
	enabled    bool
	mu         sync.Mutex
}

// NewPreviewGenerator creates a generator writing into cacheDir and
// serving only files under sourceRoot.
func NewPreviewGenerator(cacheDir, sourceRoot string, enabled bool) *PreviewGenerator {
	if enabled && sourceRoot == "" {
		logging.Warn("PreviewGenerator: no source root configured, previews disabled")
		enabled = false
	}
	if abs, err := filepath.Abs(sourceRoot); err == nil {
		sourceRoot = abs
	}
	if enabled {
		logging.Debug("PreviewGenerator: enabled, cache dir: %s, source root: %s", cacheDir, sourceRoot)
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			logging.Warn("PreviewGenerator: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("PreviewGenerator: disabled")
	}
	return &PreviewGenerator{
		cacheDir:   cacheDir,
		sourceRoot: sourceRoot,
		enabled:    enabled,
	}
}

// confine resolves filePath and verifies it stays under sourceRoot.
func (g *PreviewGenerator) confine(filePath string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return "", fmt.Errorf("resolve preview path: %w", err)
	}
	rel, err := filepath.Rel(g.sourceRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, filePath)
	}
	return abs, nil
}

// IsEnabled reports whether previews can be generated.
func (g *PreviewGenerator) IsEnabled() bool {
	return g.enabled
}

// GetPreview returns the JPEG preview for a local image file,
// generating and caching it on first request.
func (g *PreviewGenerator) GetPreview(filePath string) ([]byte, error) {
	if !g.enabled {
		return nil, fmt.Errorf("previews disabled")
	}

	filePath, err := g.confine(filePath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	hash := md5.Sum([]byte(filePath))
	cachePath := filepath.Join(g.cacheDir, fmt.Sprintf("%x.jpg", hash))

	if data, err := os.ReadFile(cachePath); err == nil {
		logging.Debug("Preview cache hit: %s", filePath)
		return data, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Another request may have generated it while we waited
	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	logging.Debug("Preview generating: %s", filePath)

	img, err := imaging.Open(filePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("preview decode failed: %w", err)
	}

	thumb := imaging.Fit(img, previewWidth, previewHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: previewQual}); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	if err := os.WriteFile(cachePath, buf.Bytes(), 0644); err != nil {
		logging.Warn("Failed to cache preview %s: %v", cachePath, err)
	}

	return buf.Bytes(), nil
}
