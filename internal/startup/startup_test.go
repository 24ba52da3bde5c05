package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "hello")
	if got := getEnv("TEST_STR", "fallback"); got != "hello" {
		t.Errorf("getEnv = %q, want hello", got)
	}
	if got := getEnv("TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getEnv missing = %q, want fallback", got)
	}

	t.Setenv("TEST_BOOL", "true")
	if !getEnvBool("TEST_BOOL", false) {
		t.Error("getEnvBool(true) = false")
	}
	t.Setenv("TEST_BOOL", "garbage")
	if getEnvBool("TEST_BOOL", false) {
		t.Error("getEnvBool(garbage) did not fall back")
	}

	t.Setenv("TEST_INT", "42")
	if got := getEnvInt("TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt = %d, want 42", got)
	}
	t.Setenv("TEST_INT", "nope")
	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt(nope) = %d, want fallback 7", got)
	}

	t.Setenv("TEST_DUR", "45s")
	if got := getEnvDuration("TEST_DUR", time.Minute); got != 45*time.Second {
		t.Errorf("getEnvDuration = %s, want 45s", got)
	}
}

func TestLoadConfigRequiresCatalogURL(t *testing.T) {
	t.Setenv("CATALOG_URL", "")
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("CACHE_DIR", t.TempDir())

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig without CATALOG_URL should fail")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CATALOG_URL", "https://catalog.example.com/")
	t.Setenv("DATABASE_DIR", t.TempDir())
	t.Setenv("CACHE_DIR", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.CatalogURL != "https://catalog.example.com" {
		t.Errorf("CatalogURL = %q, want trailing slash trimmed", cfg.CatalogURL)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.PageSize != 15 {
		t.Errorf("PageSize = %d, want 15", cfg.PageSize)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %s, want 30s", cfg.CacheTTL)
	}
	if filepath.Base(cfg.DatabasePath) != "archive.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if !cfg.PreviewsEnabled {
		t.Error("previews should be enabled for a writable cache dir")
	}
	if cfg.TransformDir != filepath.Join(cfg.CacheDir, "transforms") {
		t.Errorf("TransformDir = %q, want derived from cache dir", cfg.TransformDir)
	}
}

func TestGetRoutes(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/galleries", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(http.ResponseWriter, *http.Request) {}).Methods(http.MethodGet)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(routes))
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/galleries/{id}/page", "api/galleries"},
		{"/api/presets", "api/presets"},
		{"/healthz", "healthz"},
		{"/", ""},
	}
	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLoadPresetsDefaults(t *testing.T) {
	presets, err := LoadPresets("")
	if err != nil {
		t.Fatalf("LoadPresets(\"\") failed: %v", err)
	}
	if len(presets) == 0 {
		t.Fatal("no built-in presets")
	}
	for _, p := range presets {
		if p.Name == "" || p.Prompt == "" {
			t.Errorf("built-in preset incomplete: %+v", p)
		}
	}
}

func TestLoadPresetsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	content := `presets:
  - name: exterior
    prompt: Classify the exterior shot.
    model: gpt-4o
  - name: interior
    prompt: Describe the interior view.
    model: gpt-4o-mini
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets failed: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("got %d presets, want 2", len(presets))
	}
	if presets[0].Name != "exterior" || presets[1].Model != "gpt-4o-mini" {
		t.Errorf("presets parsed wrong: %+v", presets)
	}
}

func TestLoadPresetsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte("presets:\n  - model: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPresets(path); err == nil {
		t.Error("preset without a name should be rejected")
	}

	if _, err := LoadPresets(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing presets file should be an error")
	}
}
