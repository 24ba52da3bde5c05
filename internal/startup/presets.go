package startup

import (
	"fmt"
	"os"

	"car-archive/internal/logging"

	"gopkg.in/yaml.v3"
)

// AnalysisPreset is a named prompt/model pair for image reanalysis.
type AnalysisPreset struct {
	Name   string `yaml:"name" json:"name"`
	Prompt string `yaml:"prompt" json:"prompt"`
	Model  string `yaml:"model" json:"model"`
}

type presetsFile struct {
	Presets []AnalysisPreset `yaml:"presets"`
}

// defaultPresets cover the common reanalysis passes when no presets
// file is configured.
func defaultPresets() []AnalysisPreset {
	return []AnalysisPreset{
		{
			Name:   "full",
			Prompt: "Describe the vehicle's angle, view, movement, time of day and visible side.",
			Model:  "gpt-4o",
		},
		{
			Name:   "angles-only",
			Prompt: "Classify only the shooting angle and which side of the vehicle is visible.",
			Model:  "gpt-4o-mini",
		},
	}
}

// LoadPresets reads analysis presets from a YAML file. An empty path
// yields the built-in defaults; a broken file is an error rather than
// a silent fallback.
func LoadPresets(path string) ([]AnalysisPreset, error) {
	if path == "" {
		logging.Info("  No PRESETS_FILE configured, using %d built-in presets", len(defaultPresets()))
		return defaultPresets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}

	var f presetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse presets file: %w", err)
	}

	for i, p := range f.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d has no name", i)
		}
		if p.Prompt == "" {
			return nil, fmt.Errorf("preset %q has no prompt", p.Name)
		}
	}

	logging.Info("  Loaded %d analysis presets from %s", len(f.Presets), path)
	return f.Presets, nil
}
