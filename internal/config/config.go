// Package config loads the YAML configuration shared by the command line
// tools. Missing files and missing keys fall back to the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"agnor-examiner/internal/analysis"
	"agnor-examiner/internal/contour"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Size thresholds for nucleus contours
	Nucleus contour.SizeProfile `yaml:"nucleus"`

	// Size thresholds for AgNOR contours
	AgNOR contour.SizeProfile `yaml:"agnor"`

	Deformation struct {
		// MaxDiff is the largest convex hull defect ratio, in percent, of
		// an adequate nucleus
		MaxDiff float64 `yaml:"maxDiff"`
	} `yaml:"deformation"`

	Smoothing struct {
		Enabled bool `yaml:"enabled"`
		Points  int  `yaml:"points"`
	} `yaml:"smoothing"`

	Output struct {
		// Dir receives measurement tables, reconstructed masks and overlays
		Dir string `yaml:"dir"`

		// Overlay controls whether the diagnostic overlay is written
		Overlay bool `yaml:"overlay"`

		// RecordDiscarded also writes rows for deformed nuclei and their
		// AgNORs, to tables prefixed with "discarded_"
		RecordDiscarded bool `yaml:"recordDiscarded"`
	} `yaml:"output"`

	Classifier struct {
		// Model is the path of the AgNOR classifier artifact. Empty leaves
		// every AgNOR with the default type.
		Model string `yaml:"model"`
	} `yaml:"classifier"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns a configuration with default values
func Default() *Config {
	p := analysis.DefaultParams()

	cfg := &Config{
		Nucleus: p.Nucleus,
		AgNOR:   p.AgNOR,
	}
	cfg.Deformation.MaxDiff = p.MaxDefectRatio
	cfg.Smoothing.Enabled = false
	cfg.Smoothing.Points = p.SmoothingPoints
	cfg.Output.Dir = "."
	cfg.Output.Overlay = true
	cfg.Output.RecordDiscarded = false
	cfg.Log.Level = "info"
	return cfg
}

// Load reads configuration from a YAML file on top of the defaults.
// If the file doesn't exist, it returns the default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadExisting is Load for a path the user named explicitly: a missing
// file is an error rather than a silent fall back to the defaults.
func LoadExisting(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return Load(path)
}

// Save writes the configuration to a YAML file, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks that every threshold is usable.
func (c *Config) Validate() error {
	var errs []error
	for name, p := range map[string]contour.SizeProfile{"nucleus": c.Nucleus, "agnor": c.AgNOR} {
		if p.MaxPixelCount <= 0 {
			errs = append(errs, fmt.Errorf("%s.maxPixelCount must be positive, got %d", name, p.MaxPixelCount))
		}
		if p.MinRelativePercent < 0 {
			errs = append(errs, fmt.Errorf("%s.minRelativePercent must not be negative, got %v", name, p.MinRelativePercent))
		}
	}
	if c.Deformation.MaxDiff < 0 {
		errs = append(errs, fmt.Errorf("deformation.maxDiff must not be negative, got %v", c.Deformation.MaxDiff))
	}
	if c.Smoothing.Points < 3 {
		errs = append(errs, fmt.Errorf("smoothing.points must be at least 3, got %d", c.Smoothing.Points))
	}
	return errors.Join(errs...)
}

// AnalysisParams returns the thresholds Analyze runs with.
func (c *Config) AnalysisParams() analysis.Params {
	return analysis.Params{
		Nucleus:         c.Nucleus,
		AgNOR:           c.AgNOR,
		MaxDefectRatio:  c.Deformation.MaxDiff,
		SmoothingPoints: c.Smoothing.Points,
	}
}
