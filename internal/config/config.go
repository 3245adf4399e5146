// Package config provides unified configuration loading for lmpens.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/seki-lab/lmpens/internal/locate"
)

// Config contains all lmpens configuration settings.
type Config struct {
	// Generate contains settings for batch generation.
	Generate GenerateConfig `yaml:"generate"`

	// Analysis contains settings for result aggregation.
	Analysis AnalysisConfig `yaml:"analysis"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `yaml:"logging"`
}

// GenerateConfig configures batch generation defaults.
type GenerateConfig struct {
	// CopyPatterns are the static-artifact globs copied into each run
	// directory alongside the rewritten input.
	CopyPatterns []string `yaml:"copy_patterns"`

	// EntryName is the filename of the rewritten input inside each run
	// directory.
	EntryName string `yaml:"entry_name"`

	// SeedStride spaces per-run seed offsets under the loop-random-xy
	// style. Must cover the number of in-template draws per run.
	SeedStride int64 `yaml:"seed_stride"`
}

// AnalysisConfig configures depth aggregation defaults.
type AnalysisConfig struct {
	// SurfaceZ is the nominal surface plane in Å. There is no default:
	// depth is undefined without it, so it must come from here or a flag.
	SurfaceZ *float64 `yaml:"surface_z,omitempty"`

	// BinWidth is the histogram bin width in Å.
	BinWidth float64 `yaml:"bin_width"`

	// MaxDepth is the default upper clip in Å (the substrate thickness).
	MaxDepth float64 `yaml:"max_depth"`

	// ResultNames are the filenames probed when a pattern names a
	// directory.
	ResultNames []string `yaml:"result_names"`
}

// LoggingConfig configures lmpens's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables batch event logging to <out>/events.jsonl.
	Level string `yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Generate: GenerateConfig{
			CopyPatterns: []string{"*.data", "*.zbl", "*.tersoff*"},
			EntryName:    "in.lmp",
			SeedStride:   10,
		},
		Analysis: AnalysisConfig{
			BinWidth:    5.0,
			MaxDepth:    250.0,
			ResultNames: append([]string(nil), locate.DefaultResultNames...),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from path (or lmpens.yaml in the working
// directory when path is empty) and environment variables.
// Order: defaults -> file -> environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("lmpens.yaml"); err == nil {
			path = "lmpens.yaml"
		}
	}
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Analysis.BinWidth <= 0 {
		return fmt.Errorf("bin_width must be positive, got %g", c.Analysis.BinWidth)
	}
	if c.Analysis.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %g", c.Analysis.MaxDepth)
	}
	if c.Generate.SeedStride < 1 {
		return fmt.Errorf("seed_stride must be >= 1, got %d", c.Generate.SeedStride)
	}
	if c.Generate.EntryName == "" {
		return fmt.Errorf("entry_name must not be empty")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LMPENS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LMPENS_SURFACE_Z"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.SurfaceZ = &f
		}
	}
	if v := os.Getenv("LMPENS_BIN_WIDTH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.BinWidth = f
		}
	}
	if v := os.Getenv("LMPENS_MAX_DEPTH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.MaxDepth = f
		}
	}
	if v := os.Getenv("LMPENS_SEED_STRIDE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Generate.SeedStride = n
		}
	}
}
