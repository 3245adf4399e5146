package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lmpens.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Generate.EntryName != "in.lmp" {
		t.Errorf("EntryName = %q, want in.lmp", cfg.Generate.EntryName)
	}
	if cfg.Generate.SeedStride != 10 {
		t.Errorf("SeedStride = %d, want 10", cfg.Generate.SeedStride)
	}
	if cfg.Analysis.SurfaceZ != nil {
		t.Errorf("SurfaceZ = %v, want nil (no silent default)", *cfg.Analysis.SurfaceZ)
	}
	if cfg.Analysis.BinWidth != 5.0 || cfg.Analysis.MaxDepth != 250.0 {
		t.Errorf("Analysis = %+v, want bin_width 5 max_depth 250", cfg.Analysis)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
generate:
  entry_name: in.custom
  seed_stride: 25
analysis:
  surface_z: 125.0
  bin_width: 2.5
logging:
  level: debug
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Generate.EntryName != "in.custom" {
		t.Errorf("EntryName = %q, want in.custom", cfg.Generate.EntryName)
	}
	if cfg.Generate.SeedStride != 25 {
		t.Errorf("SeedStride = %d, want 25", cfg.Generate.SeedStride)
	}
	if cfg.Analysis.SurfaceZ == nil || *cfg.Analysis.SurfaceZ != 125.0 {
		t.Errorf("SurfaceZ = %v, want 125.0", cfg.Analysis.SurfaceZ)
	}
	if cfg.Analysis.BinWidth != 2.5 {
		t.Errorf("BinWidth = %v, want 2.5", cfg.Analysis.BinWidth)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	// Keys the file omits keep their defaults.
	if cfg.Analysis.MaxDepth != 250.0 {
		t.Errorf("MaxDepth = %v, want default 250.0", cfg.Analysis.MaxDepth)
	}
	if diff := cmp.Diff(Default().Generate.CopyPatterns, cfg.Generate.CopyPatterns); diff != "" {
		t.Errorf("CopyPatterns mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/lmpens.yaml")
	if err == nil {
		t.Error("LoadFromFile() error = nil, want read failure")
	}
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := writeConfig(t, "generate: [not a mapping")
	_, err := LoadFromFile(path)
	if err == nil {
		t.Error("LoadFromFile() error = nil, want parse failure")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LMPENS_LOG_LEVEL", "trace")
	t.Setenv("LMPENS_SURFACE_Z", "130.5")
	t.Setenv("LMPENS_BIN_WIDTH", "1.0")
	t.Setenv("LMPENS_SEED_STRIDE", "40")

	path := writeConfig(t, "logging:\n  level: info\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "trace" {
		t.Errorf("Level = %q, want trace (env wins over file)", cfg.Logging.Level)
	}
	if cfg.Analysis.SurfaceZ == nil || *cfg.Analysis.SurfaceZ != 130.5 {
		t.Errorf("SurfaceZ = %v, want 130.5", cfg.Analysis.SurfaceZ)
	}
	if cfg.Analysis.BinWidth != 1.0 {
		t.Errorf("BinWidth = %v, want 1.0", cfg.Analysis.BinWidth)
	}
	if cfg.Generate.SeedStride != 40 {
		t.Errorf("SeedStride = %d, want 40", cfg.Generate.SeedStride)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() error = nil for explicit missing path, want failure")
	}

	// Empty path with no lmpens.yaml in the working directory falls back
	// to defaults.
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldWD) })
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero bin width", func(c *Config) { c.Analysis.BinWidth = 0 }, true},
		{"negative max depth", func(c *Config) { c.Analysis.MaxDepth = -1 }, true},
		{"zero seed stride", func(c *Config) { c.Generate.SeedStride = 0 }, true},
		{"empty entry name", func(c *Config) { c.Generate.EntryName = "" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"empty log level ok", func(c *Config) { c.Logging.Level = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
