// Package materialize turns planned run configurations into run directories
// on disk: static artifacts copied in, a run manifest, and the rewritten
// input document written last so its presence marks a completed run.
package materialize

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seki-lab/lmpens/internal/pathutil"
	"github.com/seki-lab/lmpens/internal/plan"
	"github.com/seki-lab/lmpens/internal/template"
)

// DefaultEntryName is the input filename the simulator is pointed at inside
// each run directory.
const DefaultEntryName = "in.lmp"

// ManifestName is the per-run YAML manifest recording the run's identity.
const ManifestName = "run.yaml"

// Request bundles the inputs of one materialization.
type Request struct {
	TemplateDir string
	OutRoot     string

	// CopyPatterns are globs (relative to TemplateDir) of static artifacts
	// every run needs next to its input: potential tables, structure data.
	CopyPatterns []string

	// EntryName overrides DefaultEntryName when set.
	EntryName string

	// BatchID ties the manifest back to the ledger row for the batch.
	BatchID string
}

// RunDir is the materialized filesystem representation of one run.
type RunDir struct {
	Config plan.RunConfig
	Path   string
	Entry  string
	Copied []string
}

// manifest is the run.yaml schema.
type manifest struct {
	BatchID string    `yaml:"batch_id,omitempty"`
	Index   int       `yaml:"index"`
	ID      string    `yaml:"id"`
	Seed    int64     `yaml:"seed"`
	Style   string    `yaml:"style"`
	X       float64   `yaml:"x_pos,omitempty"`
	Y       float64   `yaml:"y_pos,omitempty"`
	XMin    float64   `yaml:"x_min,omitempty"`
	XMax    float64   `yaml:"x_max,omitempty"`
	YMin    float64   `yaml:"y_min,omitempty"`
	YMax    float64   `yaml:"y_max,omitempty"`
	Created time.Time `yaml:"created"`
}

// Materialize creates OutRoot/<cfg.ID>, copies every artifact matching the
// static patterns, writes the manifest, then writes doc as the run's entry
// input. Re-materializing the same run index overwrites its contents so a
// partially finished batch can be retried; unrelated files in OutRoot are
// never touched.
func Materialize(req Request, doc template.Document, cfg plan.RunConfig) (RunDir, error) {
	runPath := filepath.Join(req.OutRoot, cfg.ID)
	if err := os.MkdirAll(runPath, 0755); err != nil {
		return RunDir{}, fmt.Errorf("creating run directory %s: %w", runPath, err)
	}

	entryName := req.EntryName
	if entryName == "" {
		entryName = DefaultEntryName
	}
	entryPath := filepath.Join(runPath, entryName)
	if !pathutil.WithinDir(entryPath, runPath) {
		return RunDir{}, fmt.Errorf("entry name %q escapes run directory", entryName)
	}
	// Drop the previous attempt's completion marker first, so a retry that
	// fails partway through leaves the directory visibly incomplete.
	if err := os.Remove(entryPath); err != nil && !os.IsNotExist(err) {
		return RunDir{}, fmt.Errorf("clearing stale entry input %s: %w", entryPath, err)
	}

	copied, err := copyArtifacts(req.TemplateDir, runPath, req.CopyPatterns)
	if err != nil {
		return RunDir{}, err
	}

	m := manifest{
		BatchID: req.BatchID,
		Index:   cfg.Index,
		ID:      cfg.ID,
		Seed:    cfg.Seed,
		Style:   string(cfg.Style),
		Created: time.Now().UTC(),
	}
	switch cfg.Style {
	case template.StyleSimple:
		m.X, m.Y = cfg.X, cfg.Y
	case template.StyleLoopRandomXY:
		m.XMin, m.XMax = cfg.XRange.Min, cfg.XRange.Max
		m.YMin, m.YMax = cfg.YRange.Min, cfg.YRange.Max
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return RunDir{}, fmt.Errorf("encoding run manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runPath, ManifestName), data, 0644); err != nil {
		return RunDir{}, fmt.Errorf("writing run manifest: %w", err)
	}

	// The entry input goes last: its presence marks the run directory as
	// fully materialized, so a crash mid-copy cannot be mistaken for a
	// complete run.
	if err := os.WriteFile(entryPath, []byte(doc.Text), 0644); err != nil {
		return RunDir{}, fmt.Errorf("writing entry input %s: %w", entryPath, err)
	}

	return RunDir{Config: cfg, Path: runPath, Entry: entryPath, Copied: copied}, nil
}

// copyArtifacts copies every regular file matching the patterns from
// templateDir into runPath, byte-for-byte, keeping base names so relative
// references inside the input document still resolve.
func copyArtifacts(templateDir, runPath string, patterns []string) ([]string, error) {
	var copied []string
	for _, pat := range patterns {
		matches, err := filepath.Glob(filepath.Join(templateDir, pat))
		if err != nil {
			return nil, fmt.Errorf("bad artifact pattern %q: %w", pat, err)
		}
		for _, src := range matches {
			info, err := os.Stat(src)
			if err != nil || info.IsDir() {
				continue
			}
			dst := filepath.Join(runPath, filepath.Base(src))
			if !pathutil.WithinDir(dst, runPath) {
				return nil, fmt.Errorf("artifact %q escapes run directory", src)
			}
			data, err := os.ReadFile(src)
			if err != nil {
				return nil, fmt.Errorf("reading artifact %s: %w", pathutil.RedactPath(src), err)
			}
			if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
				return nil, fmt.Errorf("copying artifact to %s: %w", pathutil.RedactPath(dst), err)
			}
			copied = append(copied, dst)
		}
	}
	return copied, nil
}

// IsComplete reports whether a run directory holds a finished
// materialization, judged by the presence of its entry input.
func IsComplete(runPath, entryName string) bool {
	if entryName == "" {
		entryName = DefaultEntryName
	}
	info, err := os.Stat(filepath.Join(runPath, entryName))
	return err == nil && !info.IsDir()
}
