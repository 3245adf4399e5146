// Package record parses heterogeneous simulation result files into depth
// measurements. Three on-disk shapes are understood: defect lists (one
// coordinate row per line), trajectory snapshots (LAMMPS dump frames), and
// "#"-headed columnar tables (OVITO exports). The variant is chosen by
// sniffing the file's leading lines, not its extension.
package record

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DepthRecord is one parsed measurement. Depth is surfaceZ - z: signed, may
// be negative (above the nominal surface) or exceed the substrate thickness
// (exited the far boundary). Clipping is the aggregator's decision.
type DepthRecord struct {
	Source string
	Depth  float64
}

// Options controls a parse. SurfaceZ must always be supplied by the caller;
// the file formats carry no notion of a surface.
type Options struct {
	SurfaceZ float64

	// TypeFilter, when non-nil, retains only rows whose species/type tag
	// matches. Requires the file to declare a type column.
	TypeFilter *int
}

// Result is the outcome of parsing one file: the records plus the count of
// malformed lines that were skipped. Upstream extraction tools are known to
// emit occasional malformed trailing lines, so a bad line is counted, not
// fatal.
type Result struct {
	Records []DepthRecord
	Skipped int
}

// Kind identifies a result file variant.
type Kind string

const (
	KindDefectList Kind = "defect-list"
	KindDump       Kind = "trajectory-snapshot"
	KindOvitoTable Kind = "ovito-table"
)

// FormatError reports a result file whose declared schema cannot satisfy
// the requested parse, e.g. a type filter against a file with no type
// column.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported result format in %s: %s", e.Path, e.Reason)
}

// Sniff decides which parser handles path. LAMMPS dumps open with "ITEM:".
// A leading "#" comment block that declares Position.X/Y/Z column names is
// an OVITO-style table; everything else is treated as a defect list, which
// tolerates plain "#" comments.
func Sniff(path string) (Kind, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading result file %s: %w", path, err)
	}
	first := true
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ITEM:") && first {
			return KindDump, nil
		}
		if strings.HasPrefix(line, "#") {
			cols := headerColumns(line)
			if pickIdx(cols, "position.x") >= 0 && pickIdx(cols, "position.y") >= 0 && pickIdx(cols, "position.z") >= 0 {
				return KindOvitoTable, nil
			}
			first = false
			continue
		}
		return KindDefectList, nil
	}
	return KindDefectList, nil
}

// Parse sniffs path and dispatches to the matching variant.
func Parse(path string, opts Options) (Result, error) {
	kind, err := Sniff(path)
	if err != nil {
		return Result{}, err
	}
	switch kind {
	case KindDump:
		return ParseDump(path, opts)
	case KindOvitoTable:
		return ParseOvitoTable(path, opts)
	default:
		return ParseDefectList(path, opts)
	}
}

func parseFloat(tok string) (float64, bool) {
	v, err := strconv.ParseFloat(tok, 64)
	return v, err == nil
}
