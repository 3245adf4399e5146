package record

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseDefectList reads a line-oriented defect coordinate file. Each data
// line carries at least three numeric columns; the last of the trailing
// x y z triple supplies the z coordinate. An XYZ-style preamble (integer
// count line plus comment line) and "#" comment lines are tolerated.
// Malformed lines are skipped and counted.
func ParseDefectList(path string, opts Options) (Result, error) {
	if opts.TypeFilter != nil {
		return Result{}, &FormatError{Path: path, Reason: "defect lists declare no type column, cannot filter by type"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading defect list %s: %w", path, err)
	}
	lines := strings.Split(string(data), "\n")

	// XYZ-like files open with a bare atom count followed by a comment
	// line; both are preamble, not records.
	start := 0
	if len(lines) > 0 {
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
			start = 2
		}
	}

	res := Result{}
	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		z, ok := zFromTokens(strings.Fields(line))
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, DepthRecord{Source: path, Depth: opts.SurfaceZ - z})
	}
	return res, nil
}

// zFromTokens extracts z from a row's trailing x y z triple. Rows may lead
// with identifiers or species labels; only the last three columns must be
// numeric.
func zFromTokens(tokens []string) (float64, bool) {
	if len(tokens) < 3 {
		return 0, false
	}
	last3 := tokens[len(tokens)-3:]
	for _, tok := range last3 {
		if _, ok := parseFloat(tok); !ok {
			return 0, false
		}
	}
	z, _ := parseFloat(last3[2])
	return z, true
}
