package record

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// frame accumulates one ITEM: ATOMS block while scanning a dump.
type frame struct {
	zs      []float64
	skipped int
}

// ParseDump reads a LAMMPS trajectory dump and returns depth records for
// the final frame only: the ensemble statistic is where things ended up,
// not a time series. Coordinate columns may be x/y/z, unwrapped (xu...) or
// scaled (xs...); scaled values are mapped to absolute coordinates via the
// frame's ITEM: BOX BOUNDS. With a TypeFilter set, only rows whose type
// column matches are kept; a dump whose ATOMS schema lacks a type column
// then fails with *FormatError.
func ParseDump(path string, opts Options) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading dump %s: %w", path, err)
	}
	lines := strings.Split(string(data), "\n")

	var (
		last         *frame
		cur          *frame
		zIdx, tIdx   = -1, -1
		scaled       bool
		haveBounds   bool
		zLo, zHi     float64
		readingAtoms bool
	)

	finish := func() {
		if readingAtoms && cur != nil {
			last = cur
		}
		readingAtoms = false
		cur = nil
	}

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		i++
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "ITEM:") {
			if strings.HasPrefix(line, "ITEM: BOX BOUNDS") {
				finish()
				// Three bounds rows follow: x, y, z. Only z matters for
				// depth, but all three must parse for the block to count.
				if i+2 < len(lines) {
					_, _, okX := parseBoundsRow(lines[i])
					_, _, okY := parseBoundsRow(lines[i+1])
					var okZ bool
					zLo, zHi, okZ = parseBoundsRow(lines[i+2])
					haveBounds = okX && okY && okZ
					i += 3
				} else {
					haveBounds = false
				}
				continue
			}
			if strings.HasPrefix(line, "ITEM: ATOMS") {
				cols := strings.Fields(line)[2:]
				lower := make([]string, len(cols))
				for j, c := range cols {
					lower[j] = strings.ToLower(c)
				}
				zIdx = pickIdx(lower, "z", "zu", "zsu", "zus", "zs")
				tIdx = pickIdx(lower, "type")
				scaled = zIdx >= 0 && strings.HasSuffix(lower[zIdx], "s")
				if opts.TypeFilter != nil && tIdx < 0 {
					return Result{}, &FormatError{Path: path, Reason: "ATOMS schema declares no type column, cannot filter by type"}
				}
				cur = &frame{}
				readingAtoms = true
				continue
			}
			// Any other ITEM closes the current ATOMS block.
			finish()
			continue
		}

		if !readingAtoms || zIdx < 0 {
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) <= zIdx {
			cur.skipped++
			continue
		}
		if opts.TypeFilter != nil {
			if len(tokens) <= tIdx {
				cur.skipped++
				continue
			}
			t, err := strconv.ParseFloat(tokens[tIdx], 64)
			if err != nil {
				cur.skipped++
				continue
			}
			if int(t) != *opts.TypeFilter {
				continue
			}
		}
		z, ok := parseFloat(tokens[zIdx])
		if !ok {
			cur.skipped++
			continue
		}
		if scaled {
			if !haveBounds {
				cur.skipped++
				continue
			}
			z = zLo + z*(zHi-zLo)
		}
		cur.zs = append(cur.zs, z)
	}
	finish()

	if last == nil {
		return Result{}, &FormatError{Path: path, Reason: "no ITEM: ATOMS block found"}
	}
	res := Result{Skipped: last.skipped}
	for _, z := range last.zs {
		res.Records = append(res.Records, DepthRecord{Source: path, Depth: opts.SurfaceZ - z})
	}
	return res, nil
}

func parseBoundsRow(s string) (lo, hi float64, ok bool) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) < 2 {
		return 0, 0, false
	}
	lo, okLo := parseFloat(parts[0])
	hi, okHi := parseFloat(parts[1])
	return lo, hi, okLo && okHi
}

func pickIdx(cols []string, candidates ...string) int {
	for _, name := range candidates {
		for i, c := range cols {
			if c == name {
				return i
			}
		}
	}
	return -1
}
