package record

import (
	"fmt"
	"os"
	"strings"
)

// ParseOvitoTable reads a "#"-headed columnar export, the shape OVITO
// produces. A header comment line declares the column names; the
// Position.X/Y/Z columns locate the coordinates, so position columns need
// not be the trailing ones. Data rows outside the header schema are
// skipped and counted.
func ParseOvitoTable(path string, opts Options) (Result, error) {
	if opts.TypeFilter != nil {
		return Result{}, &FormatError{Path: path, Reason: "table exports declare no usable type column, cannot filter by type"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading table %s: %w", path, err)
	}
	lines := strings.Split(string(data), "\n")

	// The header must come before any data row.
	xIdx, yIdx, zIdx := -1, -1, -1
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			break
		}
		cols := headerColumns(line)
		xi := pickIdx(cols, "position.x")
		yi := pickIdx(cols, "position.y")
		zi := pickIdx(cols, "position.z")
		if xi >= 0 && yi >= 0 && zi >= 0 {
			xIdx, yIdx, zIdx = xi, yi, zi
			break
		}
	}
	if zIdx < 0 {
		return Result{}, &FormatError{Path: path, Reason: "no header line declaring Position.X/Y/Z columns"}
	}
	need := xIdx
	if yIdx > need {
		need = yIdx
	}
	if zIdx > need {
		need = zIdx
	}

	res := Result{}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) <= need {
			res.Skipped++
			continue
		}
		_, okX := parseFloat(tokens[xIdx])
		_, okY := parseFloat(tokens[yIdx])
		z, okZ := parseFloat(tokens[zIdx])
		if !okX || !okY || !okZ {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, DepthRecord{Source: path, Depth: opts.SurfaceZ - z})
	}
	return res, nil
}

// headerColumns splits a "#" comment line into lowercase column names.
// OVITO quotes names containing spaces ("Particle Identifier"); a quoted
// name is one column, so the split has to honor the quotes or every index
// after it would shift.
func headerColumns(line string) []string {
	var cols []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			cols = append(cols, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range strings.TrimLeft(line, "# \t") {
		switch {
		case r == '"':
			inQuote = !inQuote
		case (r == ' ' || r == '\t') && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return cols
}
