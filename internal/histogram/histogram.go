// Package histogram merges depth measurements from all located sources into
// one binned frequency distribution.
package histogram

import (
	"fmt"
	"math"

	"github.com/seki-lab/lmpens/internal/record"
)

// Spec configures one aggregation. Clips are optional: a nil bound means
// unbounded on that side. The upper clip is exclusive.
type Spec struct {
	BinWidth  float64
	LowerClip *float64
	UpperClip *float64
}

// Bin is one half-open interval [Start, End) and its count.
type Bin struct {
	Start float64
	End   float64
	Count int
}

// Result is a contiguous ascending bin table plus summary statistics over
// the retained records. Bins with zero count are present, not omitted, so
// the table is directly plottable.
type Result struct {
	Bins  []Bin
	Total int
	Mean  float64
}

// InvalidSpecError reports an aggregation spec that cannot produce a valid
// distribution.
type InvalidSpecError struct {
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return "invalid histogram spec: " + e.Reason
}

// Aggregate bins the depths of records per spec. Records outside
// [LowerClip, UpperClip) are dropped before binning and excluded from the
// total. The bin origin is the minimum retained depth; every bin spans
// BinWidth except the final one, which is clamped to UpperClip when the
// clip lands inside it.
func Aggregate(records []record.DepthRecord, spec Spec) (Result, error) {
	if spec.BinWidth <= 0 {
		return Result{}, &InvalidSpecError{Reason: fmt.Sprintf("bin width must be > 0, got %g", spec.BinWidth)}
	}
	if spec.LowerClip != nil && spec.UpperClip != nil && *spec.LowerClip >= *spec.UpperClip {
		return Result{}, &InvalidSpecError{Reason: fmt.Sprintf("lower clip %g must be below upper clip %g", *spec.LowerClip, *spec.UpperClip)}
	}

	var depths []float64
	var sum float64
	for _, r := range records {
		if spec.LowerClip != nil && r.Depth < *spec.LowerClip {
			continue
		}
		if spec.UpperClip != nil && r.Depth >= *spec.UpperClip {
			continue
		}
		depths = append(depths, r.Depth)
		sum += r.Depth
	}
	if len(depths) == 0 {
		return Result{}, nil
	}

	origin := depths[0]
	for _, d := range depths {
		if d < origin {
			origin = d
		}
	}

	maxIdx := 0
	counts := map[int]int{}
	for _, d := range depths {
		idx := int(math.Floor((d - origin) / spec.BinWidth))
		if idx < 0 {
			// Float rounding at the origin itself.
			idx = 0
		}
		counts[idx]++
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	bins := make([]Bin, 0, maxIdx+1)
	for i := 0; i <= maxIdx; i++ {
		start := origin + float64(i)*spec.BinWidth
		end := origin + float64(i+1)*spec.BinWidth
		if i == maxIdx && spec.UpperClip != nil && *spec.UpperClip < end {
			end = *spec.UpperClip
		}
		bins = append(bins, Bin{Start: start, End: end, Count: counts[i]})
	}

	return Result{
		Bins:  bins,
		Total: len(depths),
		Mean:  sum / float64(len(depths)),
	}, nil
}
