// Package plan derives the per-run configurations of an ensemble batch.
// Derivation is a pure function of the batch parameters: the same inputs
// always yield the same sequence, and any single run can be regenerated in
// isolation without replaying the runs before it.
package plan

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/seki-lab/lmpens/internal/template"
)

// DefaultSeedStride spaces the embedded seed offsets of consecutive runs
// under the loop-random-xy style, leaving room for up to this many draws
// inside one run's template.
const DefaultSeedStride = 10

// Params describes one batch.
type Params struct {
	Runs     int
	BaseSeed int64
	XRange   template.Range
	YRange   template.Range
	Style    template.Style

	// Stride spaces per-run seed offsets under loop-random-xy.
	// Zero selects DefaultSeedStride.
	Stride int64
}

// RunConfig is one planned run. Immutable once returned by Plan.
type RunConfig struct {
	Index int    // 1-based ordinal within the batch
	ID    string // zero-padded identifier, e.g. run_01
	Seed  int64

	// Simple style: the drawn injection position.
	X float64
	Y float64

	// Loop-random-xy style: the ranges embedded verbatim.
	XRange template.Range
	YRange template.Range

	Style template.Style
}

// InvalidSpecError reports batch parameters that cannot produce a valid
// ensemble.
type InvalidSpecError struct {
	Field  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid batch spec: %s: %s", e.Field, e.Reason)
}

// Plan returns one RunConfig per run index 1..Runs.
func Plan(p Params) ([]RunConfig, error) {
	if p.Runs <= 0 {
		return nil, &InvalidSpecError{Field: "runs", Reason: fmt.Sprintf("must be positive, got %d", p.Runs)}
	}
	if p.XRange.Min > p.XRange.Max {
		return nil, &InvalidSpecError{Field: "x-range", Reason: fmt.Sprintf("min %g exceeds max %g", p.XRange.Min, p.XRange.Max)}
	}
	if p.YRange.Min > p.YRange.Max {
		return nil, &InvalidSpecError{Field: "y-range", Reason: fmt.Sprintf("min %g exceeds max %g", p.YRange.Min, p.YRange.Max)}
	}
	stride := p.Stride
	if stride == 0 {
		stride = DefaultSeedStride
	}
	if stride < 1 {
		return nil, &InvalidSpecError{Field: "stride", Reason: fmt.Sprintf("must be >= 1, got %d", stride)}
	}
	switch p.Style {
	case template.StyleSimple, template.StyleLoopRandomXY:
	default:
		return nil, &InvalidSpecError{Field: "style", Reason: fmt.Sprintf("unknown style %q", p.Style)}
	}

	width := idWidth(p.Runs)
	configs := make([]RunConfig, 0, p.Runs)
	for i := 1; i <= p.Runs; i++ {
		cfg := RunConfig{
			Index: i,
			ID:    fmt.Sprintf("run_%0*d", width, i),
			Style: p.Style,
		}
		switch p.Style {
		case template.StyleSimple:
			cfg.Seed = p.BaseSeed + int64(i)
			rng := rand.New(rand.NewSource(mix(p.BaseSeed, i)))
			cfg.X = draw(rng, p.XRange)
			cfg.Y = draw(rng, p.YRange)
		case template.StyleLoopRandomXY:
			// The draw happens inside the simulator; the planner only
			// guarantees the embedded offsets never collide across runs.
			cfg.Seed = p.BaseSeed + stride*int64(i)
			cfg.XRange = p.XRange
			cfg.YRange = p.YRange
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// idWidth is the zero-pad width of run identifiers, at least 2 so small
// batches still sort lexicographically.
func idWidth(runs int) int {
	w := len(strconv.Itoa(runs))
	if w < 2 {
		w = 2
	}
	return w
}

// mix folds the base seed and run index into an independent RNG seed using
// a splitmix64 round, so run k's draws do not depend on how many runs
// precede it.
func mix(base int64, index int) int64 {
	z := uint64(base) + uint64(index)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

func draw(rng *rand.Rand, r template.Range) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}
