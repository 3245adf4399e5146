package histogram

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seki-lab/lmpens/internal/record"
)

func recordsFor(depths ...float64) []record.DepthRecord {
	recs := make([]record.DepthRecord, len(depths))
	for i, d := range depths {
		recs[i] = record.DepthRecord{Source: "test", Depth: d}
	}
	return recs
}

func ptr(v float64) *float64 { return &v }

func TestAggregate_Scenario(t *testing.T) {
	res, err := Aggregate(recordsFor(1.2, 3.7, 3.9, 9.0), Spec{BinWidth: 2})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	want := []Bin{
		{Start: 1.2, End: 3.2, Count: 1},
		{Start: 3.2, End: 5.2, Count: 2},
		{Start: 5.2, End: 7.2, Count: 0},
		{Start: 7.2, End: 9.2, Count: 1},
	}
	opt := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })
	if diff := cmp.Diff(want, res.Bins, opt); diff != "" {
		t.Errorf("Bins mismatch (-want +got):\n%s", diff)
	}
	if res.Total != 4 {
		t.Errorf("Total = %d, want 4", res.Total)
	}
}

func TestAggregate_UpperClipExcludesRecord(t *testing.T) {
	res, err := Aggregate(recordsFor(10, 50, 400), Spec{BinWidth: 50, UpperClip: ptr(250)})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2 (depth 400 clipped)", res.Total)
	}
	sum := 0
	for _, b := range res.Bins {
		sum += b.Count
	}
	if sum != 2 {
		t.Errorf("sum(counts) = %d, want 2", sum)
	}
}

func TestAggregate_UpperClipIsExclusive(t *testing.T) {
	res, err := Aggregate(recordsFor(100, 250), Spec{BinWidth: 50, UpperClip: ptr(250)})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want 1 (depth == clip excluded)", res.Total)
	}
}

func TestAggregate_LowerClip(t *testing.T) {
	res, err := Aggregate(recordsFor(-5, -0.1, 0, 10), Spec{BinWidth: 5, LowerClip: ptr(0)})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Total = %d, want 2 (negative depths dropped)", res.Total)
	}
	if res.Bins[0].Start != 0 {
		t.Errorf("Bins[0].Start = %v, want 0", res.Bins[0].Start)
	}
}

func TestAggregate_NegativeDepthsWithoutClip(t *testing.T) {
	res, err := Aggregate(recordsFor(-7.5, -2.5, 2.5), Spec{BinWidth: 5})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.Total != 3 {
		t.Errorf("Total = %d, want 3", res.Total)
	}
	if res.Bins[0].Start != -7.5 {
		t.Errorf("Bins[0].Start = %v, want -7.5 (origin at minimum depth)", res.Bins[0].Start)
	}
}

func TestAggregate_FinalBinClampedToClip(t *testing.T) {
	res, err := Aggregate(recordsFor(0, 8), Spec{BinWidth: 5, UpperClip: ptr(9)})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	last := res.Bins[len(res.Bins)-1]
	if last.End != 9 {
		t.Errorf("final bin end = %v, want clamped to clip 9", last.End)
	}
	for i := 1; i < len(res.Bins); i++ {
		if res.Bins[i-1].End != res.Bins[i].Start {
			t.Errorf("bins not contiguous at %d: %v then %v", i, res.Bins[i-1], res.Bins[i])
		}
	}
}

func TestAggregate_EmptyAfterClipping(t *testing.T) {
	res, err := Aggregate(recordsFor(300, 400), Spec{BinWidth: 5, UpperClip: ptr(250)})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.Total != 0 || len(res.Bins) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
}

func TestAggregate_Mean(t *testing.T) {
	res, err := Aggregate(recordsFor(10, 20, 30), Spec{BinWidth: 5})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if res.Mean != 20 {
		t.Errorf("Mean = %v, want 20", res.Mean)
	}
}

func TestAggregate_InvalidSpec(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"zero bin width", Spec{BinWidth: 0}},
		{"negative bin width", Spec{BinWidth: -2}},
		{"clips inverted", Spec{BinWidth: 5, LowerClip: ptr(100), UpperClip: ptr(50)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(recordsFor(1, 2, 3), tt.spec)
			var inv *InvalidSpecError
			if !errors.As(err, &inv) {
				t.Errorf("Aggregate() error = %v, want *InvalidSpecError", err)
			}
		})
	}
}
