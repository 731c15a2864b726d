package perf

import (
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// SegmentSummary describes the values on one side of a change point.
type SegmentSummary struct {
	Start  int     `bson:"start" json:"start" yaml:"start"`
	End    int     `bson:"end" json:"end" yaml:"end"`
	Count  int     `bson:"count" json:"count" yaml:"count"`
	Mean   float64 `bson:"mean" json:"mean" yaml:"mean"`
	Median float64 `bson:"median" json:"median" yaml:"median"`
	Min    float64 `bson:"min" json:"min" yaml:"min"`
	Max    float64 `bson:"max" json:"max" yaml:"max"`
	StdDev float64 `bson:"std_dev" json:"std_dev" yaml:"std_dev"`
}

// Summarize describes values[start:end].
func Summarize(values []float64, start, end int) SegmentSummary {
	out := SegmentSummary{Start: start, End: end, Count: end - start}
	if out.Count <= 0 {
		return out
	}

	xs := make(sort.Float64Slice, out.Count)
	copy(xs, values[start:end])
	xs.Sort()

	sample := stats.Sample{Xs: xs, Sorted: true}
	out.Mean = sample.Mean()
	out.Median = sample.Quantile(0.5)
	out.Min, out.Max = sample.Bounds()
	if out.Count > 1 {
		out.StdDev = sample.StdDev()
	}
	if math.IsNaN(out.StdDev) {
		out.StdDev = 0
	}

	return out
}

// Segments summarizes the two sides of shift. A nil shift yields a single
// segment covering the whole series.
func Segments(values []float64, shift *MeanShift) []SegmentSummary {
	if shift == nil {
		return []SegmentSummary{Summarize(values, 0, len(values))}
	}
	return []SegmentSummary{
		Summarize(values, 0, shift.Index),
		Summarize(values, shift.Index, len(values)),
	}
}
