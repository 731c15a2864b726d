package perf

import (
	"math"
	"sort"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/pkg/errors"
)

// Reading is a single timestamped energy measurement.
type Reading struct {
	Timestamp time.Time `bson:"ts" json:"timestamp" yaml:"timestamp"`
	Value     float64   `bson:"value" json:"value" yaml:"value"`
}

// AggregationType names how readings within one interval are combined.
type AggregationType string

const (
	AggregationSum  AggregationType = "sum"
	AggregationMean AggregationType = "mean"
)

// Validate returns an error for unknown aggregation types.
func (a AggregationType) Validate() error {
	switch a {
	case AggregationSum, AggregationMean:
		return nil
	default:
		return errors.Errorf("'%s' is not a valid aggregation type", a)
	}
}

const DefaultResampleInterval = 7 * 24 * time.Hour

// defaultAnchor is a Monday, so weekly bins run Monday to Sunday.
var defaultAnchor = time.Date(1970, time.January, 5, 0, 0, 0, 0, time.UTC)

// ResampleOptions controls how irregular readings become a uniform series.
type ResampleOptions struct {
	Interval    time.Duration
	Anchor      time.Time
	Aggregation AggregationType
	// TrimPartial drops leading and trailing bins that hold fewer readings
	// than the fullest bin.
	TrimPartial bool
}

// Validate checks the options and fills in defaults.
func (o *ResampleOptions) Validate() error {
	if o.Interval == 0 {
		o.Interval = DefaultResampleInterval
	}
	if o.Interval < 0 {
		return errors.Errorf("resample interval must be positive, not %s", o.Interval)
	}
	if o.Anchor.IsZero() {
		o.Anchor = defaultAnchor
	}
	if o.Aggregation == "" {
		o.Aggregation = AggregationSum
	}
	return o.Aggregation.Validate()
}

// Resampled is an evenly spaced series. Timestamps[i] is the start of the
// i-th interval.
type Resampled struct {
	Timestamps []time.Time
	Values     []float64
	// Counts is the number of readings that fell into each interval.
	Counts []int
	// Filled lists the indexes of empty intervals whose values were
	// interpolated from their neighbors.
	Filled []int
}

// Resample bins readings into fixed intervals, aggregates each bin, and
// fills empty interior bins by linear interpolation.
func Resample(readings []Reading, opts ResampleOptions) (*Resampled, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid resample options")
	}
	if len(readings) == 0 {
		return nil, errors.New("cannot resample an empty series")
	}

	sorted := make([]Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	binOf := func(ts time.Time) int64 {
		offset := ts.Sub(opts.Anchor)
		bin := int64(offset / opts.Interval)
		if offset < 0 && offset%opts.Interval != 0 {
			bin--
		}
		return bin
	}

	first := binOf(sorted[0].Timestamp)
	last := binOf(sorted[len(sorted)-1].Timestamp)
	samples := make([][]float64, last-first+1)
	for _, r := range sorted {
		idx := binOf(r.Timestamp) - first
		samples[idx] = append(samples[idx], r.Value)
	}

	start, end := 0, len(samples)
	if opts.TrimPartial {
		full := 0
		for _, s := range samples {
			if len(s) > full {
				full = len(s)
			}
		}
		for start < end && len(samples[start]) < full {
			start++
		}
		for end > start && len(samples[end-1]) < full {
			end--
		}
	}
	samples = samples[start:end]
	if len(samples) == 0 {
		return nil, errors.New("no complete intervals remain after trimming")
	}

	out := &Resampled{
		Timestamps: make([]time.Time, len(samples)),
		Values:     make([]float64, len(samples)),
		Counts:     make([]int, len(samples)),
	}
	for i, s := range samples {
		out.Timestamps[i] = opts.Anchor.Add(time.Duration(first+int64(start+i)) * opts.Interval)
		out.Counts[i] = len(s)
		if len(s) == 0 {
			out.Values[i] = math.NaN()
			out.Filled = append(out.Filled, i)
			continue
		}
		out.Values[i] = aggregate(s, opts.Aggregation)
	}

	interpolateGaps(out.Values, out.Filled)

	return out, nil
}

func aggregate(xs []float64, agg AggregationType) float64 {
	sample := stats.Sample{Xs: xs}
	mean := sample.Mean()
	if agg == AggregationMean {
		return mean
	}
	return mean * float64(len(xs))
}

// interpolateGaps replaces the values at gaps with a straight line between
// the nearest defined neighbors. Trimming guarantees the first and last
// values are defined when gaps is not empty; without trimming the outermost
// bins always hold the first and last reading.
func interpolateGaps(values []float64, gaps []int) {
	for _, idx := range gaps {
		lo := idx - 1
		for lo >= 0 && math.IsNaN(values[lo]) {
			lo--
		}
		hi := idx + 1
		for hi < len(values) && math.IsNaN(values[hi]) {
			hi++
		}
		if lo < 0 || hi >= len(values) {
			continue
		}
		frac := float64(idx-lo) / float64(hi-lo)
		values[idx] = values[lo] + frac*(values[hi]-values[lo])
	}
}
