package perf

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

const (
	amocAlgorithmName    = "amoc_mean"
	amocAlgorithmVersion = 1

	// minSegmentLength is the fewest points either side of a split may
	// hold.
	minSegmentLength = 2
	// MinDetectLength is the shortest series the detector accepts.
	MinDetectLength = 2 * minSegmentLength

	// tieTolerance is the relative difference below which two RSS
	// reductions are treated as equal. Mirrored splits of a symmetric
	// series are equal in exact arithmetic but not after rounding.
	tieTolerance = 1e-9
)

// MeanShift describes the single best split of a series into two segments
// with different means. Index is the first position of the second segment,
// so values[:Index] and values[Index:] are the two segments.
type MeanShift struct {
	Index      int     `bson:"index" json:"index" yaml:"index"`
	Statistic  float64 `bson:"statistic" json:"statistic" yaml:"statistic"`
	Threshold  float64 `bson:"threshold" json:"threshold" yaml:"threshold"`
	MeanBefore float64 `bson:"mean_before" json:"mean_before" yaml:"mean_before"`
	MeanAfter  float64 `bson:"mean_after" json:"mean_after" yaml:"mean_after"`
	RSSTotal   float64 `bson:"rss_total" json:"rss_total" yaml:"rss_total"`
	RSSSplit   float64 `bson:"rss_split" json:"rss_split" yaml:"rss_split"`
}

// AMOCDetector finds at most one change in mean by scanning every split
// point and keeping the one that most reduces the residual sum of squares.
type AMOCDetector struct {
	penalty Penalty
	info    AlgorithmInfo
}

// NewAMOCDetector returns a detector that reports a change only when the
// reduction in RSS exceeds the penalty threshold.
func NewAMOCDetector(penalty Penalty) (*AMOCDetector, error) {
	if err := penalty.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid penalty")
	}

	return &AMOCDetector{
		penalty: penalty,
		info: AlgorithmInfo{
			Name:    amocAlgorithmName,
			Version: amocAlgorithmVersion,
			Options: []AlgorithmOption{
				{
					Name:  "penalty",
					Value: string(penalty.Type),
				},
				{
					Name:  "penalty_value",
					Value: penalty.Value,
				},
				{
					Name:  "min_segment_length",
					Value: minSegmentLength,
				},
			},
		},
	}, nil
}

// Penalty returns the detector's threshold configuration.
func (d *AMOCDetector) Penalty() Penalty { return d.penalty }

// Info describes the algorithm and its options.
func (d *AMOCDetector) Info() AlgorithmInfo { return d.info }

// scan computes the RSS reduction for every candidate split. The series is
// centered on its mean first so the running sums of squares stay small.
// stats[k] is NaN where k is not a candidate.
func (d *AMOCDetector) scan(values []float64) ([]float64, prefixSums, float64, error) {
	n := len(values)
	if n < MinDetectLength {
		return nil, prefixSums{}, 0, &InsufficientDataError{Length: n, Minimum: MinDetectLength}
	}

	if idx := firstNonFinite(values); idx >= 0 {
		return nil, prefixSums{}, 0, &InvalidInputError{Length: n, Reason: fmt.Sprintf("value at index %d is not finite", idx)}
	}

	mean := Mean(values)
	centered := make([]float64, n)
	for i, v := range values {
		centered[i] = v - mean
	}

	sums := newPrefixSums(centered)
	total := sums.rss(0, n)

	stats := make([]float64, n)
	for k := range stats {
		if k < minSegmentLength || k > n-minSegmentLength {
			stats[k] = math.NaN()
			continue
		}
		stats[k] = total - (sums.rss(0, k) + sums.rss(k, n))
	}

	return stats, sums, mean, nil
}

// Profile returns the RSS reduction achieved by splitting at each index.
// Indexes that are not valid split points hold NaN.
func (d *AMOCDetector) Profile(values []float64) ([]float64, error) {
	stats, _, _, err := d.scan(values)
	return stats, err
}

// Detect returns the best mean shift in values, or nil when the largest RSS
// reduction does not exceed the penalty threshold. Ties resolve to the
// lowest index.
func (d *AMOCDetector) Detect(values []float64) (*MeanShift, error) {
	_, shift, err := d.profileAndDetect(values)
	return shift, err
}

// profileAndDetect runs a single scan and returns both the profile and the
// best shift.
func (d *AMOCDetector) profileAndDetect(values []float64) ([]float64, *MeanShift, error) {
	stats, sums, mean, err := d.scan(values)
	if err != nil {
		return nil, nil, err
	}

	return stats, d.detectFromStats(stats, sums, mean), nil
}

func (d *AMOCDetector) detectFromStats(stats []float64, sums prefixSums, mean float64) *MeanShift {
	n := len(stats)
	total := sums.rss(0, n)
	margin := tieTolerance * math.Max(1, total)

	peak := math.Inf(-1)
	for _, stat := range stats {
		if !math.IsNaN(stat) && stat > peak {
			peak = stat
		}
	}

	// the lowest index within the tolerance of the maximum wins
	best := -1
	for k, stat := range stats {
		if !math.IsNaN(stat) && stat >= peak-margin {
			best = k
			break
		}
	}

	threshold := d.penalty.Threshold(n)
	if best == -1 || !(stats[best] > threshold) {
		return nil
	}

	return &MeanShift{
		Index:      best,
		Statistic:  stats[best],
		Threshold:  threshold,
		MeanBefore: sums.mean(0, best) + mean,
		MeanAfter:  sums.mean(best, n) + mean,
		RSSTotal:   total,
		RSSSplit:   total - stats[best],
	}
}

// DetectChanges implements ChangeDetector, returning zero or one change
// points.
func (d *AMOCDetector) DetectChanges(values []float64) ([]ChangePoint, error) {
	shift, err := d.Detect(values)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return []ChangePoint{}, nil
	}

	return []ChangePoint{{Index: shift.Index, Info: d.info}}, nil
}
