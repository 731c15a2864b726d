package perf

import (
	"fmt"
	"math"
)

// Decomposition holds the additive components of a seasonal series. All
// component slices have the length of the input. Trend and Residual are NaN
// within period/2 samples of either end, where the moving average has no
// complete window; Seasonal is defined everywhere.
type Decomposition struct {
	Seasonal []float64
	Trend    []float64
	Residual []float64
	// Figures holds one seasonal value per phase. They sum to zero.
	Figures []float64
	Period  int
}

// Decompose splits values into seasonal, trend, and residual components
// using classical moving-average decomposition, such that
// values[i] == Seasonal[i] + Trend[i] + Residual[i] wherever the trend is
// defined. The input is not modified.
func Decompose(values []float64, period int) (*Decomposition, error) {
	n := len(values)
	if period < 2 {
		return nil, &InvalidInputError{Period: period, Length: n, Reason: "period must be at least 2"}
	}
	if n < 2*period {
		return nil, &InvalidInputError{Period: period, Length: n, Reason: "series must cover at least two full periods"}
	}
	if idx := firstNonFinite(values); idx >= 0 {
		return nil, &InvalidInputError{Period: period, Length: n, Reason: fmt.Sprintf("value at index %d is not finite", idx)}
	}

	trend := ConvolveCentered(values, trendWeights(period))

	figures := make([]float64, period)
	counts := make([]int, period)
	for i, t := range trend {
		if math.IsNaN(t) {
			continue
		}
		figures[i%period] += values[i] - t
		counts[i%period]++
	}
	for phase := range figures {
		figures[phase] /= float64(counts[phase])
	}

	center := Mean(figures)
	for phase := range figures {
		figures[phase] -= center
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := range values {
		seasonal[i] = figures[i%period]
		if math.IsNaN(trend[i]) {
			residual[i] = math.NaN()
			continue
		}
		residual[i] = values[i] - trend[i] - seasonal[i]
	}

	return &Decomposition{
		Seasonal: seasonal,
		Trend:    trend,
		Residual: residual,
		Figures:  figures,
		Period:   period,
	}, nil
}

// Deseasonalize removes the seasonal component from values. Unlike the
// residual, the result is defined at every index, so index i still maps to
// the i-th timestamp of the source series.
func Deseasonalize(values []float64, period int) ([]float64, *Decomposition, error) {
	d, err := Decompose(values, period)
	if err != nil {
		return nil, nil, err
	}

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v - d.Seasonal[i]
	}
	return out, d, nil
}
