package perf

import (
	"math"

	"github.com/aclements/go-moremath/stats"
)

// Mean returns the arithmetic mean of vals, or NaN for an empty slice.
func Mean(vals []float64) float64 { return stats.Mean(vals) }

// RSS returns the residual sum of squares of vals around their own mean.
func RSS(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	mean := Mean(vals)
	total := 0.0
	for _, v := range vals {
		d := v - mean
		total += d * d
	}
	return total
}

// firstNonFinite returns the index of the first NaN or infinite value, or
// -1 when every value is finite.
func firstNonFinite(vals []float64) int {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}

// prefixSums holds running sums of a series and of its squares, so that the
// RSS of any contiguous segment is available in constant time. s1[k] and
// s2[k] cover vals[0:k].
type prefixSums struct {
	s1 []float64
	s2 []float64
}

func newPrefixSums(vals []float64) prefixSums {
	p := prefixSums{
		s1: make([]float64, len(vals)+1),
		s2: make([]float64, len(vals)+1),
	}
	for i, v := range vals {
		p.s1[i+1] = p.s1[i] + v
		p.s2[i+1] = p.s2[i] + v*v
	}
	return p
}

// rss returns the residual sum of squares of vals[start:end].
func (p prefixSums) rss(start, end int) float64 {
	n := float64(end - start)
	if n <= 0 {
		return 0
	}
	sum := p.s1[end] - p.s1[start]
	sq := p.s2[end] - p.s2[start]
	out := sq - sum*sum/n
	if out < 0 {
		// rounding noise on a constant segment
		return 0
	}
	return out
}

// mean returns the mean of vals[start:end].
func (p prefixSums) mean(start, end int) float64 {
	return (p.s1[end] - p.s1[start]) / float64(end-start)
}

// ConvolveCentered applies a symmetric filter to vals. The weights must have
// odd length 2h+1; out[i] is the weighted sum of vals[i-h:i+h+1]. The first
// and last h positions have no complete window and are set to NaN.
func ConvolveCentered(vals, weights []float64) []float64 {
	out := make([]float64, len(vals))
	half := len(weights) / 2
	for i := range out {
		if i < half || i >= len(vals)-half {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j, w := range weights {
			sum += w * vals[i-half+j]
		}
		out[i] = sum
	}
	return out
}

// trendWeights returns the moving average filter for a seasonal period. An
// odd period is a plain order-period average. An even period is the order-2
// average of an order-period average, which keeps the window centered on a
// sample: period+1 weights with the two end weights halved.
func trendWeights(period int) []float64 {
	if period%2 != 0 {
		weights := make([]float64, period)
		for i := range weights {
			weights[i] = 1 / float64(period)
		}
		return weights
	}

	weights := make([]float64, period+1)
	for i := range weights {
		weights[i] = 1 / float64(period)
	}
	weights[0] /= 2
	weights[period] /= 2
	return weights
}
