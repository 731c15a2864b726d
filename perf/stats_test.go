package perf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.InDelta(t, 3.0, Mean([]float64{1, 5, 1, 5}), 1e-12)
	assert.InDelta(t, -1.5, Mean([]float64{-1, -2}), 1e-12)
	assert.Equal(t, 7.0, Mean([]float64{7, 7, 7}))
}

func TestRSS(t *testing.T) {
	assert.Zero(t, RSS(nil))
	assert.Zero(t, RSS([]float64{4, 4, 4}))
	assert.Equal(t, 8.0, RSS([]float64{1, 5}))
}

func TestPrefixSums(t *testing.T) {
	rng := rand.New(rand.NewSource(defaultSeed))
	vals := make([]float64, 50)
	for i := range vals {
		vals[i] = rng.NormFloat64()*10 + 100
	}
	sums := newPrefixSums(vals)

	for _, window := range [][2]int{{0, 50}, {0, 2}, {10, 40}, {48, 50}, {7, 8}} {
		start, end := window[0], window[1]
		assert.InDelta(t, RSS(vals[start:end]), sums.rss(start, end), 1e-6, "window %v", window)
		assert.InDelta(t, Mean(vals[start:end]), sums.mean(start, end), 1e-9, "window %v", window)
	}
	assert.Zero(t, sums.rss(5, 5))
}

func TestConvolveCentered(t *testing.T) {
	t.Run("OddWindow", func(t *testing.T) {
		out := ConvolveCentered([]float64{1, 2, 3, 4, 5}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
		require.Len(t, out, 5)
		assert.True(t, math.IsNaN(out[0]))
		assert.InDelta(t, 2.0, out[1], 1e-12)
		assert.InDelta(t, 3.0, out[2], 1e-12)
		assert.InDelta(t, 4.0, out[3], 1e-12)
		assert.True(t, math.IsNaN(out[4]))
	})
	t.Run("WindowLongerThanSeries", func(t *testing.T) {
		out := ConvolveCentered([]float64{1, 2}, []float64{1, 1, 1})
		for _, v := range out {
			assert.True(t, math.IsNaN(v))
		}
	})
}

func TestTrendWeights(t *testing.T) {
	for _, period := range []int{2, 3, 4, 7, 12, 52} {
		weights := trendWeights(period)
		total := 0.0
		for _, w := range weights {
			total += w
		}
		assert.InDelta(t, 1.0, total, 1e-12, "period %d", period)
		assert.Equal(t, 1, len(weights)%2, "window must be odd for period %d", period)
		assert.Equal(t, period/2, len(weights)/2)
	}

	assert.Equal(t, []float64{0.125, 0.25, 0.25, 0.25, 0.125}, trendWeights(4))
}
