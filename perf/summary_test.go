package perf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	values := []float64{9, 1, 5, 3, 7}
	s := Summarize(values, 0, len(values))
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 5, s.Mean, 1e-12)
	assert.InDelta(t, 5, s.Median, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.True(t, s.StdDev > 0)
	assert.Equal(t, []float64{9, 1, 5, 3, 7}, values)

	single := Summarize(values, 2, 3)
	assert.Equal(t, 1, single.Count)
	assert.Zero(t, single.StdDev)

	empty := Summarize(values, 3, 3)
	assert.Zero(t, empty.Count)
}

func TestSegments(t *testing.T) {
	values := []float64{10, 10, 10, 2, 2, 2}
	whole := Segments(values, nil)
	require.Len(t, whole, 1)
	assert.Equal(t, 6, whole[0].Count)

	split := Segments(values, &MeanShift{Index: 3})
	require.Len(t, split, 2)
	assert.Equal(t, 0, split[0].Start)
	assert.Equal(t, 3, split[0].End)
	assert.InDelta(t, 10, split[0].Mean, 1e-12)
	assert.Equal(t, 3, split[1].Start)
	assert.InDelta(t, 2, split[1].Mean, 1e-12)
}
