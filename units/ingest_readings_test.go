package units

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/evergreen-ci/baseload/model"
	"github.com/mongodb/amboy/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dailyCSV returns ten weeks of daily readings starting on a Monday, with
// consumption dropping from 10 to 2 after five weeks.
func dailyCSV() string {
	start := time.Date(2019, time.January, 7, 0, 0, 0, 0, time.UTC)
	var b strings.Builder
	b.WriteString("datestamp,energy\n")
	for i := 0; i < 70; i++ {
		value := 10
		if i >= 35 {
			value = 2
		}
		fmt.Fprintf(&b, "%s,%d\n", start.AddDate(0, 0, i).Format("2006-01-02 15:04:05"), value)
	}
	return b.String()
}

func TestIngestReadingsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env := newTestEnv(ctx, t)

	bucket, err := env.GetBucket(ctx)
	require.NoError(t, err)
	require.NoError(t, bucket.Put(ctx, "uploads/building.csv", strings.NewReader(dailyCSV())))

	t.Run("StoresSeries", func(t *testing.T) {
		j := NewIngestReadingsJob("building", "uploads/building.csv", false, AnalysisOptions{}).(*ingestReadingsJob)
		assert.Equal(t, ingestReadingsJobName, j.Type().Name)
		j.env = env
		j.Run(ctx)
		require.NoError(t, j.Error())

		series := &model.EnergySeries{ID: "building"}
		series.Setup(env)
		require.NoError(t, series.Find(ctx))
		require.Len(t, series.Points, 10)
		assert.Equal(t, 70.0, series.Values()[0])
		assert.Equal(t, 14.0, series.Values()[9])
	})
	t.Run("QueuesAnalysis", func(t *testing.T) {
		q := queue.NewLocalLimitedSize(1, 16)
		require.NoError(t, q.Start(ctx))
		defer q.Close(ctx)

		j := NewIngestReadingsJob("building", "uploads/building.csv", true, AnalysisOptions{}).(*ingestReadingsJob)
		j.env = env
		j.queue = q
		j.Run(ctx)
		require.NoError(t, j.Error())
		assert.Equal(t, 1, q.Stats(ctx).Total)
	})
	t.Run("MissingFile", func(t *testing.T) {
		j := NewIngestReadingsJob("building", "uploads/missing.csv", false, AnalysisOptions{}).(*ingestReadingsJob)
		j.env = env
		j.Run(ctx)
		assert.Error(t, j.Error())
	})
	t.Run("MalformedFile", func(t *testing.T) {
		require.NoError(t, bucket.Put(ctx, "uploads/bad.csv", strings.NewReader("datestamp,energy\nyesterday,1\n")))

		j := NewIngestReadingsJob("bad", "uploads/bad.csv", false, AnalysisOptions{}).(*ingestReadingsJob)
		j.env = env
		j.Run(ctx)
		assert.Error(t, j.Error())
	})
}
