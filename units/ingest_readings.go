package units

import (
	"context"
	"fmt"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/model"
	"github.com/evergreen-ci/baseload/parser"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const ingestReadingsJobName = "ingest-readings"

type ingestReadingsJob struct {
	*job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`
	MeterID   string `bson:"meter_id" json:"meter_id" yaml:"meter_id"`
	// Key names the uploaded CSV in the environment's bucket.
	Key string `bson:"key" json:"key" yaml:"key"`
	// Analyze queues an analysis once the readings are stored.
	Analyze bool            `bson:"analyze" json:"analyze" yaml:"analyze"`
	Options AnalysisOptions `bson:"options" json:"options" yaml:"options"`

	env   baseload.Environment
	queue amboy.Queue
}

func init() {
	registry.AddJobType(ingestReadingsJobName, func() amboy.Job { return makeIngestReadingsJob() })
}

func makeIngestReadingsJob() *ingestReadingsJob {
	j := &ingestReadingsJob{
		Base: &job.Base{
			JobType: amboy.JobType{
				Name:    ingestReadingsJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewIngestReadingsJob returns a job that parses an uploaded readings file,
// resamples it, and replaces the meter's stored consumption history. When
// analyze is set the job queues an analysis with opts afterwards.
func NewIngestReadingsJob(meterID, key string, analyze bool, opts AnalysisOptions) amboy.Job {
	j := makeIngestReadingsJob()
	j.SetID(fmt.Sprintf("%s.%s.%s", j.JobType.Name, meterID, key))
	j.MeterID = meterID
	j.Key = key
	j.Analyze = analyze
	j.Options = opts
	return j
}

func (j *ingestReadingsJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = baseload.GetEnvironment()
	}
	if j.env == nil {
		j.AddError(errors.New("cannot ingest readings without an environment"))
		return
	}
	if j.queue == nil {
		j.queue = j.env.GetQueue()
	}
	conf := j.env.GetConf()

	bucket, err := j.env.GetBucket(ctx)
	if err != nil {
		j.AddError(err)
		return
	}

	file, err := bucket.Get(ctx, j.Key)
	if err != nil {
		j.AddError(errors.Wrapf(err, "problem reading '%s'", j.Key))
		return
	}
	defer file.Close()

	readings, err := parser.ReadEnergyCSV(file, conf.Analysis.CSVOptions())
	if err != nil {
		j.AddError(errors.Wrapf(err, "problem parsing '%s'", j.Key))
		return
	}

	resampleOpts := conf.Analysis.ResampleOptions()
	resampled, err := perf.Resample(readings, resampleOpts)
	if err != nil {
		j.AddError(errors.Wrapf(err, "problem resampling '%s'", j.Key))
		return
	}

	series := model.CreateEnergySeries(j.MeterID, resampleOpts.Interval, resampled)
	series.Setup(j.env)
	if err = series.Save(ctx); err != nil {
		j.AddError(err)
		return
	}

	grip.Info(message.Fields{
		"message":  "stored meter readings",
		"job":      j.ID(),
		"meter":    j.MeterID,
		"key":      j.Key,
		"readings": len(readings),
		"points":   len(resampled.Values),
		"filled":   len(resampled.Filled),
	})

	if j.Analyze && j.queue != nil {
		j.AddError(j.queue.Put(ctx, NewAnalyzeMeterJob(j.MeterID, j.Options)))
	}
}
