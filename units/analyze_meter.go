package units

import (
	"context"
	"fmt"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/model"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/baseload/util"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/dependency"
	"github.com/mongodb/amboy/job"
	"github.com/mongodb/amboy/registry"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const analyzeMeterJobName = "analyze-meter"

// AnalysisOptions are the per-run analysis settings carried by a job.
type AnalysisOptions struct {
	Period  int          `bson:"period" json:"period" yaml:"period"`
	Penalty perf.Penalty `bson:"penalty" json:"penalty" yaml:"penalty"`
}

// AnalyzerOptions converts the job settings for the analyzer.
func (o AnalysisOptions) AnalyzerOptions() perf.AnalyzerOptions {
	return perf.AnalyzerOptions{Period: o.Period, Penalty: o.Penalty}
}

type analyzeMeterJob struct {
	*job.Base `bson:"metadata" json:"metadata" yaml:"metadata"`
	MeterID   string          `bson:"meter_id" json:"meter_id" yaml:"meter_id"`
	Options   AnalysisOptions `bson:"options" json:"options" yaml:"options"`

	env baseload.Environment
}

func init() {
	registry.AddJobType(analyzeMeterJobName, func() amboy.Job { return makeAnalyzeMeterJob() })
}

func makeAnalyzeMeterJob() *analyzeMeterJob {
	j := &analyzeMeterJob{
		Base: &job.Base{
			JobType: amboy.JobType{
				Name:    analyzeMeterJobName,
				Version: 1,
			},
		},
	}
	j.SetDependency(dependency.NewAlways())
	return j
}

// NewAnalyzeMeterJob returns a job that runs change point analysis over the
// stored consumption history of a meter and records the result.
func NewAnalyzeMeterJob(meterID string, opts AnalysisOptions) amboy.Job {
	j := makeAnalyzeMeterJob()
	// Every ten minutes at most
	timestamp := util.RoundPartOfHour(10)
	j.SetID(fmt.Sprintf("%s.%s.%s", j.JobType.Name, meterID, timestamp.Format("2006-01-02T15:04")))
	j.MeterID = meterID
	j.Options = opts
	return j
}

func (j *analyzeMeterJob) Run(ctx context.Context) {
	defer j.MarkComplete()

	if j.env == nil {
		j.env = baseload.GetEnvironment()
	}
	if j.env == nil {
		j.AddError(errors.New("cannot analyze meter without an environment"))
		return
	}

	series := &model.EnergySeries{ID: j.MeterID}
	series.Setup(j.env)
	if err := series.Find(ctx); err != nil {
		j.AddError(errors.Wrapf(err, "problem loading consumption for meter '%s'", j.MeterID))
		return
	}

	analyzer, err := perf.NewAnalyzer(j.Options.AnalyzerOptions())
	if err != nil {
		j.AddError(errors.Wrap(err, "invalid analysis options"))
		return
	}

	analysis, err := analyzer.Analyze(series.Values())
	if err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message":      "could not analyze meter",
			"job":          j.ID(),
			"meter":        j.MeterID,
			"length":       len(series.Points),
			"period":       j.Options.Period,
			"insufficient": perf.IsInsufficientData(err),
		}))
		j.AddError(err)
		return
	}

	result, err := model.CreateChangePointAnalysis(j.MeterID, series.Timestamps(), analysis)
	if err != nil {
		j.AddError(errors.WithStack(err))
		return
	}
	result.Setup(j.env)
	if err = result.Save(ctx); err != nil {
		j.AddError(err)
		return
	}

	msg := message.Fields{
		"message":  "completed change point analysis",
		"job":      j.ID(),
		"meter":    j.MeterID,
		"analysis": result.ID,
		"found":    result.Found,
		"length":   result.SeriesLength,
	}
	if result.ChangePoint != nil {
		msg["index"] = result.ChangePoint.Index
		msg["timestamp"] = result.ChangePoint.Timestamp
		msg["reduction"] = result.ChangePoint.Reduction
	}
	grip.Info(msg)
}
