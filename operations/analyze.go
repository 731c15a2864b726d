package operations

import (
	"context"
	"path/filepath"
	"time"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/parser"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/baseload/rest/model"
	"github.com/evergreen-ci/baseload/util"
	"github.com/evergreen-ci/pail"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// seriesReport describes the evenly spaced series derived from a readings
// file.
type seriesReport struct {
	File        string          `json:"file" yaml:"file"`
	Readings    int             `json:"readings" yaml:"readings"`
	Interval    string          `json:"interval" yaml:"interval"`
	Aggregation string          `json:"aggregation" yaml:"aggregation"`
	Filled      []int           `json:"filled,omitempty" yaml:"filled,omitempty"`
	Timestamps  []model.APITime `json:"timestamps" yaml:"timestamps"`
	Values      []float64       `json:"values" yaml:"values"`
}

type analysisReport struct {
	Series   seriesReport             `json:"series" yaml:"series"`
	Analysis *model.APIAnalysisReport `json:"analysis" yaml:"analysis"`
}

type decompositionReport struct {
	Series        seriesReport            `json:"series" yaml:"series"`
	Decomposition *model.APIDecomposition `json:"decomposition" yaml:"decomposition"`
}

// Analyze returns the sub-command that runs change point analysis over a
// readings file.
func Analyze() cli.Command {
	return cli.Command{
		Name:  "analyze",
		Usage: "detect a shift in mean consumption in a CSV of meter readings",
		Flags: analysisFlags(addOutputPath(addPathFlag()...)...),
		Before: mergeBeforeFuncs(
			setFlagOrFirstPositional(pathFlagName),
			requireFileExists(pathFlagName),
		),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			opts, err := analyzerOptions(c)
			if err != nil {
				return errors.WithStack(err)
			}

			series, resampled, err := loadSeries(ctx, c)
			if err != nil {
				return errors.WithStack(err)
			}

			analyzer, err := perf.NewAnalyzer(opts)
			if err != nil {
				return errors.WithStack(err)
			}
			analysis, err := analyzer.Analyze(resampled.Values)
			if err != nil {
				return errors.Wrapf(err, "problem analyzing '%s'", series.File)
			}

			report, err := model.NewAPIAnalysisReport(analysis, resampled.Timestamps)
			if err != nil {
				return errors.WithStack(err)
			}

			msg := message.Fields{
				"message": "completed analysis",
				"file":    series.File,
				"points":  len(resampled.Values),
				"period":  opts.Period,
				"penalty": opts.Penalty.Type,
				"found":   report.Found,
			}
			if report.ChangePoint != nil {
				msg["index"] = report.ChangePoint.Index
				msg["reduction"] = report.ChangePoint.Reduction
				if report.ChangePoint.Timestamp != nil {
					msg["date"] = report.ChangePoint.Timestamp.Time().Format(baseload.ShortDateFormat)
				}
			}
			grip.Info(msg)

			return errors.WithStack(writeOutput(c.String(outputFlagName), &analysisReport{
				Series:   series,
				Analysis: report,
			}))
		},
	}
}

// Decompose returns the sub-command that prints the seasonal decomposition
// of a readings file.
func Decompose() cli.Command {
	return cli.Command{
		Name:  "decompose",
		Usage: "split a CSV of meter readings into seasonal, trend, and residual components",
		Flags: mergeFlags(addOutputPath(addPathFlag()...), csvFlags(), resampleFlags(), periodFlags()),
		Before: mergeBeforeFuncs(
			setFlagOrFirstPositional(pathFlagName),
			requireFileExists(pathFlagName),
		),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			series, resampled, err := loadSeries(ctx, c)
			if err != nil {
				return errors.WithStack(err)
			}

			d, err := perf.Decompose(resampled.Values, c.Int(periodFlag))
			if err != nil {
				return errors.Wrapf(err, "problem decomposing '%s'", series.File)
			}

			return errors.WithStack(writeOutput(c.String(outputFlagName), &decompositionReport{
				Series:        series,
				Decomposition: model.NewAPIDecomposition(d),
			}))
		},
	}
}

// loadSeries reads the file named by the path flag through a local bucket
// rooted at its directory, parses it, and resamples it.
func loadSeries(ctx context.Context, c *cli.Context) (seriesReport, *perf.Resampled, error) {
	path := c.String(pathFlagName)
	out := seriesReport{File: path}

	bucket, err := pail.NewLocalBucket(pail.LocalOptions{Path: filepath.Dir(path)})
	if err != nil {
		return out, nil, errors.Wrap(err, "problem opening readings directory")
	}

	file, err := bucket.Get(ctx, filepath.Base(path))
	if err != nil {
		return out, nil, errors.Wrapf(err, "problem opening '%s'", path)
	}
	defer file.Close()

	readings, err := parser.ReadEnergyCSV(file, csvOptions(c))
	if err != nil {
		return out, nil, errors.Wrapf(err, "problem parsing '%s'", path)
	}

	opts := resampleOptions(c)
	resampled, err := perf.Resample(readings, opts)
	if err != nil {
		return out, nil, errors.Wrapf(err, "problem resampling '%s'", path)
	}

	out.Readings = len(readings)
	out.Interval = opts.Interval.String()
	out.Aggregation = string(opts.Aggregation)
	out.Filled = resampled.Filled
	out.Values = resampled.Values
	out.Timestamps = apiTimes(resampled.Timestamps)

	grip.Debug(message.Fields{
		"message":  "loaded readings",
		"file":     path,
		"readings": len(readings),
		"points":   len(resampled.Values),
		"filled":   len(resampled.Filled),
	})

	return out, resampled, nil
}

func apiTimes(ts []time.Time) []model.APITime {
	out := make([]model.APITime, len(ts))
	for i := range ts {
		out[i] = model.NewTime(ts[i])
	}
	return out
}

func writeOutput(fn string, data interface{}) error {
	if fn == "" {
		return util.PrintJSON(data)
	}
	return util.WriteReport(fn, data)
}
