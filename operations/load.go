package operations

import (
	"context"
	"time"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/model"
	"github.com/evergreen-ci/baseload/units"
	"github.com/evergreen-ci/baseload/util"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Load returns the sub-command that stores a readings file as the
// consumption history of a meter, and optionally analyzes it.
func Load() cli.Command {
	return cli.Command{
		Name:  "load",
		Usage: "store a CSV of meter readings in the database",
		Flags: analysisFlags(dbFlags(addMeterFlag(addOutputPath(addPathFlag(
			cli.StringFlag{
				Name:  joinFlagNames(configFlag, "c"),
				Usage: "path to a YAML configuration file for the database connection",
			},
			cli.BoolFlag{
				Name:  analyzeFlag,
				Usage: "analyze the meter after storing its readings",
			})...)...)...)...),
		Before: mergeBeforeFuncs(
			checkAll(
				requireStringFlag(pathFlagName),
				requireStringFlag(meterFlagName),
			),
			requireFileExists(pathFlagName),
			requireFileExists(configFlag),
		),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			opts, err := analyzerOptions(c)
			if err != nil {
				return errors.WithStack(err)
			}

			conf, err := loadConfiguration(c)
			if err != nil {
				return errors.WithStack(err)
			}
			env, err := baseload.NewEnvironment(ctx, "baseload-load", conf)
			if err != nil {
				return errors.Wrap(err, "problem setting up environment")
			}
			baseload.SetEnvironment(env)
			defer func() {
				grip.Warning(env.Close(ctx))
			}()

			meterID := c.String(meterFlagName)
			series, resampled, err := loadSeries(ctx, c)
			if err != nil {
				return errors.WithStack(err)
			}

			stored := model.CreateEnergySeries(meterID, c.Duration(intervalFlag), resampled)
			stored.Setup(env)
			if err = stored.Save(ctx); err != nil {
				return errors.WithStack(err)
			}
			grip.Info(message.Fields{
				"message":  "stored meter readings",
				"meter":    meterID,
				"file":     series.File,
				"readings": series.Readings,
				"points":   len(resampled.Values),
			})

			if !c.Bool(analyzeFlag) {
				return nil
			}

			start := time.Now()
			j := units.NewAnalyzeMeterJob(meterID, units.AnalysisOptions{Period: opts.Period, Penalty: opts.Penalty})
			j.Run(ctx)
			if err = j.Error(); err != nil {
				return errors.Wrapf(err, "problem analyzing meter '%s'", meterID)
			}

			analyses, err := model.FindChangePointAnalyses(ctx, env, meterID, util.TimeRange{StartAt: start.Add(-time.Second)}, 1)
			if err != nil {
				return errors.WithStack(err)
			}
			if len(analyses) == 0 {
				return errors.Errorf("no analysis recorded for meter '%s'", meterID)
			}

			return errors.WithStack(writeOutput(c.String(outputFlagName), analyses[0]))
		},
	}
}

func loadConfiguration(c *cli.Context) (*baseload.Configuration, error) {
	if path := c.String(configFlag); path != "" {
		return baseload.LoadConfiguration(path)
	}

	conf := &baseload.Configuration{
		MongoDBURI:   c.String(dbURIFlag),
		DatabaseName: c.String(dbNameFlag),
		NumWorkers:   1,
	}
	return conf, errors.Wrap(conf.Validate(), "invalid configuration")
}
