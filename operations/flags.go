package operations

import (
	"strings"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/parser"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	configFlag     = "config"
	pathFlagName   = "path"
	outputFlagName = "output"
	meterFlagName  = "meter"
	analyzeFlag    = "analyze"

	numWorkersFlag = "workers"
	dataPathFlag   = "dataPath"
	portFlag       = "port"

	dbURIFlag  = "dbUri"
	dbNameFlag = "dbName"

	periodFlag       = "period"
	intervalFlag     = "interval"
	aggregationFlag  = "aggregation"
	trimPartialFlag  = "trim-partial"
	penaltyFlag      = "penalty"
	penaltyValueFlag = "penalty-value"

	dateColumnFlag  = "date-column"
	valueColumnFlag = "value-column"
	dateFormatFlag  = "date-format"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

func addPathFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(pathFlagName, "filename", "file", "f"),
		Usage: "path to a CSV file of meter readings",
	})
}

func addOutputPath(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(outputFlagName, "o"),
		Usage: "path to the report file, written as YAML for .yaml/.yml and JSON otherwise (default: standard output)",
	})
}

func addMeterFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  meterFlagName,
		Usage: "identifier of the meter the readings belong to",
	})
}

func csvFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  dateColumnFlag,
			Usage: "name of the CSV column holding reading times",
			Value: parser.DefaultDateColumn,
		},
		cli.StringFlag{
			Name:  valueColumnFlag,
			Usage: "name of the CSV column holding energy values",
			Value: parser.DefaultValueColumn,
		},
		cli.StringFlag{
			Name:  dateFormatFlag,
			Usage: "Go time layout of the date column",
			Value: parser.DefaultDateFormat,
		})
}

func resampleFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.DurationFlag{
			Name:  intervalFlag,
			Usage: "width of each resampled interval",
			Value: perf.DefaultResampleInterval,
		},
		cli.StringFlag{
			Name:  aggregationFlag,
			Usage: "how readings within an interval are combined: 'sum' or 'mean'",
			Value: string(perf.AggregationSum),
		},
		cli.BoolFlag{
			Name:  trimPartialFlag,
			Usage: "drop leading and trailing intervals with fewer readings than the fullest one",
		})
}

func periodFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.IntFlag{
		Name:  periodFlag,
		Usage: "number of intervals in a seasonal cycle, 0 disables seasonal adjustment",
		Value: baseload.DefaultPeriod,
	})
}

func penaltyFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:  penaltyFlag,
			Usage: "change point threshold rule: mbic, bic, aic, hannan-quinn, manual, or none",
			Value: string(perf.DefaultPenalty),
		},
		cli.Float64Flag{
			Name:  penaltyValueFlag,
			Usage: "threshold for the manual penalty",
		})
}

func analysisFlags(flags ...cli.Flag) []cli.Flag {
	return mergeFlags(flags, csvFlags(), resampleFlags(), periodFlags(), penaltyFlags())
}

func dbFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.StringFlag{
			Name:   dbURIFlag,
			Usage:  "specify a mongodb connection string",
			Value:  "mongodb://localhost:27017",
			EnvVar: "BASELOAD_MONGODB_URL",
		},
		cli.StringFlag{
			Name:   dbNameFlag,
			Usage:  "specify a database name to use",
			Value:  "baseload",
			EnvVar: "BASELOAD_DATABASE_NAME",
		})
}

func baseFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:  numWorkersFlag,
			Usage: "specify the number of worker jobs this process will have",
			Value: 2,
		},
		cli.StringFlag{
			Name:   dataPathFlag,
			Usage:  "specify a directory for storing uploaded readings",
			EnvVar: "BASELOAD_DATA_PATH",
			Value:  "baseload-data",
		})
}

////////////////////////////////////////////////////////////////////////
//
// Flag Readers

func csvOptions(c *cli.Context) parser.CSVOptions {
	return parser.CSVOptions{
		DateColumn:  c.String(dateColumnFlag),
		ValueColumn: c.String(valueColumnFlag),
		DateFormat:  c.String(dateFormatFlag),
	}
}

func resampleOptions(c *cli.Context) perf.ResampleOptions {
	return perf.ResampleOptions{
		Interval:    c.Duration(intervalFlag),
		Aggregation: perf.AggregationType(c.String(aggregationFlag)),
		TrimPartial: c.Bool(trimPartialFlag),
	}
}

func analyzerOptions(c *cli.Context) (perf.AnalyzerOptions, error) {
	penalty, err := perf.ParsePenaltyType(c.String(penaltyFlag))
	if err != nil {
		return perf.AnalyzerOptions{}, errors.WithStack(err)
	}

	opts := perf.AnalyzerOptions{
		Period: c.Int(periodFlag),
		Penalty: perf.Penalty{
			Type:  penalty,
			Value: c.Float64(penaltyValueFlag),
		},
	}

	return opts, errors.Wrap(opts.Validate(), "invalid analysis options")
}
