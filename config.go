package baseload

import (
	"time"

	"github.com/evergreen-ci/baseload/parser"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/baseload/util"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// Configuration holds the settings shared by the service and the command
// line tools. It can be read from a YAML file with LoadConfiguration.
type Configuration struct {
	MongoDBURI         string        `yaml:"mongodb_uri"`
	DatabaseName       string        `yaml:"database_name"`
	MongoDBDialTimeout time.Duration `yaml:"mongodb_dial_timeout"`
	NumWorkers         int           `yaml:"num_workers"`
	// DataPath is the root of the local bucket that stores uploaded
	// readings.
	DataPath string               `yaml:"data_path"`
	Analysis AnalysisConfiguration `yaml:"analysis"`
}

// AnalysisConfiguration holds the defaults applied to every analysis that
// does not override them.
type AnalysisConfiguration struct {
	Period       int           `yaml:"period"`
	Interval     time.Duration `yaml:"interval"`
	Aggregation  string        `yaml:"aggregation"`
	TrimPartial  bool          `yaml:"trim_partial"`
	Penalty      string        `yaml:"penalty"`
	PenaltyValue float64       `yaml:"penalty_value"`
	DateColumn   string        `yaml:"date_column"`
	ValueColumn  string        `yaml:"value_column"`
	DateFormat   string        `yaml:"date_format"`
}

const (
	// DefaultPeriod is one year of weekly samples.
	DefaultPeriod = 52

	defaultDialTimeout = 2 * time.Second
)

// LoadConfiguration reads a YAML configuration file and validates it.
func LoadConfiguration(path string) (*Configuration, error) {
	conf := &Configuration{}
	if err := util.ReadFileYAML(path, conf); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration in '%s'", path)
	}

	return conf, nil
}

// Validate checks the configuration and fills in defaults for unset
// values.
func (c *Configuration) Validate() error {
	catcher := grip.NewBasicCatcher()

	if c.MongoDBURI == "" {
		c.MongoDBURI = defaultMongoDBURI
	}
	if c.DatabaseName == "" {
		c.DatabaseName = defaultDatabaseName
	}
	if c.MongoDBDialTimeout <= 0 {
		c.MongoDBDialTimeout = defaultDialTimeout
	}
	if c.NumWorkers < 1 {
		catcher.Add(errors.New("must specify a valid number of amboy workers"))
	}

	catcher.Add(c.Analysis.Validate())

	return catcher.Resolve()
}

// Validate checks the analysis defaults and fills in unset values.
func (c *AnalysisConfiguration) Validate() error {
	catcher := grip.NewBasicCatcher()

	if c.Period == 0 {
		c.Period = DefaultPeriod
	}
	if c.Period < 2 {
		catcher.Errorf("period must be at least 2, not %d", c.Period)
	}
	if c.Interval == 0 {
		c.Interval = perf.DefaultResampleInterval
	}
	if c.Interval < 0 {
		catcher.Errorf("resample interval must be positive, not %s", c.Interval)
	}
	if c.Aggregation == "" {
		c.Aggregation = string(perf.AggregationSum)
	}
	catcher.Add(perf.AggregationType(c.Aggregation).Validate())

	penalty, err := perf.ParsePenaltyType(c.Penalty)
	catcher.Add(err)
	if err == nil {
		c.Penalty = string(penalty)
		p := c.PenaltyOptions()
		catcher.Add(p.Validate())
	}

	return catcher.Resolve()
}

// PenaltyOptions returns the configured detection threshold.
func (c *AnalysisConfiguration) PenaltyOptions() perf.Penalty {
	return perf.Penalty{
		Type:  perf.PenaltyType(c.Penalty),
		Value: c.PenaltyValue,
	}
}

// ResampleOptions returns the configured binning of raw readings.
func (c *AnalysisConfiguration) ResampleOptions() perf.ResampleOptions {
	return perf.ResampleOptions{
		Interval:    c.Interval,
		Aggregation: perf.AggregationType(c.Aggregation),
		TrimPartial: c.TrimPartial,
	}
}

// AnalyzerOptions returns the configured pipeline options.
func (c *AnalysisConfiguration) AnalyzerOptions() perf.AnalyzerOptions {
	return perf.AnalyzerOptions{
		Period:  c.Period,
		Penalty: c.PenaltyOptions(),
	}
}

// CSVOptions returns the configured layout of uploaded readings files.
func (c *AnalysisConfiguration) CSVOptions() parser.CSVOptions {
	return parser.CSVOptions{
		DateColumn:  c.DateColumn,
		ValueColumn: c.ValueColumn,
		DateFormat:  c.DateFormat,
	}
}
