package perf

import (
	"github.com/pkg/errors"
)

// AnalyzerOptions configures an Analyzer.
type AnalyzerOptions struct {
	// Period is the number of samples in a seasonal cycle. Zero disables
	// seasonal adjustment.
	Period  int
	Penalty Penalty
}

// Validate checks the options and fills in defaults.
func (o *AnalyzerOptions) Validate() error {
	if o.Period < 0 {
		return errors.Errorf("period must not be negative, not %d", o.Period)
	}
	if o.Period == 1 {
		return errors.New("period must be zero (no seasonality) or at least 2")
	}
	return errors.Wrap(o.Penalty.Validate(), "invalid penalty")
}

// Analysis is the result of running the full pipeline over one series.
type Analysis struct {
	// Decomposition is nil when seasonal adjustment is disabled.
	Decomposition *Decomposition
	// Deseasonalized is the series the detector ran on.
	Deseasonalized []float64
	// Profile is the RSS reduction for each candidate split.
	Profile []float64
	// Shift is nil when no significant change was found.
	Shift *MeanShift
	Info  AlgorithmInfo
}

// Found reports whether the analysis detected a change point.
func (a *Analysis) Found() bool { return a != nil && a.Shift != nil }

// Analyzer removes seasonality from a series and then looks for a single
// shift in its mean.
type Analyzer struct {
	opts     AnalyzerOptions
	detector *AMOCDetector
}

// NewAnalyzer constructs an Analyzer from validated options.
func NewAnalyzer(opts AnalyzerOptions) (*Analyzer, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	detector, err := NewAMOCDetector(opts.Penalty)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &Analyzer{opts: opts, detector: detector}, nil
}

// Options returns the validated options.
func (a *Analyzer) Options() AnalyzerOptions { return a.opts }

// Analyze runs decomposition and detection over values. Indexes in the
// result correspond to indexes in values.
func (a *Analyzer) Analyze(values []float64) (*Analysis, error) {
	out := &Analysis{Info: a.detector.Info()}

	if a.opts.Period == 0 {
		out.Deseasonalized = append([]float64{}, values...)
	} else {
		adjusted, d, err := Deseasonalize(values, a.opts.Period)
		if err != nil {
			return nil, errors.Wrap(err, "problem removing seasonality")
		}
		out.Deseasonalized = adjusted
		out.Decomposition = d
	}

	profile, shift, err := a.detector.profileAndDetect(out.Deseasonalized)
	if err != nil {
		return nil, errors.Wrap(err, "problem detecting change point")
	}
	out.Profile = profile
	out.Shift = shift

	return out, nil
}
