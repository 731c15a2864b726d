package model

import (
	"math"
	"time"

	dbmodel "github.com/evergreen-ci/baseload/model"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"
)

// APIAnalyzeRequest is a series to analyze synchronously. Unset options
// fall back to the service defaults.
type APIAnalyzeRequest struct {
	Timestamps   []APITime `json:"timestamps,omitempty"`
	Values       []float64 `json:"values"`
	Period       *int      `json:"period,omitempty"`
	Penalty      *string   `json:"penalty,omitempty"`
	PenaltyValue *float64  `json:"penalty_value,omitempty"`
}

// Export returns the analyzer options for the request, filling unset values
// from defaults.
func (r *APIAnalyzeRequest) Export(defaults perf.AnalyzerOptions) (perf.AnalyzerOptions, error) {
	opts := defaults
	if r.Period != nil {
		opts.Period = *r.Period
	}
	if r.Penalty != nil {
		penalty, err := perf.ParsePenaltyType(*r.Penalty)
		if err != nil {
			return perf.AnalyzerOptions{}, errors.WithStack(err)
		}
		opts.Penalty.Type = penalty
	}
	if r.PenaltyValue != nil {
		opts.Penalty.Value = *r.PenaltyValue
	}

	if len(r.Timestamps) > 0 && len(r.Timestamps) != len(r.Values) {
		return perf.AnalyzerOptions{}, errors.Errorf("have %d timestamps for %d values", len(r.Timestamps), len(r.Values))
	}

	return opts, errors.Wrap(opts.Validate(), "invalid analysis options")
}

// ExportTimestamps returns the request timestamps, or nil when none were
// given.
func (r *APIAnalyzeRequest) ExportTimestamps() []time.Time {
	if len(r.Timestamps) == 0 {
		return nil
	}
	out := make([]time.Time, len(r.Timestamps))
	for i, ts := range r.Timestamps {
		out[i] = ts.Time()
	}
	return out
}

// APIAlgorithmInfo identifies the detector and its settings.
type APIAlgorithmInfo struct {
	Name    *string                `json:"name" yaml:"name"`
	Version int                    `json:"version" yaml:"version"`
	Options map[string]interface{} `json:"options" yaml:"options"`
}

func getAlgorithmInfo(info dbmodel.AlgorithmInfo) APIAlgorithmInfo {
	out := APIAlgorithmInfo{
		Name:    utility.ToStringPtr(info.Name),
		Version: info.Version,
		Options: map[string]interface{}{},
	}
	for _, opt := range info.Options {
		out.Options[opt.Name] = opt.Value
	}
	return out
}

// APIDecomposition is a seasonal decomposition. Positions where the trend
// is undefined are null.
type APIDecomposition struct {
	Period   int        `json:"period" yaml:"period"`
	Figures  []float64  `json:"figures" yaml:"figures"`
	Seasonal []float64  `json:"seasonal" yaml:"seasonal"`
	Trend    []*float64 `json:"trend" yaml:"trend"`
	Residual []*float64 `json:"residual" yaml:"residual"`
}

// NewAPIDecomposition converts d, replacing undefined values with nulls.
func NewAPIDecomposition(d *perf.Decomposition) *APIDecomposition {
	if d == nil {
		return nil
	}
	return &APIDecomposition{
		Period:   d.Period,
		Figures:  d.Figures,
		Seasonal: d.Seasonal,
		Trend:    nullable(d.Trend),
		Residual: nullable(d.Residual),
	}
}

func nullable(xs []float64) []*float64 {
	out := make([]*float64, len(xs))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) {
			continue
		}
		v := xs[i]
		out[i] = &v
	}
	return out
}

// APIChangePoint is a detected shift in mean consumption.
type APIChangePoint struct {
	Index      int      `json:"index" yaml:"index"`
	Timestamp  *APITime `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Statistic  float64  `json:"statistic" yaml:"statistic"`
	Threshold  float64  `json:"threshold" yaml:"threshold"`
	MeanBefore float64  `json:"mean_before" yaml:"mean_before"`
	MeanAfter  float64  `json:"mean_after" yaml:"mean_after"`
	Reduction  float64  `json:"reduction" yaml:"reduction"`
}

func getChangePoint(cp *dbmodel.ChangePoint) *APIChangePoint {
	if cp == nil {
		return nil
	}
	out := &APIChangePoint{
		Index:      cp.Index,
		Statistic:  cp.Statistic,
		Threshold:  cp.Threshold,
		MeanBefore: cp.MeanBefore,
		MeanAfter:  cp.MeanAfter,
		Reduction:  cp.Reduction,
	}
	if !cp.Timestamp.IsZero() {
		ts := NewTime(cp.Timestamp)
		out.Timestamp = &ts
	}
	return out
}

// APIAnalysisReport is the full result of analyzing one series: the
// decomposition, the adjusted series, the detection profile, and the change
// point, if any.
type APIAnalysisReport struct {
	Length         int                   `json:"length" yaml:"length"`
	Algorithm      APIAlgorithmInfo      `json:"algorithm" yaml:"algorithm"`
	Decomposition  *APIDecomposition     `json:"decomposition,omitempty" yaml:"decomposition,omitempty"`
	Deseasonalized []float64             `json:"deseasonalized" yaml:"deseasonalized"`
	Profile        []*float64            `json:"profile" yaml:"profile"`
	Found          bool                  `json:"found" yaml:"found"`
	ChangePoint    *APIChangePoint       `json:"change_point" yaml:"change_point"`
	Segments       []perf.SegmentSummary `json:"segments" yaml:"segments"`
}

// NewAPIAnalysisReport converts analysis. Timestamps are optional, but when
// given must be parallel to the analyzed series.
func NewAPIAnalysisReport(analysis *perf.Analysis, timestamps []time.Time) (*APIAnalysisReport, error) {
	if analysis == nil {
		return nil, errors.New("cannot report a nil analysis")
	}
	if len(timestamps) > 0 && len(timestamps) != len(analysis.Deseasonalized) {
		return nil, errors.Errorf("have %d timestamps for %d values", len(timestamps), len(analysis.Deseasonalized))
	}

	out := &APIAnalysisReport{
		Length:         len(analysis.Deseasonalized),
		Algorithm:      getAlgorithmInfo(dbmodel.ImportAlgorithmInfo(analysis.Info)),
		Decomposition:  NewAPIDecomposition(analysis.Decomposition),
		Deseasonalized: analysis.Deseasonalized,
		Profile:        nullable(analysis.Profile),
		Found:          analysis.Found(),
		Segments:       perf.Segments(analysis.Deseasonalized, analysis.Shift),
	}

	if shift := analysis.Shift; shift != nil {
		cp := &dbmodel.ChangePoint{
			Index:      shift.Index,
			Statistic:  shift.Statistic,
			Threshold:  shift.Threshold,
			MeanBefore: shift.MeanBefore,
			MeanAfter:  shift.MeanAfter,
			Reduction:  dbmodel.Reduction(shift.MeanBefore, shift.MeanAfter),
		}
		if len(timestamps) > 0 {
			cp.Timestamp = timestamps[shift.Index]
		}
		out.ChangePoint = getChangePoint(cp)
	}

	return out, nil
}

// APIChangePointAnalysis is a stored analysis of a meter.
type APIChangePointAnalysis struct {
	ID           *string               `json:"id"`
	MeterID      *string               `json:"meter_id"`
	Period       int                   `json:"period"`
	SeriesLength int                   `json:"series_length"`
	SeriesStart  APITime               `json:"series_start"`
	SeriesEnd    APITime               `json:"series_end"`
	Algorithm    APIAlgorithmInfo      `json:"algorithm"`
	Found        bool                  `json:"found"`
	ChangePoint  *APIChangePoint       `json:"change_point"`
	Segments     []perf.SegmentSummary `json:"segments"`
	CreatedAt    APITime               `json:"created_at"`
}

// Import transforms a ChangePointAnalysis into an APIChangePointAnalysis.
func (a *APIChangePointAnalysis) Import(i interface{}) error {
	switch r := i.(type) {
	case dbmodel.ChangePointAnalysis:
		a.ID = utility.ToStringPtr(r.ID)
		a.MeterID = utility.ToStringPtr(r.MeterID)
		a.Period = r.Period
		a.SeriesLength = r.SeriesLength
		a.SeriesStart = NewTime(r.SeriesStart)
		a.SeriesEnd = NewTime(r.SeriesEnd)
		a.Algorithm = getAlgorithmInfo(r.Algorithm)
		a.Found = r.Found
		a.ChangePoint = getChangePoint(r.ChangePoint)
		a.Segments = r.Segments
		a.CreatedAt = NewTime(r.CreatedAt)
	case *dbmodel.ChangePointAnalysis:
		return a.Import(*r)
	default:
		return errors.New("incorrect type when converting ChangePointAnalysis type")
	}
	return nil
}

func (a *APIChangePointAnalysis) Export() (interface{}, error) {
	return nil, errors.New("Export is not implemented for APIChangePointAnalysis")
}
