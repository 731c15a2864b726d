package model

import (
	"context"
	"fmt"
	"time"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/baseload/util"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChangePointAnalysis records the outcome of one mean-shift analysis of a
// meter's consumption. When Found is false the change fields are zero.
type ChangePointAnalysis struct {
	ID           string                `bson:"_id" json:"id" yaml:"id"`
	MeterID      string                `bson:"meter_id" json:"meter_id" yaml:"meter_id"`
	Period       int                   `bson:"period" json:"period" yaml:"period"`
	SeriesLength int                   `bson:"series_length" json:"series_length" yaml:"series_length"`
	SeriesStart  time.Time             `bson:"series_start" json:"series_start" yaml:"series_start"`
	SeriesEnd    time.Time             `bson:"series_end" json:"series_end" yaml:"series_end"`
	Algorithm    AlgorithmInfo         `bson:"algorithm" json:"algorithm" yaml:"algorithm"`
	Found        bool                  `bson:"found" json:"found" yaml:"found"`
	ChangePoint  *ChangePoint          `bson:"change_point,omitempty" json:"change_point,omitempty" yaml:"change_point,omitempty"`
	Segments     []perf.SegmentSummary `bson:"segments" json:"segments" yaml:"segments"`
	CreatedAt    time.Time             `bson:"created_at" json:"created_at" yaml:"created_at"`

	env       baseload.Environment
	populated bool
}

// ChangePoint is a detected mean shift mapped back to the time it occurred.
type ChangePoint struct {
	Index      int       `bson:"index" json:"index" yaml:"index"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp" yaml:"timestamp"`
	Statistic  float64   `bson:"statistic" json:"statistic" yaml:"statistic"`
	Threshold  float64   `bson:"threshold" json:"threshold" yaml:"threshold"`
	MeanBefore float64   `bson:"mean_before" json:"mean_before" yaml:"mean_before"`
	MeanAfter  float64   `bson:"mean_after" json:"mean_after" yaml:"mean_after"`
	// Reduction is the fractional drop in mean consumption; negative
	// values are increases.
	Reduction float64 `bson:"reduction" json:"reduction" yaml:"reduction"`
}

type AlgorithmInfo struct {
	Name    string            `bson:"name" json:"name" yaml:"name"`
	Version int               `bson:"version" json:"version" yaml:"version"`
	Options []AlgorithmOption `bson:"options" json:"options" yaml:"options"`
}

type AlgorithmOption struct {
	Name  string      `bson:"name" json:"name" yaml:"name"`
	Value interface{} `bson:"value" json:"value" yaml:"value"`
}

var (
	changePointAnalysisIDKey        = bsonutil.MustHaveTag(ChangePointAnalysis{}, "ID")
	changePointAnalysisMeterIDKey   = bsonutil.MustHaveTag(ChangePointAnalysis{}, "MeterID")
	changePointAnalysisCreatedAtKey = bsonutil.MustHaveTag(ChangePointAnalysis{}, "CreatedAt")
)

// ImportAlgorithmInfo converts the detector's description for storage.
func ImportAlgorithmInfo(info perf.AlgorithmInfo) AlgorithmInfo {
	out := AlgorithmInfo{
		Name:    info.Name,
		Version: info.Version,
		Options: make([]AlgorithmOption, len(info.Options)),
	}
	for i, opt := range info.Options {
		out.Options[i] = AlgorithmOption{Name: opt.Name, Value: opt.Value}
	}
	return out
}

// CreateChangePointAnalysis records analysis for meterID. The timestamps
// must be parallel to the analyzed values.
func CreateChangePointAnalysis(meterID string, timestamps []time.Time, analysis *perf.Analysis) (*ChangePointAnalysis, error) {
	if analysis == nil {
		return nil, errors.New("cannot record a nil analysis")
	}
	if len(timestamps) != len(analysis.Deseasonalized) {
		return nil, errors.Errorf("have %d timestamps for %d values", len(timestamps), len(analysis.Deseasonalized))
	}

	now := time.Now().UTC()
	out := &ChangePointAnalysis{
		ID:           fmt.Sprintf("%s.%d", meterID, now.UnixNano()),
		MeterID:      meterID,
		SeriesLength: len(timestamps),
		Algorithm:    ImportAlgorithmInfo(analysis.Info),
		Found:        analysis.Found(),
		Segments:     perf.Segments(analysis.Deseasonalized, analysis.Shift),
		CreatedAt:    now,
		populated:    true,
	}
	if analysis.Decomposition != nil {
		out.Period = analysis.Decomposition.Period
	}
	if len(timestamps) > 0 {
		out.SeriesStart = timestamps[0]
		out.SeriesEnd = timestamps[len(timestamps)-1]
	}
	if analysis.Shift != nil {
		out.ChangePoint = &ChangePoint{
			Index:      analysis.Shift.Index,
			Timestamp:  timestamps[analysis.Shift.Index],
			Statistic:  analysis.Shift.Statistic,
			Threshold:  analysis.Shift.Threshold,
			MeanBefore: analysis.Shift.MeanBefore,
			MeanAfter:  analysis.Shift.MeanAfter,
			Reduction:  Reduction(analysis.Shift.MeanBefore, analysis.Shift.MeanAfter),
		}
	}

	return out, nil
}

// Reduction returns the fractional drop from before to after, or 0 when
// before is 0.
func Reduction(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (before - after) / before
}

// Setup sets the environment. The environment is required for numerous
// functions on ChangePointAnalysis.
func (a *ChangePointAnalysis) Setup(e baseload.Environment) { a.env = e }

// IsNil returns if the analysis is populated or not.
func (a *ChangePointAnalysis) IsNil() bool { return !a.populated }

// Find searches the database for the analysis with the receiver's ID.
func (a *ChangePointAnalysis) Find(ctx context.Context) error {
	if a.env == nil {
		return errors.New("cannot find with a nil environment")
	}
	if a.ID == "" {
		return errors.New("cannot find an analysis without an id")
	}

	a.populated = false
	err := a.env.GetDB().Collection(changePointAnalysisCollection).FindOne(ctx, bson.M{changePointAnalysisIDKey: a.ID}).Decode(a)
	if ResultsNotFound(err) {
		return errors.Wrapf(err, "could not find change point analysis '%s'", a.ID)
	} else if err != nil {
		return errors.Wrapf(err, "problem finding change point analysis '%s'", a.ID)
	}

	a.populated = true

	return nil
}

// Save inserts the analysis. Analyses are immutable once saved.
func (a *ChangePointAnalysis) Save(ctx context.Context) error {
	if !a.populated {
		return errors.New("cannot save unpopulated change point analysis")
	}
	if a.env == nil {
		return errors.New("cannot save with a nil environment")
	}

	result, err := a.env.GetDB().Collection(changePointAnalysisCollection).InsertOne(ctx, a)
	grip.DebugWhen(err == nil, message.Fields{
		"collection":   changePointAnalysisCollection,
		"id":           a.ID,
		"meter":        a.MeterID,
		"found":        a.Found,
		"insertResult": result,
		"op":           "save new change point analysis",
	})

	return errors.Wrapf(err, "problem saving change point analysis '%s'", a.ID)
}

// FindChangePointAnalyses returns the analyses of meterID created within
// the time range, newest first. A limit of zero or less returns all of them.
func FindChangePointAnalyses(ctx context.Context, env baseload.Environment, meterID string, tr util.TimeRange, limit int) ([]ChangePointAnalysis, error) {
	if env == nil {
		return nil, errors.New("cannot find with a nil environment")
	}

	filter := bson.M{changePointAnalysisMeterIDKey: meterID}
	created := bson.M{}
	if !tr.StartAt.IsZero() {
		created["$gte"] = tr.StartAt
	}
	if !tr.EndAt.IsZero() {
		created["$lte"] = tr.EndAt
	}
	if len(created) > 0 {
		filter[changePointAnalysisCreatedAtKey] = created
	}

	opts := options.Find().SetSort(bson.D{{Key: changePointAnalysisCreatedAtKey, Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := env.GetDB().Collection(changePointAnalysisCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding change point analyses for meter '%s'", meterID)
	}
	defer cur.Close(ctx)

	out := []ChangePointAnalysis{}
	if err = cur.All(ctx, &out); err != nil {
		return nil, errors.Wrapf(err, "problem decoding change point analyses for meter '%s'", meterID)
	}
	for i := range out {
		out[i].env = env
		out[i].populated = true
	}

	return out, nil
}
