package model

import (
	"context"
	"time"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnergySeries is the evenly spaced consumption history of one meter.
type EnergySeries struct {
	ID        string         `bson:"_id" json:"meter_id" yaml:"meter_id"`
	Interval  time.Duration  `bson:"interval" json:"interval" yaml:"interval"`
	Points    []perf.Reading `bson:"points" json:"points" yaml:"points"`
	Filled    []int          `bson:"filled,omitempty" json:"filled,omitempty" yaml:"filled,omitempty"`
	UpdatedAt time.Time      `bson:"updated_at" json:"updated_at" yaml:"updated_at"`

	env       baseload.Environment
	populated bool
}

var (
	energySeriesIDKey        = bsonutil.MustHaveTag(EnergySeries{}, "ID")
	energySeriesIntervalKey  = bsonutil.MustHaveTag(EnergySeries{}, "Interval")
	energySeriesPointsKey    = bsonutil.MustHaveTag(EnergySeries{}, "Points")
	energySeriesFilledKey    = bsonutil.MustHaveTag(EnergySeries{}, "Filled")
	energySeriesUpdatedAtKey = bsonutil.MustHaveTag(EnergySeries{}, "UpdatedAt")
)

// CreateEnergySeries builds a series for meterID from resampled readings.
func CreateEnergySeries(meterID string, interval time.Duration, resampled *perf.Resampled) *EnergySeries {
	points := make([]perf.Reading, len(resampled.Values))
	for i := range points {
		points[i] = perf.Reading{Timestamp: resampled.Timestamps[i], Value: resampled.Values[i]}
	}

	return &EnergySeries{
		ID:        meterID,
		Interval:  interval,
		Points:    points,
		Filled:    resampled.Filled,
		UpdatedAt: time.Now().UTC(),
		populated: true,
	}
}

// Setup sets the environment. The environment is required for numerous
// functions on EnergySeries.
func (s *EnergySeries) Setup(e baseload.Environment) { s.env = e }

// IsNil returns if the series is populated or not.
func (s *EnergySeries) IsNil() bool { return !s.populated }

// Values returns the consumption values in time order.
func (s *EnergySeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Timestamps returns the start of each interval in time order.
func (s *EnergySeries) Timestamps() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Timestamp
	}
	return out
}

// Find searches the database for the series with the receiver's ID.
func (s *EnergySeries) Find(ctx context.Context) error {
	if s.env == nil {
		return errors.New("cannot find with a nil environment")
	}
	if s.ID == "" {
		return errors.New("cannot find a series without a meter id")
	}

	s.populated = false
	err := s.env.GetDB().Collection(energySeriesCollection).FindOne(ctx, bson.M{energySeriesIDKey: s.ID}).Decode(s)
	if ResultsNotFound(err) {
		return errors.Wrapf(err, "could not find energy series for meter '%s'", s.ID)
	} else if err != nil {
		return errors.Wrapf(err, "problem finding energy series for meter '%s'", s.ID)
	}

	s.populated = true

	return nil
}

// Save upserts the series, replacing any previous history for the meter.
func (s *EnergySeries) Save(ctx context.Context) error {
	if !s.populated {
		return errors.New("cannot save unpopulated energy series")
	}
	if s.env == nil {
		return errors.New("cannot save with a nil environment")
	}
	if s.ID == "" {
		return errors.New("cannot save a series without a meter id")
	}

	s.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			energySeriesIntervalKey:  s.Interval,
			energySeriesPointsKey:    s.Points,
			energySeriesFilledKey:    s.Filled,
			energySeriesUpdatedAtKey: s.UpdatedAt,
		},
	}
	result, err := s.env.GetDB().Collection(energySeriesCollection).UpdateOne(ctx, bson.M{energySeriesIDKey: s.ID}, update, options.Update().SetUpsert(true))
	grip.DebugWhen(err == nil, message.Fields{
		"collection": energySeriesCollection,
		"id":         s.ID,
		"points":     len(s.Points),
		"result":     result,
		"op":         "save energy series",
	})

	return errors.Wrapf(err, "problem saving energy series for meter '%s'", s.ID)
}
