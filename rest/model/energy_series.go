package model

import (
	"time"

	dbmodel "github.com/evergreen-ci/baseload/model"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"
)

// APIReading is a single meter reading.
type APIReading struct {
	Timestamp APITime `json:"timestamp"`
	Value     float64 `json:"value"`
}

// APIReadingsRequest uploads raw readings for a meter. Unset resample
// settings fall back to the service defaults.
type APIReadingsRequest struct {
	Readings    []APIReading `json:"readings"`
	Interval    *string      `json:"interval,omitempty"`
	Aggregation *string      `json:"aggregation,omitempty"`
	TrimPartial *bool        `json:"trim_partial,omitempty"`
}

// Export returns the readings and the resample options for the request.
func (r *APIReadingsRequest) Export(defaults perf.ResampleOptions) ([]perf.Reading, perf.ResampleOptions, error) {
	opts := defaults
	if r.Interval != nil {
		interval, err := time.ParseDuration(utility.FromStringPtr(r.Interval))
		if err != nil {
			return nil, opts, errors.Wrapf(err, "invalid interval '%s'", *r.Interval)
		}
		opts.Interval = interval
	}
	if r.Aggregation != nil {
		opts.Aggregation = perf.AggregationType(utility.FromStringPtr(r.Aggregation))
	}
	if r.TrimPartial != nil {
		opts.TrimPartial = *r.TrimPartial
	}
	if err := opts.Validate(); err != nil {
		return nil, opts, errors.Wrap(err, "invalid resample options")
	}

	if len(r.Readings) == 0 {
		return nil, opts, errors.New("no readings given")
	}
	readings := make([]perf.Reading, len(r.Readings))
	for i, reading := range r.Readings {
		if reading.Timestamp.Time().IsZero() {
			return nil, opts, errors.Errorf("reading %d has no timestamp", i)
		}
		readings[i] = perf.Reading{Timestamp: reading.Timestamp.Time(), Value: reading.Value}
	}

	return readings, opts, nil
}

// APIEnergySeries is the stored, evenly spaced consumption of a meter.
type APIEnergySeries struct {
	MeterID   *string      `json:"meter_id"`
	Interval  *string      `json:"interval"`
	Points    []APIReading `json:"points"`
	Filled    []int        `json:"filled"`
	UpdatedAt APITime      `json:"updated_at"`
}

// Import transforms an EnergySeries into an APIEnergySeries.
func (s *APIEnergySeries) Import(i interface{}) error {
	switch r := i.(type) {
	case dbmodel.EnergySeries:
		s.MeterID = utility.ToStringPtr(r.ID)
		s.Interval = utility.ToStringPtr(r.Interval.String())
		s.Points = make([]APIReading, len(r.Points))
		for i, p := range r.Points {
			s.Points[i] = APIReading{Timestamp: NewTime(p.Timestamp), Value: p.Value}
		}
		s.Filled = r.Filled
		s.UpdatedAt = NewTime(r.UpdatedAt)
	case *dbmodel.EnergySeries:
		return s.Import(*r)
	default:
		return errors.New("incorrect type when converting EnergySeries type")
	}
	return nil
}

func (s *APIEnergySeries) Export() (interface{}, error) {
	return nil, errors.New("Export is not implemented for APIEnergySeries")
}
