package util

import (
	"time"

	"github.com/pkg/errors"
)

// TimeRange is an inclusive window of time. A zero bound is open.
type TimeRange struct {
	StartAt time.Time `bson:"start" json:"start" yaml:"start"`
	EndAt   time.Time `bson:"end" json:"end" yaml:"end"`
}

func (t TimeRange) Duration() time.Duration { return t.EndAt.Sub(t.StartAt) }
func (t TimeRange) IsZero() bool            { return t.EndAt.IsZero() && t.StartAt.IsZero() }

// IsValid is false when both bounds are set and the end precedes the start.
func (t TimeRange) IsValid() bool {
	return t.StartAt.IsZero() || t.EndAt.IsZero() || t.Duration() >= 0
}

// Check returns true if the given time is within the TimeRange (inclusive) and
// false otherwise.
func (t TimeRange) Check(ts time.Time) bool {
	if !t.StartAt.IsZero() && ts.Before(t.StartAt) {
		return false
	}
	if !t.EndAt.IsZero() && ts.After(t.EndAt) {
		return false
	}
	return true
}

// ParseTimeRange builds a range from two optional RFC3339 or date-only
// strings.
func ParseTimeRange(start, end string) (TimeRange, error) {
	var (
		out TimeRange
		err error
	)

	if start != "" {
		out.StartAt, err = parseTime(start)
		if err != nil {
			return TimeRange{}, errors.Wrap(err, "invalid start time")
		}
	}
	if end != "" {
		out.EndAt, err = parseTime(end)
		if err != nil {
			return TimeRange{}, errors.Wrap(err, "invalid end time")
		}
	}
	if !out.IsValid() {
		return TimeRange{}, errors.Errorf("time range end %s precedes start %s", end, start)
	}

	return out, nil
}

func parseTime(in string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, in); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02", in)
	return ts, errors.WithStack(err)
}
