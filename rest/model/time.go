package model

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// APITimeFormat is the layout of every time in the API.
const APITimeFormat = "2006-01-02T15:04:05.000Z"

// APITime is a time that is always rendered in UTC with millisecond
// precision. The zero time renders as null.
type APITime time.Time

// NewTime returns t as an APITime in UTC truncated to milliseconds.
func NewTime(t time.Time) APITime {
	return APITime(t.UTC().Truncate(time.Millisecond))
}

// Time returns the underlying time.
func (t APITime) Time() time.Time { return time.Time(t) }

func (t APITime) MarshalJSON() ([]byte, error) {
	if time.Time(t).IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(time.Time(t).UTC().Format(APITimeFormat))
}

func (t *APITime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = APITime(time.Time{})
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "time must be a string")
	}

	parsed, err := time.ParseInLocation(time.RFC3339Nano, s, time.UTC)
	if err != nil {
		return errors.Wrapf(err, "problem parsing time '%s'", s)
	}
	*t = NewTime(parsed)

	return nil
}

// MarshalYAML renders the time as a string in reports.
func (t APITime) MarshalYAML() (interface{}, error) {
	if time.Time(t).IsZero() {
		return nil, nil
	}
	return time.Time(t).UTC().Format(APITimeFormat), nil
}
