package parser

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/evergreen-ci/baseload/perf"
	"github.com/pkg/errors"
)

const (
	DefaultDateColumn  = "datestamp"
	DefaultValueColumn = "energy"
	DefaultDateFormat  = "2006-01-02 15:04:05"
)

// fallbackDateFormats are tried, in order, when a datestamp does not match
// the configured layout.
var fallbackDateFormats = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"}

// CSVOptions describes the layout of a readings file.
type CSVOptions struct {
	DateColumn  string
	ValueColumn string
	DateFormat  string
	// Location is applied to datestamps without a zone. Defaults to UTC.
	Location  *time.Location
	Delimiter rune
}

// Validate fills in defaults for unset options.
func (o *CSVOptions) Validate() error {
	if o.DateColumn == "" {
		o.DateColumn = DefaultDateColumn
	}
	if o.ValueColumn == "" {
		o.ValueColumn = DefaultValueColumn
	}
	if o.DateColumn == o.ValueColumn {
		return errors.Errorf("date and value columns must differ, both are '%s'", o.DateColumn)
	}
	if o.DateFormat == "" {
		o.DateFormat = DefaultDateFormat
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	return nil
}

// ReadEnergyCSV parses a headed CSV of datestamps and energy readings. The
// result is sorted by time, and readings sharing a timestamp are summed.
func ReadEnergyCSV(r io.Reader, opts CSVOptions) ([]perf.Reading, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid csv options")
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, "problem reading csv header")
	}

	dateIdx, valueIdx := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.Trim(name, "\"\ufeff"))
		switch {
		case strings.EqualFold(name, opts.DateColumn):
			dateIdx = i
		case strings.EqualFold(name, opts.ValueColumn):
			valueIdx = i
		}
	}
	if dateIdx == -1 {
		return nil, errors.Errorf("csv has no '%s' column", opts.DateColumn)
	}
	if valueIdx == -1 {
		return nil, errors.Errorf("csv has no '%s' column", opts.ValueColumn)
	}

	byTime := map[int64]int{}
	readings := []perf.Reading{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "problem reading csv")
		}
		line, _ := reader.FieldPos(0)

		if isBlank(record) {
			continue
		}
		if len(record) <= dateIdx || len(record) <= valueIdx {
			return nil, errors.Errorf("line %d: expected at least %d fields, found %d", line, maxInt(dateIdx, valueIdx)+1, len(record))
		}

		ts, err := parseDatestamp(strings.TrimSpace(record[dateIdx]), opts)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		raw := strings.TrimSpace(record[valueIdx])
		if raw == "" {
			return nil, errors.Errorf("line %d: missing value for %s", line, ts.Format(time.RFC3339))
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid value '%s'", line, raw)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, errors.Errorf("line %d: value '%s' is not a finite number", line, raw)
		}

		key := ts.UnixNano()
		if idx, ok := byTime[key]; ok {
			readings[idx].Value += value
			continue
		}
		byTime[key] = len(readings)
		readings = append(readings, perf.Reading{Timestamp: ts, Value: value})
	}

	if len(readings) == 0 {
		return nil, errors.New("csv contains no readings")
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})

	return readings, nil
}

func parseDatestamp(in string, opts CSVOptions) (time.Time, error) {
	if ts, err := time.ParseInLocation(opts.DateFormat, in, opts.Location); err == nil {
		return ts.UTC(), nil
	}
	for _, layout := range fallbackDateFormats {
		if ts, err := time.ParseInLocation(layout, in, opts.Location); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("could not parse datestamp '%s' with layout '%s'", in, opts.DateFormat)
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
