package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEnergyCSV(t *testing.T) {
	t.Run("DefaultColumns", func(t *testing.T) {
		in := strings.Join([]string{
			"datestamp,energy",
			"2019-01-07 01:00:00,2.5",
			"2019-01-07 00:00:00,1.5",
			"",
			"2019-01-07 02:00:00, 3",
		}, "\n")

		readings, err := ReadEnergyCSV(strings.NewReader(in), CSVOptions{})
		require.NoError(t, err)
		require.Len(t, readings, 3)
		assert.Equal(t, time.Date(2019, time.January, 7, 0, 0, 0, 0, time.UTC), readings[0].Timestamp)
		assert.Equal(t, 1.5, readings[0].Value)
		assert.Equal(t, 2.5, readings[1].Value)
		assert.Equal(t, 3.0, readings[2].Value)
	})
	t.Run("CustomColumnsAndOrder", func(t *testing.T) {
		in := "meter,kwh,when\nA,4,2019-01-07\nA,5,2019-01-08\n"
		readings, err := ReadEnergyCSV(strings.NewReader(in), CSVOptions{DateColumn: "when", ValueColumn: "kwh", DateFormat: "2006-01-02"})
		require.NoError(t, err)
		require.Len(t, readings, 2)
		assert.Equal(t, 4.0, readings[0].Value)
		assert.Equal(t, time.Date(2019, time.January, 8, 0, 0, 0, 0, time.UTC), readings[1].Timestamp)
	})
	t.Run("FallbackFormats", func(t *testing.T) {
		in := "datestamp,energy\n2019-01-07T00:00:00Z,1\n2019-01-08,2\n"
		readings, err := ReadEnergyCSV(strings.NewReader(in), CSVOptions{})
		require.NoError(t, err)
		assert.Len(t, readings, 2)
	})
	t.Run("Location", func(t *testing.T) {
		loc := time.FixedZone("EST", -5*3600)
		in := "datestamp,energy\n2019-01-07 00:00:00,1\n"
		readings, err := ReadEnergyCSV(strings.NewReader(in), CSVOptions{Location: loc})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2019, time.January, 7, 5, 0, 0, 0, time.UTC), readings[0].Timestamp)
	})
	t.Run("DuplicateTimestampsAreSummed", func(t *testing.T) {
		in := "datestamp,energy\n2019-01-07 00:00:00,1\n2019-01-07 00:00:00,2\n"
		readings, err := ReadEnergyCSV(strings.NewReader(in), CSVOptions{})
		require.NoError(t, err)
		require.Len(t, readings, 1)
		assert.Equal(t, 3.0, readings[0].Value)
	})
	t.Run("Semicolons", func(t *testing.T) {
		in := "datestamp;energy\n2019-01-07 00:00:00;1.25\n"
		readings, err := ReadEnergyCSV(strings.NewReader(in), CSVOptions{Delimiter: ';'})
		require.NoError(t, err)
		assert.Equal(t, 1.25, readings[0].Value)
	})
}

func TestReadEnergyCSVErrors(t *testing.T) {
	for name, test := range map[string]struct {
		in       string
		opts     CSVOptions
		contains string
	}{
		"Empty":         {in: "", contains: "empty"},
		"HeaderOnly":    {in: "datestamp,energy\n", contains: "no readings"},
		"NoDateColumn":  {in: "date,energy\n2019-01-07,1\n", contains: "datestamp"},
		"NoValueColumn": {in: "datestamp,kwh\n2019-01-07,1\n", contains: "energy"},
		"BadDate":       {in: "datestamp,energy\nlast tuesday,1\n", contains: "line 2"},
		"BadValue":      {in: "datestamp,energy\n2019-01-07,lots\n", contains: "lots"},
		"MissingValue":  {in: "datestamp,energy\n2019-01-07,\n", contains: "missing value"},
		"NaNValue":      {in: "datestamp,energy\n2019-01-07,10\n2019-01-08,NaN\n", contains: "line 3"},
		"InfiniteValue": {in: "datestamp,energy\n2019-01-07,+Inf\n", contains: "not a finite number"},
		"ShortRecord":   {in: "datestamp,energy\n2019-01-07\n", contains: "fields"},
		"SameColumns":   {in: "a,b\n", opts: CSVOptions{DateColumn: "a", ValueColumn: "a"}, contains: "differ"},
	} {
		t.Run(name, func(t *testing.T) {
			readings, err := ReadEnergyCSV(strings.NewReader(test.in), test.opts)
			require.Error(t, err)
			assert.Nil(t, readings)
			assert.Contains(t, err.Error(), test.contains)
		})
	}
}
