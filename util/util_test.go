package util

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"
)

func TestFindPartMin(t *testing.T) {
	now := time.Date(2020, time.March, 3, 14, 37, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2020, time.March, 3, 14, 30, 0, 0, time.UTC), findPartMin(now, 10))
	assert.Equal(t, time.Date(2020, time.March, 3, 14, 0, 0, 0, time.UTC), findPartMin(now, 0))
	assert.Equal(t, time.Date(2020, time.March, 3, 14, 0, 0, 0, time.UTC), findPartMin(now, 45))
}

func TestTimeRange(t *testing.T) {
	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	tr := TimeRange{StartAt: start, EndAt: end}
	assert.True(t, tr.IsValid())
	assert.False(t, tr.IsZero())
	assert.True(t, tr.Check(start))
	assert.True(t, tr.Check(end))
	assert.False(t, tr.Check(end.Add(time.Second)))
	assert.False(t, tr.Check(start.Add(-time.Second)))

	open := TimeRange{StartAt: start}
	assert.True(t, open.IsValid())
	assert.True(t, open.Check(end.Add(1000*time.Hour)))
	assert.True(t, TimeRange{}.Check(start))

	assert.False(t, TimeRange{StartAt: end, EndAt: start}.IsValid())
}

func TestParseTimeRange(t *testing.T) {
	tr, err := ParseTimeRange("2020-01-01", "2020-02-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), tr.StartAt)
	assert.Equal(t, time.Date(2020, time.February, 1, 0, 0, 0, 0, time.UTC), tr.EndAt)

	tr, err = ParseTimeRange("", "")
	require.NoError(t, err)
	assert.True(t, tr.IsZero())

	_, err = ParseTimeRange("yesterday", "")
	assert.Error(t, err)
	_, err = ParseTimeRange("2020-02-01", "2020-01-01")
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	data := map[string]int{"index": 5}

	jsonPath := filepath.Join(dir, "report.json")
	require.NoError(t, WriteReport(jsonPath, data))
	raw, err := ioutil.ReadFile(jsonPath)
	require.NoError(t, err)
	out := map[string]int{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, data, out)

	yamlPath := filepath.Join(dir, "report.yaml")
	require.NoError(t, WriteReport(yamlPath, data))
	raw, err = ioutil.ReadFile(yamlPath)
	require.NoError(t, err)
	out = map[string]int{}
	require.NoError(t, yaml.Unmarshal(raw, &out))
	assert.Equal(t, data, out)
}

func TestReadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.yaml")
	assert.False(t, FileExists(path))
	assert.Error(t, ReadFileYAML(path, &struct{}{}))

	require.NoError(t, ioutil.WriteFile(path, []byte("name: meter\n"), 0644))
	assert.True(t, FileExists(path))

	out := struct {
		Name string `yaml:"name"`
	}{}
	require.NoError(t, ReadFileYAML(path, &out))
	assert.Equal(t, "meter", out.Name)
}
