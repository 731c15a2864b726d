package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"
)

func TestTimeMarshal(t *testing.T) {
	timeAsString := "\"2019-04-06T19:53:46.404Z\""
	timeAsTime := time.Date(2019, time.April, 6, 19, 53, 46, 404000000, time.UTC)

	t.Run("SameTimeZone", func(t *testing.T) {
		res, err := json.Marshal(NewTime(timeAsTime))
		require.NoError(t, err)
		assert.Equal(t, timeAsString, string(res))
	})
	t.Run("DifferentTimeZone", func(t *testing.T) {
		res, err := json.Marshal(NewTime(timeAsTime.In(time.FixedZone("east", 3600))))
		require.NoError(t, err)
		assert.Equal(t, timeAsString, string(res))
	})
	t.Run("Zero", func(t *testing.T) {
		res, err := json.Marshal(APITime{})
		require.NoError(t, err)
		assert.Equal(t, "null", string(res))
	})
	t.Run("YAML", func(t *testing.T) {
		res, err := yaml.Marshal(map[string]APITime{"at": NewTime(timeAsTime)})
		require.NoError(t, err)
		assert.Contains(t, string(res), "2019-04-06T19:53:46.404Z")
	})
}

func TestTimeUnmarshal(t *testing.T) {
	timeAsTime := time.Date(2019, time.April, 6, 19, 53, 46, 404000000, time.UTC)

	t.Run("NonNull", func(t *testing.T) {
		res := APITime{}
		require.NoError(t, json.Unmarshal([]byte("\"2019-04-06T19:53:46.404Z\""), &res))
		assert.Equal(t, NewTime(timeAsTime), res)
	})
	t.Run("Offset", func(t *testing.T) {
		res := APITime{}
		require.NoError(t, json.Unmarshal([]byte("\"2019-04-06T21:53:46.404+02:00\""), &res))
		assert.True(t, timeAsTime.Equal(res.Time()))
	})
	t.Run("Null", func(t *testing.T) {
		res := NewTime(timeAsTime)
		require.NoError(t, json.Unmarshal([]byte("null"), &res))
		assert.True(t, res.Time().IsZero())
	})
	t.Run("Invalid", func(t *testing.T) {
		res := APITime{}
		assert.Error(t, json.Unmarshal([]byte("\"last tuesday\""), &res))
		assert.Error(t, json.Unmarshal([]byte("12"), &res))
	})
}
