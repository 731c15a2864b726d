package rest

import (
	"context"
	"testing"

	"github.com/evergreen-ci/baseload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseloadAnalysisDefaults() baseload.AnalysisConfiguration {
	conf := baseload.AnalysisConfiguration{}
	if err := conf.Validate(); err != nil {
		panic(err)
	}
	return conf
}

func TestServiceValidate(t *testing.T) {
	t.Run("NoEnvironment", func(t *testing.T) {
		s := &Service{}
		assert.Error(t, s.Validate())
	})
	t.Run("Defaults", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		env, err := baseload.NewEnvironment(ctx, "rest-test", &baseload.Configuration{NumWorkers: 1})
		require.NoError(t, err)
		defer func() { assert.NoError(t, env.Close(ctx)) }()

		s := &Service{Environment: env}
		require.NoError(t, s.Validate())
		assert.Equal(t, 3000, s.Port)
		assert.NotNil(t, s.queue)
		assert.NotNil(t, s.sc)
		assert.NotNil(t, s.app)
	})
}
