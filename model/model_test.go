package model

import (
	"context"
	"testing"
	"time"

	"github.com/evergreen-ci/baseload"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const testDBName = "baseload_model_test"

// newTestEnv returns an environment backed by a local database, skipping the
// test when no server is reachable.
func newTestEnv(ctx context.Context, t *testing.T) baseload.Environment {
	env, err := baseload.NewEnvironment(ctx, "test", &baseload.Configuration{
		DatabaseName:       testDBName,
		NumWorkers:         1,
		MongoDBDialTimeout: time.Second,
	})
	require.NoError(t, err)

	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err = env.GetClient().Ping(pingCtx, readpref.Primary()); err != nil {
		_ = env.Close(ctx)
		t.Skipf("no database available: %s", err)
	}

	t.Cleanup(func() {
		require.NoError(t, env.GetDB().Drop(ctx))
		require.NoError(t, env.Close(ctx))
	})

	return env
}
