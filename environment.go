package baseload

import (
	"context"
	"os"
	"sync"

	"github.com/evergreen-ci/pail"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	globalEnv   Environment
	globalMutex sync.RWMutex
)

// GetEnvironment returns the process-wide environment, which is nil until
// SetEnvironment is called.
func GetEnvironment() Environment {
	globalMutex.RLock()
	defer globalMutex.RUnlock()

	return globalEnv
}

// SetEnvironment replaces the process-wide environment.
func SetEnvironment(env Environment) {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	globalEnv = env
}

// Environment objects provide access to shared configuration and state, in
// a way that you can isolate and test for.
type Environment interface {
	GetConf() *Configuration

	// GetQueue retrieves the application's shared queue, which is cached
	// for easy access from within units or inside of requests or command
	// line operations.
	GetQueue() amboy.Queue

	GetClient() *mongo.Client
	GetDB() *mongo.Database

	// GetBucket returns the blob storage holding uploaded readings.
	GetBucket(context.Context) (pail.Bucket, error)

	Close(context.Context) error
}

// NewEnvironment validates the configuration, creates a database client,
// and a local queue that is started on first use by the service.
func NewEnvironment(ctx context.Context, name string, conf *Configuration) (Environment, error) {
	if conf == nil {
		return nil, errors.New("cannot create an environment without a configuration")
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	env := &envState{
		name: name,
		conf: conf,
	}

	var err error
	opts := options.Client().ApplyURI(conf.MongoDBURI).SetConnectTimeout(conf.MongoDBDialTimeout)
	env.client, err = mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "problem connecting to '%s'", conf.MongoDBURI)
	}

	env.queue = queue.NewLocalLimitedSize(conf.NumWorkers, 1024)
	grip.Info(message.Fields{
		"message": "configured local queue",
		"env":     name,
		"workers": conf.NumWorkers,
		"db":      conf.DatabaseName,
	})

	return env, nil
}

type envState struct {
	name   string
	queue  amboy.Queue
	client *mongo.Client
	conf   *Configuration
	mutex  sync.RWMutex
}

func (e *envState) GetConf() *Configuration {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	// copy the struct
	out := &Configuration{}
	*out = *e.conf

	return out
}

func (e *envState) GetQueue() amboy.Queue {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.queue
}

func (e *envState) GetClient() *mongo.Client {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.client
}

func (e *envState) GetDB() *mongo.Database {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.client == nil {
		return nil
	}

	return e.client.Database(e.conf.DatabaseName)
}

func (e *envState) GetBucket(ctx context.Context) (pail.Bucket, error) {
	e.mutex.RLock()
	path := e.conf.DataPath
	e.mutex.RUnlock()

	if path == "" {
		return nil, errors.New("no data path configured")
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, errors.Wrapf(err, "problem creating data directory '%s'", path)
	}

	bucket, err := pail.NewLocalBucket(pail.LocalOptions{Path: path})
	if err != nil {
		return nil, errors.Wrap(err, "problem creating local bucket")
	}
	if err = bucket.Check(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	return bucket, nil
}

func (e *envState) Close(ctx context.Context) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	catcher := grip.NewBasicCatcher()
	if e.queue != nil && e.queue.Info().Started {
		e.queue.Close(ctx)
	}
	if e.client != nil {
		catcher.Add(errors.Wrap(e.client.Disconnect(ctx), "problem disconnecting from the database"))
	}

	return catcher.Resolve()
}
