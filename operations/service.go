package operations

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/rest"
	"github.com/evergreen-ci/baseload/util"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Service returns the ./baseload service sub-command object, which is
// responsible for starting the REST service and its background workers.
func Service() cli.Command {
	return cli.Command{
		Name:  "service",
		Usage: "run the baseload api service",
		Flags: baseFlags(dbFlags(
			cli.StringFlag{
				Name:  joinFlagNames(configFlag, "c"),
				Usage: "path to a YAML configuration file, values from flags that are set take precedence",
			},
			cli.IntFlag{
				Name:   joinFlagNames(portFlag, "p"),
				Usage:  "specify a port to run the service on",
				Value:  3000,
				EnvVar: "BASELOAD_SERVICE_PORT",
			})...),
		Before: requireFileExists(configFlag),
		Action: func(c *cli.Context) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			conf, err := serviceConfiguration(c)
			if err != nil {
				return errors.WithStack(err)
			}

			env, err := baseload.NewEnvironment(ctx, "baseload-service", conf)
			if err != nil {
				return errors.Wrap(err, "problem setting up environment")
			}
			baseload.SetEnvironment(env)
			defer func() {
				grip.Warning(env.Close(context.Background()))
			}()

			service := &rest.Service{
				Port:        c.Int(portFlag),
				Prefix:      "rest",
				Environment: env,
			}

			if err = service.Validate(); err != nil {
				return errors.Wrap(err, "problem validating service")
			}

			grip.Noticef("starting baseload service on :%d", c.Int(portFlag))
			if err = service.Start(ctx); err != nil {
				return errors.Wrap(err, "problem running service")
			}

			grip.Info("completed service, terminating.")
			return nil
		},
	}
}

// serviceConfiguration reads the configuration file, if any, and applies
// the database and worker flags on top of it. With a file, flags only take
// precedence when set explicitly or when the file leaves the value empty.
func serviceConfiguration(c *cli.Context) (*baseload.Configuration, error) {
	conf := &baseload.Configuration{}
	fromFile := c.String(configFlag) != ""
	if fromFile {
		if err := util.ReadFileYAML(c.String(configFlag), conf); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	override := func(name string) bool { return !fromFile || c.IsSet(name) }

	if override(dbURIFlag) || conf.MongoDBURI == "" {
		conf.MongoDBURI = c.String(dbURIFlag)
	}
	if override(dbNameFlag) || conf.DatabaseName == "" {
		conf.DatabaseName = c.String(dbNameFlag)
	}
	if override(numWorkersFlag) || conf.NumWorkers == 0 {
		conf.NumWorkers = c.Int(numWorkersFlag)
	}
	if override(dataPathFlag) || conf.DataPath == "" {
		conf.DataPath = c.String(dataPathFlag)
	}

	return conf, errors.Wrap(conf.Validate(), "invalid configuration")
}
