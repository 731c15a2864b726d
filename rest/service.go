package rest

import (
	"context"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/rest/data"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/amboy"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

type Service struct {
	Port        int
	Prefix      string
	Environment baseload.Environment

	// internal settings
	queue amboy.Queue
	app   *gimlet.APIApp
	sc    data.Connector
}

func (s *Service) Validate() error {
	if s.Environment == nil {
		return errors.New("must specify an environment")
	}

	if s.queue == nil {
		s.queue = s.Environment.GetQueue()
		if s.queue == nil {
			return errors.New("no queue defined")
		}
	}

	if s.sc == nil {
		s.sc = data.CreateNewDBConnector(s.Environment)
	}

	if s.app == nil {
		s.app = gimlet.NewApp()
	}

	if s.Port == 0 {
		s.Port = 3000
	}

	if err := s.app.SetPort(s.Port); err != nil {
		return errors.WithStack(err)
	}

	if s.Prefix != "" {
		s.app.SetPrefix(s.Prefix)
	}

	return nil
}

func (s *Service) Start(ctx context.Context) error {
	if s.queue == nil || s.app == nil {
		return errors.New("application is not valid")
	}

	s.addRoutes()

	if err := s.queue.Start(ctx); err != nil {
		return errors.Wrap(err, "problem starting queue")
	}

	if err := s.app.Resolve(); err != nil {
		return errors.Wrap(err, "problem resolving routes")
	}

	grip.Info(message.Fields{
		"message":  "starting service",
		"port":     s.Port,
		"prefix":   s.Prefix,
		"revision": baseload.BuildRevision,
	})

	return s.app.Run(ctx)
}

func (s *Service) addRoutes() {
	s.app.AddRoute("/status").Version(1).Get().RouteHandler(makeStatus(s.sc))
	s.app.AddRoute("/analyze").Version(1).Post().RouteHandler(makeAnalyze(s.sc))
	s.app.AddRoute("/analyses/{id}").Version(1).Get().RouteHandler(makeGetAnalysisByID(s.sc))
	s.app.AddRoute("/meters/{meter_id}/readings").Version(1).Post().RouteHandler(makeSaveMeterReadings(s.sc))
	s.app.AddRoute("/meters/{meter_id}/readings").Version(1).Get().RouteHandler(makeGetMeterReadings(s.sc))
	s.app.AddRoute("/meters/{meter_id}/upload").Version(1).Post().RouteHandler(makeUploadMeterReadings(s.sc))
	s.app.AddRoute("/meters/{meter_id}/analyze").Version(1).Post().RouteHandler(makeAnalyzeMeter(s.sc))
	s.app.AddRoute("/meters/{meter_id}/analyses").Version(1).Get().RouteHandler(makeGetMeterAnalyses(s.sc))
}
