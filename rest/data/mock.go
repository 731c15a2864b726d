package data

import (
	"context"

	"github.com/evergreen-ci/baseload"
	dbmodel "github.com/evergreen-ci/baseload/model"
	"github.com/evergreen-ci/baseload/rest/model"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/amboy"
)

// MockConnector is a struct that implements the Connector interface with
// in-memory state, for testing the route handlers.
type MockConnector struct {
	Analysis       baseload.AnalysisConfiguration
	CachedSeries   map[string]dbmodel.EnergySeries
	CachedAnalyses map[string]dbmodel.ChangePointAnalysis
	// Uploads holds uploaded files by key.
	Uploads map[string][]byte
	// Jobs holds every job the connector was asked to schedule.
	Jobs []amboy.Job
}

func (mc *MockConnector) GetAnalysisDefaults() baseload.AnalysisConfiguration {
	return mc.Analysis
}

// GetStatus reports the number of scheduled jobs as pending.
func (mc *MockConnector) GetStatus(_ context.Context) (*model.APIStatus, error) {
	return &model.APIStatus{
		Revision: utility.ToStringPtr(baseload.BuildRevision),
		Queue: &model.APIQueueStats{
			Pending: len(mc.Jobs),
			Total:   len(mc.Jobs),
		},
	}, nil
}
