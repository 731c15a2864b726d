package data

import (
	"context"
	"io"

	"github.com/evergreen-ci/baseload"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/baseload/rest/model"
	"github.com/evergreen-ci/baseload/units"
	"github.com/evergreen-ci/baseload/util"
)

// Connector abstracts the link between baseload's service and API layers,
// allowing for changes in the service architecture without forcing changes to
// the API.
type Connector interface {
	// GetAnalysisDefaults returns the settings applied to requests that
	// do not override them.
	GetAnalysisDefaults() baseload.AnalysisConfiguration

	//////////////
	// EnergySeries
	//////////////
	// SaveReadings resamples the readings and replaces the stored
	// consumption history of the meter.
	SaveReadings(context.Context, string, []perf.Reading, perf.ResampleOptions) (*model.APIEnergySeries, error)
	// UploadReadings stores a CSV of readings for the meter and schedules
	// a job to ingest it, optionally followed by an analysis.
	UploadReadings(context.Context, string, io.Reader, bool, units.AnalysisOptions) (*model.APIJob, error)
	// FindEnergySeries returns the stored consumption history of the
	// meter.
	FindEnergySeries(context.Context, string) (*model.APIEnergySeries, error)

	/////////////////////
	// ChangePointAnalysis
	/////////////////////
	// ScheduleAnalysis queues an analysis of the meter's stored history.
	ScheduleAnalysis(context.Context, string, units.AnalysisOptions) (*model.APIJob, error)
	// FindChangePointAnalysisByID returns the stored analysis with the
	// given id.
	FindChangePointAnalysisByID(context.Context, string) (*model.APIChangePointAnalysis, error)
	// FindChangePointAnalysesByMeter returns the meter's analyses created
	// within the time range, newest first, up to the limit.
	FindChangePointAnalysesByMeter(context.Context, string, util.TimeRange, int) ([]model.APIChangePointAnalysis, error)

	// GetStatus returns the build revision and queue state.
	GetStatus(context.Context) (*model.APIStatus, error)
}
