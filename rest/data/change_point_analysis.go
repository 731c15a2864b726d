package data

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	dbmodel "github.com/evergreen-ci/baseload/model"
	"github.com/evergreen-ci/baseload/rest/model"
	"github.com/evergreen-ci/baseload/units"
	"github.com/evergreen-ci/baseload/util"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/amboy"
	"github.com/pkg/errors"
)

/////////////////////////////
// DBConnector Implementation
/////////////////////////////

// ScheduleAnalysis queues an analysis of the meter's stored history. A
// request for a meter that already has an analysis queued in the current
// window returns the queued job.
func (dbc *DBConnector) ScheduleAnalysis(ctx context.Context, meterID string, opts units.AnalysisOptions) (*model.APIJob, error) {
	if _, err := dbc.FindEnergySeries(ctx, meterID); err != nil {
		return nil, err
	}

	j := units.NewAnalyzeMeterJob(meterID, opts)
	if err := amboy.EnqueueUniqueJob(ctx, dbc.env.GetQueue(), j); err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrapf(err, "problem queueing analysis for meter '%s'", meterID).Error(),
		}
	}

	return model.NewAPIJob(j.ID(), j.Type().Name), nil
}

// FindChangePointAnalysisByID returns the stored analysis with the given id.
func (dbc *DBConnector) FindChangePointAnalysisByID(ctx context.Context, id string) (*model.APIChangePointAnalysis, error) {
	analysis := &dbmodel.ChangePointAnalysis{ID: id}
	analysis.Setup(dbc.env)
	if err := analysis.Find(ctx); err != nil {
		if dbmodel.ResultsNotFound(err) {
			return nil, gimlet.ErrorResponse{
				StatusCode: http.StatusNotFound,
				Message:    fmt.Sprintf("change point analysis '%s' not found", id),
			}
		}
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrapf(err, "problem finding change point analysis '%s'", id).Error(),
		}
	}

	return importAnalysis(analysis)
}

// FindChangePointAnalysesByMeter returns the meter's analyses created within
// the time range, newest first.
func (dbc *DBConnector) FindChangePointAnalysesByMeter(ctx context.Context, meterID string, tr util.TimeRange, limit int) ([]model.APIChangePointAnalysis, error) {
	analyses, err := dbmodel.FindChangePointAnalyses(ctx, dbc.env, meterID, tr, limit)
	if err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrapf(err, "problem finding change point analyses for meter '%s'", meterID).Error(),
		}
	}

	return importAnalyses(analyses)
}

func importAnalysis(analysis *dbmodel.ChangePointAnalysis) (*model.APIChangePointAnalysis, error) {
	apiAnalysis := &model.APIChangePointAnalysis{}
	if err := apiAnalysis.Import(*analysis); err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrap(err, "corrupt data").Error(),
		}
	}
	return apiAnalysis, nil
}

func importAnalyses(analyses []dbmodel.ChangePointAnalysis) ([]model.APIChangePointAnalysis, error) {
	out := make([]model.APIChangePointAnalysis, len(analyses))
	for i := range analyses {
		if err := out[i].Import(analyses[i]); err != nil {
			return nil, gimlet.ErrorResponse{
				StatusCode: http.StatusInternalServerError,
				Message:    errors.Wrap(err, "corrupt data").Error(),
			}
		}
	}
	return out, nil
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

// ScheduleAnalysis records an analysis job for a cached meter.
func (mc *MockConnector) ScheduleAnalysis(ctx context.Context, meterID string, opts units.AnalysisOptions) (*model.APIJob, error) {
	if _, err := mc.FindEnergySeries(ctx, meterID); err != nil {
		return nil, err
	}

	return mc.schedule(units.NewAnalyzeMeterJob(meterID, opts)), nil
}

// FindChangePointAnalysisByID returns the cached analysis with the given id.
func (mc *MockConnector) FindChangePointAnalysisByID(_ context.Context, id string) (*model.APIChangePointAnalysis, error) {
	analysis, ok := mc.CachedAnalyses[id]
	if !ok {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("change point analysis '%s' not found", id),
		}
	}

	return importAnalysis(&analysis)
}

// FindChangePointAnalysesByMeter returns the meter's cached analyses created
// within the time range, newest first.
func (mc *MockConnector) FindChangePointAnalysesByMeter(_ context.Context, meterID string, tr util.TimeRange, limit int) ([]model.APIChangePointAnalysis, error) {
	analyses := []dbmodel.ChangePointAnalysis{}
	for _, analysis := range mc.CachedAnalyses {
		if analysis.MeterID == meterID && tr.Check(analysis.CreatedAt) {
			analyses = append(analyses, analysis)
		}
	}
	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].CreatedAt.After(analyses[j].CreatedAt)
	})
	if limit > 0 && len(analyses) > limit {
		analyses = analyses[:limit]
	}

	return importAnalyses(analyses)
}
