package data

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	dbmodel "github.com/evergreen-ci/baseload/model"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/baseload/rest/model"
	"github.com/evergreen-ci/baseload/units"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/amboy"
	"github.com/pkg/errors"
)

/////////////////////////////
// DBConnector Implementation
/////////////////////////////

// SaveReadings resamples the readings and replaces the stored consumption
// history of the meter.
func (dbc *DBConnector) SaveReadings(ctx context.Context, meterID string, readings []perf.Reading, opts perf.ResampleOptions) (*model.APIEnergySeries, error) {
	series, err := createSeries(meterID, readings, opts)
	if err != nil {
		return nil, err
	}

	series.Setup(dbc.env)
	if err = series.Save(ctx); err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrapf(err, "problem saving readings for meter '%s'", meterID).Error(),
		}
	}

	return importSeries(series)
}

// UploadReadings stores the file in the environment's bucket and queues a
// job to ingest it.
func (dbc *DBConnector) UploadReadings(ctx context.Context, meterID string, r io.Reader, analyze bool, opts units.AnalysisOptions) (*model.APIJob, error) {
	bucket, err := dbc.env.GetBucket(ctx)
	if err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrap(err, "problem opening upload storage").Error(),
		}
	}

	key := uploadKey(meterID)
	if err = bucket.Put(ctx, key, r); err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrapf(err, "problem storing upload for meter '%s'", meterID).Error(),
		}
	}

	j := units.NewIngestReadingsJob(meterID, key, analyze, opts)
	if err = dbc.env.GetQueue().Put(ctx, j); err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrapf(err, "problem queueing ingestion for meter '%s'", meterID).Error(),
		}
	}

	return model.NewAPIJob(j.ID(), j.Type().Name), nil
}

// FindEnergySeries returns the stored consumption history of the meter.
func (dbc *DBConnector) FindEnergySeries(ctx context.Context, meterID string) (*model.APIEnergySeries, error) {
	series := &dbmodel.EnergySeries{ID: meterID}
	series.Setup(dbc.env)
	if err := series.Find(ctx); err != nil {
		if dbmodel.ResultsNotFound(err) {
			return nil, gimlet.ErrorResponse{
				StatusCode: http.StatusNotFound,
				Message:    fmt.Sprintf("no readings stored for meter '%s'", meterID),
			}
		}
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrapf(err, "problem finding readings for meter '%s'", meterID).Error(),
		}
	}

	return importSeries(series)
}

func createSeries(meterID string, readings []perf.Reading, opts perf.ResampleOptions) (*dbmodel.EnergySeries, error) {
	if err := opts.Validate(); err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    err.Error(),
		}
	}
	resampled, err := perf.Resample(readings, opts)
	if err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    errors.Wrapf(err, "problem resampling readings for meter '%s'", meterID).Error(),
		}
	}

	return dbmodel.CreateEnergySeries(meterID, opts.Interval, resampled), nil
}

func importSeries(series *dbmodel.EnergySeries) (*model.APIEnergySeries, error) {
	apiSeries := &model.APIEnergySeries{}
	if err := apiSeries.Import(*series); err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrap(err, "corrupt data").Error(),
		}
	}
	return apiSeries, nil
}

func uploadKey(meterID string) string {
	return fmt.Sprintf("%s/%s.csv", meterID, time.Now().UTC().Format("20060102T150405.000000000"))
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

// SaveReadings resamples the readings and caches the series.
func (mc *MockConnector) SaveReadings(_ context.Context, meterID string, readings []perf.Reading, opts perf.ResampleOptions) (*model.APIEnergySeries, error) {
	series, err := createSeries(meterID, readings, opts)
	if err != nil {
		return nil, err
	}

	if mc.CachedSeries == nil {
		mc.CachedSeries = map[string]dbmodel.EnergySeries{}
	}
	mc.CachedSeries[meterID] = *series

	return importSeries(series)
}

// UploadReadings caches the file and records an ingestion job.
func (mc *MockConnector) UploadReadings(_ context.Context, meterID string, r io.Reader, analyze bool, opts units.AnalysisOptions) (*model.APIJob, error) {
	body, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    errors.Wrap(err, "problem reading upload").Error(),
		}
	}

	key := uploadKey(meterID)
	if mc.Uploads == nil {
		mc.Uploads = map[string][]byte{}
	}
	mc.Uploads[key] = body

	return mc.schedule(units.NewIngestReadingsJob(meterID, key, analyze, opts)), nil
}

// FindEnergySeries returns the cached series of the meter.
func (mc *MockConnector) FindEnergySeries(_ context.Context, meterID string) (*model.APIEnergySeries, error) {
	series, ok := mc.CachedSeries[meterID]
	if !ok {
		return nil, gimlet.ErrorResponse{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no readings stored for meter '%s'", meterID),
		}
	}

	return importSeries(&series)
}

func (mc *MockConnector) schedule(j amboy.Job) *model.APIJob {
	mc.Jobs = append(mc.Jobs, j)
	return model.NewAPIJob(j.ID(), j.Type().Name)
}
