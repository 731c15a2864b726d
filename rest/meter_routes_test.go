package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	dbmodel "github.com/evergreen-ci/baseload/model"
	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/baseload/rest/data"
	"github.com/evergreen-ci/baseload/rest/model"
	"github.com/evergreen-ci/baseload/units"
	"github.com/evergreen-ci/baseload/util"
	"github.com/evergreen-ci/gimlet"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/suite"
)

type MeterHandlerSuite struct {
	sc data.MockConnector
	rh map[string]gimlet.RouteHandler

	suite.Suite
}

func TestMeterHandlerSuite(t *testing.T) {
	suite.Run(t, new(MeterHandlerSuite))
}

var weekOne = time.Date(2019, time.January, 7, 0, 0, 0, 0, time.UTC)

func (s *MeterHandlerSuite) SetupTest() {
	resampled := &perf.Resampled{}
	for i := 0; i < 10; i++ {
		resampled.Timestamps = append(resampled.Timestamps, weekOne.Add(time.Duration(i)*perf.DefaultResampleInterval))
		resampled.Values = append(resampled.Values, float64(100-i))
	}

	analyses := map[string]dbmodel.ChangePointAnalysis{}
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("building.%d", i)
		analyses[id] = dbmodel.ChangePointAnalysis{
			ID:        id,
			MeterID:   "building",
			Found:     i == 2,
			CreatedAt: time.Date(2020, time.March, i+1, 0, 0, 0, 0, time.UTC),
		}
	}
	analyses["other.0"] = dbmodel.ChangePointAnalysis{
		ID:        "other.0",
		MeterID:   "other",
		CreatedAt: time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	s.sc = data.MockConnector{
		Analysis: baseloadAnalysisDefaults(),
		CachedSeries: map[string]dbmodel.EnergySeries{
			"building": *dbmodel.CreateEnergySeries("building", perf.DefaultResampleInterval, resampled),
		},
		CachedAnalyses: analyses,
	}
	s.rh = map[string]gimlet.RouteHandler{
		"save":     makeSaveMeterReadings(&s.sc),
		"get":      makeGetMeterReadings(&s.sc),
		"upload":   makeUploadMeterReadings(&s.sc),
		"analyze":  makeAnalyzeMeter(&s.sc),
		"analyses": makeGetMeterAnalyses(&s.sc),
		"by_id":    makeGetAnalysisByID(&s.sc),
		"status":   makeStatus(&s.sc),
	}
}

func (s *MeterHandlerSuite) request(method, url, meterID, body string) *http.Request {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	s.Require().NoError(err)
	return gimlet.SetURLVars(req, map[string]string{"meter_id": meterID})
}

func (s *MeterHandlerSuite) TestSaveReadingsParse() {
	rh := s.rh["save"]
	body := `{"readings": [
		{"timestamp": "2019-01-07T00:00:00Z", "value": 1},
		{"timestamp": "2019-01-08T00:00:00Z", "value": 2}
	], "interval": "24h", "aggregation": "mean"}`
	s.Require().NoError(rh.Parse(context.TODO(), s.request(http.MethodPost, "/meters/new/readings", "new", body)))

	h := rh.(*meterSaveReadingsHandler)
	s.Equal("new", h.meterID)
	s.Len(h.readings, 2)
	s.Equal(24*time.Hour, h.opts.Interval)
	s.Equal(perf.AggregationMean, h.opts.Aggregation)

	for name, body := range map[string]string{
		"NoReadings":     `{"readings": []}`,
		"BadInterval":    `{"readings": [{"timestamp": "2019-01-07T00:00:00Z", "value": 1}], "interval": "weekly"}`,
		"BadAggregation": `{"readings": [{"timestamp": "2019-01-07T00:00:00Z", "value": 1}], "aggregation": "max"}`,
		"NoTimestamp":    `{"readings": [{"value": 1}]}`,
	} {
		s.Run(name, func() {
			s.Error(s.rh["save"].Parse(context.TODO(), s.request(http.MethodPost, "/meters/new/readings", "new", body)))
		})
	}

	s.Error(rh.Parse(context.TODO(), s.request(http.MethodPost, "/meters//readings", "", body)))
}

func (s *MeterHandlerSuite) TestSaveReadingsRun() {
	rh := s.rh["save"].(*meterSaveReadingsHandler)
	rh.meterID = "new"
	rh.opts = perf.ResampleOptions{Interval: 24 * time.Hour}
	for i := 0; i < 6; i++ {
		if i == 3 {
			continue
		}
		for hour := 0; hour < 24; hour += 12 {
			rh.readings = append(rh.readings, perf.Reading{
				Timestamp: weekOne.AddDate(0, 0, i).Add(time.Duration(hour) * time.Hour),
				Value:     5,
			})
		}
	}

	resp := rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusOK, resp.Status())

	series, ok := resp.Data().(*model.APIEnergySeries)
	s.Require().True(ok)
	s.Equal("new", utility.FromStringPtr(series.MeterID))
	s.Equal("24h0m0s", utility.FromStringPtr(series.Interval))
	s.Require().Len(series.Points, 6)
	s.Equal([]int{3}, series.Filled)
	for _, p := range series.Points {
		s.InDelta(10.0, p.Value, 1e-9)
	}

	cached, ok := s.sc.CachedSeries["new"]
	s.Require().True(ok)
	s.Len(cached.Points, 6)
}

func (s *MeterHandlerSuite) TestGetReadings() {
	rh := s.rh["get"].(*meterGetReadingsHandler)
	rh.meterID = "building"

	resp := rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusOK, resp.Status())
	series, ok := resp.Data().(*model.APIEnergySeries)
	s.Require().True(ok)
	s.Len(series.Points, 10)
	s.Equal(weekOne, series.Points[0].Timestamp.Time())

	rh.meterID = "DNE"
	resp = rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusNotFound, resp.Status())
}

func (s *MeterHandlerSuite) TestUpload() {
	rh := s.rh["upload"]
	csv := "datestamp,energy\n2019-01-07 00:00:00,4\n"
	req := s.request(http.MethodPost, "/meters/building/upload?analyze=true&period=0&penalty=bic", "building", csv)
	s.Require().NoError(rh.Parse(context.TODO(), req))

	h := rh.(*meterUploadHandler)
	s.True(h.analyze)
	s.Equal(units.AnalysisOptions{Penalty: perf.Penalty{Type: perf.PenaltyBIC}}, h.opts)

	resp := rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusOK, resp.Status())
	j, ok := resp.Data().(*model.APIJob)
	s.Require().True(ok)
	s.Equal("ingest-readings", utility.FromStringPtr(j.Type))

	s.Require().Len(s.sc.Uploads, 1)
	for key, body := range s.sc.Uploads {
		s.True(strings.HasPrefix(key, "building/"))
		s.Equal(csv, string(body))
	}
	s.Require().Len(s.sc.Jobs, 1)
	s.Equal(utility.FromStringPtr(j.ID), s.sc.Jobs[0].ID())

	for name, url := range map[string]string{
		"BadAnalyze": "/meters/building/upload?analyze=maybe",
		"BadPeriod":  "/meters/building/upload?period=weekly",
		"BadPenalty": "/meters/building/upload?penalty=aicc",
	} {
		s.Run(name, func() {
			s.Error(s.rh["upload"].Parse(context.TODO(), s.request(http.MethodPost, url, "building", csv)))
		})
	}
	s.Error(rh.Parse(context.TODO(), s.request(http.MethodPost, "/meters/building/upload", "building", "  \n")))
}

func (s *MeterHandlerSuite) TestAnalyzeMeter() {
	rh := s.rh["analyze"]
	s.Require().NoError(rh.Parse(context.TODO(), s.request(http.MethodPost, "/meters/building/analyze", "building", "")))

	h := rh.(*meterAnalyzeHandler)
	s.Equal(s.sc.Analysis.Period, h.opts.Period)
	s.Equal(perf.DefaultPenalty, h.opts.Penalty.Type)

	resp := rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusOK, resp.Status())
	j, ok := resp.Data().(*model.APIJob)
	s.Require().True(ok)
	s.Equal("analyze-meter", utility.FromStringPtr(j.Type))
	s.Len(s.sc.Jobs, 1)

	h.meterID = "DNE"
	resp = h.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusNotFound, resp.Status())
	s.Len(s.sc.Jobs, 1)

	s.Error(rh.Parse(context.TODO(), s.request(http.MethodPost, "/meters/building/analyze?period=1", "building", "")))
	s.Error(rh.Parse(context.TODO(), s.request(http.MethodPost, "/meters/building/analyze?penalty=manual&penalty_value=-2", "building", "")))
}

func (s *MeterHandlerSuite) TestGetAnalyses() {
	rh := s.rh["analyses"]
	url := "/meters/building/analyses?started_after=2020-03-02&limit=5"
	s.Require().NoError(rh.Parse(context.TODO(), s.request(http.MethodGet, url, "building", "")))

	h := rh.(*meterGetAnalysesHandler)
	s.Equal(5, h.limit)
	s.Equal(time.Date(2020, time.March, 2, 0, 0, 0, 0, time.UTC), h.interval.StartAt)
	s.True(h.interval.EndAt.IsZero())

	resp := rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusOK, resp.Status())
	analyses, ok := resp.Data().([]model.APIChangePointAnalysis)
	s.Require().True(ok)
	s.Require().Len(analyses, 2)
	s.Equal("building.2", utility.FromStringPtr(analyses[0].ID))
	s.Equal("building.1", utility.FromStringPtr(analyses[1].ID))

	h.interval = util.TimeRange{}
	h.limit = 1
	resp = rh.Run(context.TODO())
	analyses, ok = resp.Data().([]model.APIChangePointAnalysis)
	s.Require().True(ok)
	s.Require().Len(analyses, 1)
	s.True(analyses[0].Found)

	h.meterID = "DNE"
	h.limit = 0
	resp = rh.Run(context.TODO())
	s.Equal(http.StatusOK, resp.Status())
	analyses, ok = resp.Data().([]model.APIChangePointAnalysis)
	s.Require().True(ok)
	s.Empty(analyses)

	s.Error(rh.Parse(context.TODO(), s.request(http.MethodGet, "/meters/building/analyses?limit=-1", "building", "")))
	s.Error(rh.Parse(context.TODO(), s.request(http.MethodGet, "/meters/building/analyses?started_after=yesterday", "building", "")))
}

func (s *MeterHandlerSuite) TestGetAnalysisByID() {
	rh := s.rh["by_id"].(*analysisGetByIDHandler)
	rh.id = "other.0"

	resp := rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusOK, resp.Status())
	analysis, ok := resp.Data().(*model.APIChangePointAnalysis)
	s.Require().True(ok)
	s.Equal("other", utility.FromStringPtr(analysis.MeterID))

	rh.id = "DNE"
	resp = rh.Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusNotFound, resp.Status())
}

func (s *MeterHandlerSuite) TestStatus() {
	s.sc.Jobs = append(s.sc.Jobs, units.NewAnalyzeMeterJob("building", units.AnalysisOptions{}))

	resp := s.rh["status"].Run(context.TODO())
	s.Require().NotNil(resp)
	s.Equal(http.StatusOK, resp.Status())
	status, ok := resp.Data().(*model.APIStatus)
	s.Require().True(ok)
	s.Require().NotNil(status.Queue)
	s.Equal(1, status.Queue.Total)
}
