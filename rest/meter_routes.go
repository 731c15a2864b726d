package rest

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/baseload/rest/data"
	"github.com/evergreen-ci/baseload/rest/model"
	"github.com/evergreen-ci/baseload/units"
	"github.com/evergreen-ci/baseload/util"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// parseAnalysisOptions reads the optional period and penalty query
// parameters, filling unset values from the connector's defaults.
func parseAnalysisOptions(sc data.Connector, r *http.Request) (units.AnalysisOptions, error) {
	defaults := sc.GetAnalysisDefaults()
	opts := units.AnalysisOptions{
		Period:  defaults.Period,
		Penalty: defaults.PenaltyOptions(),
	}

	vals := r.URL.Query()
	catcher := grip.NewBasicCatcher()
	if period := vals.Get("period"); period != "" {
		p, err := strconv.Atoi(period)
		catcher.Add(errors.Wrapf(err, "'%s' is not a valid period", period))
		opts.Period = p
	}
	if penalty := vals.Get("penalty"); penalty != "" {
		t, err := perf.ParsePenaltyType(penalty)
		catcher.Add(err)
		opts.Penalty.Type = t
	}
	if value := vals.Get("penalty_value"); value != "" {
		v, err := strconv.ParseFloat(value, 64)
		catcher.Add(errors.Wrapf(err, "'%s' is not a valid penalty value", value))
		opts.Penalty.Value = v
	}
	if catcher.HasErrors() {
		return opts, catcher.Resolve()
	}

	analyzerOpts := opts.AnalyzerOptions()
	if err := analyzerOpts.Validate(); err != nil {
		return opts, errors.Wrap(err, "invalid analysis options")
	}
	opts.Penalty = analyzerOpts.Penalty

	return opts, nil
}

func parseMeterID(r *http.Request) (string, error) {
	meterID := gimlet.GetVars(r)["meter_id"]
	if meterID == "" {
		return "", errors.New("no meter id specified")
	}
	return meterID, nil
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /meters/{meter_id}/readings

type meterSaveReadingsHandler struct {
	meterID  string
	readings []perf.Reading
	opts     perf.ResampleOptions
	sc       data.Connector
}

func makeSaveMeterReadings(sc data.Connector) gimlet.RouteHandler {
	return &meterSaveReadingsHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new meterSaveReadingsHandler.
func (h *meterSaveReadingsHandler) Factory() gimlet.RouteHandler {
	return &meterSaveReadingsHandler{
		sc: h.sc,
	}
}

// Parse fetches the meter id and the readings from the request.
func (h *meterSaveReadingsHandler) Parse(_ context.Context, r *http.Request) error {
	var err error
	if h.meterID, err = parseMeterID(r); err != nil {
		return err
	}

	req := model.APIReadingsRequest{}
	if err = gimlet.GetJSON(r.Body, &req); err != nil {
		return errors.Wrap(err, "problem parsing request body")
	}

	defaults := h.sc.GetAnalysisDefaults()
	h.readings, h.opts, err = req.Export(defaults.ResampleOptions())

	return err
}

// Run resamples and stores the readings.
func (h *meterSaveReadingsHandler) Run(ctx context.Context) gimlet.Responder {
	series, err := h.sc.SaveReadings(ctx, h.meterID, h.readings, h.opts)
	if err != nil {
		err = errors.Wrapf(err, "problem saving readings for meter '%s'", h.meterID)
		logRouteError(err, message.Fields{
			"request":  gimlet.GetRequestID(ctx),
			"method":   "POST",
			"route":    "/meters/{meter_id}/readings",
			"meter":    h.meterID,
			"readings": len(h.readings),
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	return gimlet.NewJSONResponse(series)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /meters/{meter_id}/readings

type meterGetReadingsHandler struct {
	meterID string
	sc      data.Connector
}

func makeGetMeterReadings(sc data.Connector) gimlet.RouteHandler {
	return &meterGetReadingsHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new meterGetReadingsHandler.
func (h *meterGetReadingsHandler) Factory() gimlet.RouteHandler {
	return &meterGetReadingsHandler{
		sc: h.sc,
	}
}

// Parse fetches the meter id from the http request.
func (h *meterGetReadingsHandler) Parse(_ context.Context, r *http.Request) error {
	var err error
	h.meterID, err = parseMeterID(r)
	return err
}

// Run returns the stored series of the meter.
func (h *meterGetReadingsHandler) Run(ctx context.Context) gimlet.Responder {
	series, err := h.sc.FindEnergySeries(ctx, h.meterID)
	if err != nil {
		err = errors.Wrapf(err, "problem getting readings for meter '%s'", h.meterID)
		logRouteError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/meters/{meter_id}/readings",
			"meter":   h.meterID,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	return gimlet.NewJSONResponse(series)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /meters/{meter_id}/upload?analyze=<bool>

type meterUploadHandler struct {
	meterID string
	body    []byte
	analyze bool
	opts    units.AnalysisOptions
	sc      data.Connector
}

func makeUploadMeterReadings(sc data.Connector) gimlet.RouteHandler {
	return &meterUploadHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new meterUploadHandler.
func (h *meterUploadHandler) Factory() gimlet.RouteHandler {
	return &meterUploadHandler{
		sc: h.sc,
	}
}

// Parse reads the CSV body and the analysis options.
func (h *meterUploadHandler) Parse(_ context.Context, r *http.Request) error {
	var err error
	if h.meterID, err = parseMeterID(r); err != nil {
		return err
	}
	if h.analyze, err = parseBool(r.URL.Query(), "analyze"); err != nil {
		return err
	}
	if h.opts, err = parseAnalysisOptions(h.sc, r); err != nil {
		return err
	}

	if r.Body == nil {
		return errors.New("no readings file given")
	}
	defer r.Body.Close()
	h.body, err = ioutil.ReadAll(r.Body)
	if err != nil {
		return errors.Wrap(err, "problem reading request body")
	}
	if len(bytes.TrimSpace(h.body)) == 0 {
		return errors.New("no readings file given")
	}

	return nil
}

// Run stores the file and queues its ingestion.
func (h *meterUploadHandler) Run(ctx context.Context) gimlet.Responder {
	j, err := h.sc.UploadReadings(ctx, h.meterID, bytes.NewReader(h.body), h.analyze, h.opts)
	if err != nil {
		err = errors.Wrapf(err, "problem uploading readings for meter '%s'", h.meterID)
		logRouteError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/meters/{meter_id}/upload",
			"meter":   h.meterID,
			"size":    len(h.body),
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	return gimlet.NewJSONResponse(j)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /meters/{meter_id}/analyze?period=<int>&penalty=<string>&penalty_value=<float>

type meterAnalyzeHandler struct {
	meterID string
	opts    units.AnalysisOptions
	sc      data.Connector
}

func makeAnalyzeMeter(sc data.Connector) gimlet.RouteHandler {
	return &meterAnalyzeHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new meterAnalyzeHandler.
func (h *meterAnalyzeHandler) Factory() gimlet.RouteHandler {
	return &meterAnalyzeHandler{
		sc: h.sc,
	}
}

// Parse fetches the meter id and the analysis options.
func (h *meterAnalyzeHandler) Parse(_ context.Context, r *http.Request) error {
	var err error
	if h.meterID, err = parseMeterID(r); err != nil {
		return err
	}
	h.opts, err = parseAnalysisOptions(h.sc, r)
	return err
}

// Run queues an analysis of the meter.
func (h *meterAnalyzeHandler) Run(ctx context.Context) gimlet.Responder {
	j, err := h.sc.ScheduleAnalysis(ctx, h.meterID, h.opts)
	if err != nil {
		err = errors.Wrapf(err, "problem scheduling analysis for meter '%s'", h.meterID)
		logRouteError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "POST",
			"route":   "/meters/{meter_id}/analyze",
			"meter":   h.meterID,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	return gimlet.NewJSONResponse(j)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /meters/{meter_id}/analyses?started_after=<timestamp>&finished_before=<timestamp>&limit=<int>

type meterGetAnalysesHandler struct {
	meterID  string
	interval util.TimeRange
	limit    int
	sc       data.Connector
}

func makeGetMeterAnalyses(sc data.Connector) gimlet.RouteHandler {
	return &meterGetAnalysesHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new meterGetAnalysesHandler.
func (h *meterGetAnalysesHandler) Factory() gimlet.RouteHandler {
	return &meterGetAnalysesHandler{
		sc: h.sc,
	}
}

// Parse fetches the meter id, time range, and limit from the request.
func (h *meterGetAnalysesHandler) Parse(_ context.Context, r *http.Request) error {
	var err error
	if h.meterID, err = parseMeterID(r); err != nil {
		return err
	}

	vals := r.URL.Query()
	catcher := grip.NewBasicCatcher()
	h.interval, err = parseTimeRange(vals, "started_after", "finished_before")
	catcher.Add(err)
	h.limit, err = parseLimit(vals, defaultAnalysesLimit)
	catcher.Add(err)

	return catcher.Resolve()
}

// Run returns the meter's analyses, newest first.
func (h *meterGetAnalysesHandler) Run(ctx context.Context) gimlet.Responder {
	analyses, err := h.sc.FindChangePointAnalysesByMeter(ctx, h.meterID, h.interval, h.limit)
	if err != nil {
		err = errors.Wrapf(err, "problem getting analyses for meter '%s'", h.meterID)
		logRouteError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/meters/{meter_id}/analyses",
			"meter":   h.meterID,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	return gimlet.NewJSONResponse(analyses)
}
