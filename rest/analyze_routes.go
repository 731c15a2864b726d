package rest

import (
	"context"
	"net/http"

	"github.com/evergreen-ci/baseload/perf"
	"github.com/evergreen-ci/baseload/rest/data"
	"github.com/evergreen-ci/baseload/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

///////////////////////////////////////////////////////////////////////////////
//
// POST /analyze

type analyzeHandler struct {
	req  model.APIAnalyzeRequest
	opts perf.AnalyzerOptions
	sc   data.Connector
}

func makeAnalyze(sc data.Connector) gimlet.RouteHandler {
	return &analyzeHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new analyzeHandler.
func (h *analyzeHandler) Factory() gimlet.RouteHandler {
	return &analyzeHandler{
		sc: h.sc,
	}
}

// Parse reads the series and options from the request body.
func (h *analyzeHandler) Parse(_ context.Context, r *http.Request) error {
	h.req = model.APIAnalyzeRequest{}
	if err := gimlet.GetJSON(r.Body, &h.req); err != nil {
		return errors.Wrap(err, "problem parsing request body")
	}

	defaults := h.sc.GetAnalysisDefaults()
	var err error
	h.opts, err = h.req.Export(defaults.AnalyzerOptions())

	return err
}

// Run analyzes the series and returns the report.
func (h *analyzeHandler) Run(ctx context.Context) gimlet.Responder {
	fields := message.Fields{
		"request": gimlet.GetRequestID(ctx),
		"method":  "POST",
		"route":   "/analyze",
		"length":  len(h.req.Values),
		"period":  h.opts.Period,
	}

	analyzer, err := perf.NewAnalyzer(h.opts)
	if err != nil {
		return h.fail(err, http.StatusBadRequest, fields)
	}

	analysis, err := analyzer.Analyze(h.req.Values)
	if err != nil {
		status := http.StatusInternalServerError
		if perf.IsInvalidInput(err) || perf.IsInsufficientData(err) {
			status = http.StatusBadRequest
		}
		return h.fail(err, status, fields)
	}

	report, err := model.NewAPIAnalysisReport(analysis, h.req.ExportTimestamps())
	if err != nil {
		return h.fail(err, http.StatusInternalServerError, fields)
	}

	return gimlet.NewJSONResponse(report)
}

func (h *analyzeHandler) fail(err error, status int, fields message.Fields) gimlet.Responder {
	err = gimlet.ErrorResponse{
		StatusCode: status,
		Message:    errors.Wrap(err, "problem analyzing series").Error(),
	}
	logRouteError(err, fields)
	return gimlet.MakeJSONErrorResponder(err)
}
