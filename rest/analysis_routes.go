package rest

import (
	"context"
	"net/http"

	"github.com/evergreen-ci/baseload/rest/data"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

///////////////////////////////////////////////////////////////////////////////
//
// GET /analyses/{id}

type analysisGetByIDHandler struct {
	id string
	sc data.Connector
}

func makeGetAnalysisByID(sc data.Connector) gimlet.RouteHandler {
	return &analysisGetByIDHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new analysisGetByIDHandler.
func (h *analysisGetByIDHandler) Factory() gimlet.RouteHandler {
	return &analysisGetByIDHandler{
		sc: h.sc,
	}
}

// Parse fetches the id from the http request.
func (h *analysisGetByIDHandler) Parse(_ context.Context, r *http.Request) error {
	h.id = gimlet.GetVars(r)["id"]
	if h.id == "" {
		return errors.New("no analysis id specified")
	}
	return nil
}

// Run returns the stored analysis.
func (h *analysisGetByIDHandler) Run(ctx context.Context) gimlet.Responder {
	analysis, err := h.sc.FindChangePointAnalysisByID(ctx, h.id)
	if err != nil {
		err = errors.Wrapf(err, "problem getting change point analysis '%s'", h.id)
		logRouteError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"method":  "GET",
			"route":   "/analyses/{id}",
			"id":      h.id,
		})
		return gimlet.MakeJSONErrorResponder(err)
	}

	return gimlet.NewJSONResponse(analysis)
}

///////////////////////////////////////////////////////////////////////////////
//
// GET /status

type statusHandler struct {
	sc data.Connector
}

func makeStatus(sc data.Connector) gimlet.RouteHandler {
	return &statusHandler{
		sc: sc,
	}
}

// Factory returns a pointer to a new statusHandler.
func (h *statusHandler) Factory() gimlet.RouteHandler {
	return &statusHandler{
		sc: h.sc,
	}
}

func (h *statusHandler) Parse(_ context.Context, _ *http.Request) error { return nil }

// Run returns the build revision and queue state.
func (h *statusHandler) Run(ctx context.Context) gimlet.Responder {
	status, err := h.sc.GetStatus(ctx)
	if err != nil {
		return gimlet.MakeJSONInternalErrorResponder(errors.Wrap(err, "problem getting status"))
	}

	return gimlet.NewJSONResponse(status)
}
