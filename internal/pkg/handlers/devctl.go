package handlers

import (
	"context"
	"net/http"
	"time"

	oaerrors "github.com/go-openapi/errors"
	"github.com/gorilla/mux"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/devctl"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/tools"
)

// OutputKey is the member of the response envelope holding the result
const OutputKey = "function_output"

// Invoker runs a function call
type Invoker interface {
	Invoke(ctx context.Context, id string, args devctl.Args) devctl.Result
}

// FunctionHandler serves POST /functions/{functionId}.  The response echoes
// the arguments with the result added under function_output.
type FunctionHandler struct {
	invoker Invoker
	timeout time.Duration
}

func NewFunctionHandler(invoker Invoker, timeout time.Duration) FunctionHandler {
	return FunctionHandler{invoker: invoker, timeout: timeout}
}

func (h *FunctionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["functionId"]

	var args devctl.Args
	if err := decodeJSONBody(w, r, &args); err != nil {
		logging.Logger(r.Context()).WithError(err).Errorf("decoding JSON")
		oaerrors.ServeError(w, r, oaerrors.New(http.StatusBadRequest, "unable to parse JSON: %s", err))
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result := h.invoker.Invoke(ctx, id, args)

	sendJSONResponse(w, r, args.With(OutputKey, result))
}

// ToolsHandler serves GET /tools
type ToolsHandler struct {
	tools []tools.Tool
}

func NewToolsHandler(t []tools.Tool) ToolsHandler {
	return ToolsHandler{tools: t}
}

type toolsResponse struct {
	Tools []tools.Tool `json:"tools"`
}

func (h *ToolsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, r, toolsResponse{Tools: h.tools})
}
