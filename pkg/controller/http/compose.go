package http

import (
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/odcsfetch/pkg/domain/interfaces"
	"github.com/m-mizutani/odcsfetch/pkg/domain/model"
	"github.com/m-mizutani/odcsfetch/pkg/domain/types"
	"github.com/m-mizutani/odcsfetch/pkg/utils/logging"
)

const maxRequestBodySize = 1 << 20

//go:embed schema/compose_request.json
var composeRequestSchema []byte

// composeRequest is body of POST /api/v1/compose
type composeRequest struct {
	ComposeURLs []string `json:"compose_urls"`
}

// composeResponse is body of successful POST /api/v1/compose
type composeResponse struct {
	ComposeDirPath string   `json:"compose_dir_path"`
	ComposeFiles   []string `json:"compose_files"`
}

// composeErrorResponse is body of failed POST /api/v1/compose
type composeErrorResponse struct {
	Error      string `json:"error"`
	URL        string `json:"url,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// ComposeHandler handles compose fetch requests
type ComposeHandler struct {
	fetcher interfaces.ComposeFetcher
	schema  *openapi3.Schema
}

// NewComposeHandler creates a new ComposeHandler
func NewComposeHandler(fetcher interfaces.ComposeFetcher) (*ComposeHandler, error) {
	var schema openapi3.Schema
	if err := json.Unmarshal(composeRequestSchema, &schema); err != nil {
		return nil, goerr.Wrap(err, "failed to load compose request schema")
	}

	return &ComposeHandler{
		fetcher: fetcher,
		schema:  &schema,
	}, nil
}

// Handle fetches composes named in request body and responds with the compose directory
func (h *ComposeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.From(ctx)

	req, err := h.decodeRequest(w, r)
	if err != nil {
		logger.Warn("Invalid compose request", "error", err)
		writeError(w, r, err, http.StatusBadRequest)
		return
	}

	result, err := h.fetcher.Fetch(ctx, model.NewRequestReference(req.ComposeURLs...))
	if err != nil {
		logger.Error("Failed to fetch compose", "error", err)
		h.writeFetchError(w, r, err)
		return
	}

	files := result.ComposeFiles()
	if files == nil {
		files = []string{}
	}
	writeJSON(w, r, &composeResponse{
		ComposeDirPath: result.ComposeDirPath(),
		ComposeFiles:   files,
	}, http.StatusOK)
}

func (h *ComposeHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*composeRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read request body")
	}
	defer r.Body.Close()

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, goerr.Wrap(err, "invalid JSON payload")
	}
	if err := h.schema.VisitJSON(raw); err != nil {
		return nil, goerr.Wrap(err, "request does not match schema")
	}

	var req composeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, goerr.Wrap(err, "invalid compose request")
	}

	return &req, nil
}

func (h *ComposeHandler) writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	resp := &composeErrorResponse{Error: err.Error()}

	var statusErr *model.HTTPStatusError
	switch {
	case errors.As(err, &statusErr):
		resp.URL = statusErr.URL
		resp.StatusCode = statusErr.StatusCode
		writeJSON(w, r, resp, http.StatusBadGateway)

	case goerr.HasTag(err, types.ErrTagBlockedTarget),
		goerr.HasTag(err, types.ErrTagInvalidRequest):
		writeJSON(w, r, resp, http.StatusBadRequest)

	case goerr.HasTag(err, types.ErrTagTransport):
		writeJSON(w, r, resp, http.StatusBadGateway)

	default:
		writeJSON(w, r, resp, http.StatusInternalServerError)
	}
}
