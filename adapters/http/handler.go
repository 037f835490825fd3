// Package http serves registered capability surfaces over HTTP. It is
// the remote counterpart of the in-process path: the routes and body
// shapes here are the wire contract the remote invoker speaks.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/avinashfc/agentic-visionxtract/adapters/metrics"
	"github.com/avinashfc/agentic-visionxtract/core/registry"
	"github.com/avinashfc/agentic-visionxtract/domain/call"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBody caps inbound payload size.
const maxBody = 10 << 20 // 10MB

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status string `json:"status"`
}

// Handler exposes every registered surface at
// POST /api/<module-kebab>/<operation>.
type Handler struct {
	registry *registry.Registry
	logger   zerolog.Logger
	metrics  *metrics.Collector
}

// NewHandler creates a serving handler over the registry.
func NewHandler(reg *registry.Registry, logger zerolog.Logger) *Handler {
	return &Handler{registry: reg, logger: logger}
}

// NewHandlerWithMetrics creates a serving handler that records metrics.
func NewHandlerWithMetrics(reg *registry.Registry, logger zerolog.Logger, m *metrics.Collector) *Handler {
	return &Handler{registry: reg, logger: logger, metrics: m}
}

// Router builds the chi router for the serving side.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Post("/api/{module}/{operation}", h.handleCall)

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleCall dispatches one operation on a locally served surface.
func (h *Handler) handleCall(w http.ResponseWriter, r *http.Request) {
	module := call.ModuleName(chi.URLParam(r, "module"))
	operation := chi.URLParam(r, "operation")

	surface, ok := h.registry.Surface(module)
	if !ok {
		h.writeFailure(w, module, operation, call.NewFailure(call.KindModuleUnavailable,
			"module %q is not served here", module))
		return
	}

	handler, ok := surface.Operation(operation)
	if !ok {
		h.writeFailure(w, module, operation, call.NewFailure(call.KindOperationNotFound,
			"module %q has no operation %q", module, operation))
		return
	}

	payload, err := decodePayload(r)
	if err != nil {
		h.writeFailure(w, module, operation, call.WrapFailure(call.KindApplication, err,
			"invalid request body"))
		return
	}

	ctx := r.Context()
	if id := r.Header.Get(call.CorrelationHeader); id != "" {
		ctx = call.WithCorrelationID(ctx, id)
	}

	result, err := handler(ctx, payload)
	if err != nil {
		f, ok := err.(*call.Failure)
		if !ok {
			f = call.WrapFailure(call.KindApplication, err, "operation %q failed", operation)
		}
		h.writeFailure(w, module, operation, f)
		return
	}

	if result == nil {
		result = map[string]any{}
	}
	h.count(module, operation, http.StatusOK)
	writeJSON(w, http.StatusOK, result)
}

// decodePayload reads the JSON request body. An empty body is a nil
// payload, matching in-process calls made without one.
func decodePayload(r *http.Request) (map[string]any, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// writeFailure maps a failure kind onto an HTTP status and writes the
// wire error body. The kind travels unchanged so the remote invoker can
// hand it to the caller as-is.
func (h *Handler) writeFailure(w http.ResponseWriter, module, operation string, f *call.Failure) {
	status := statusForKind(f.Kind)
	h.count(module, operation, status)

	h.logger.Warn().
		Str("module", module).
		Str("operation", operation).
		Str("kind", string(f.Kind)).
		Int("status", status).
		Msg(f.Message)

	writeJSON(w, status, call.ErrorBody{Error: call.ErrorDetail{
		Kind:    string(f.Kind),
		Message: f.Message,
	}})
}

// statusForKind maps failure kinds to HTTP statuses.
func statusForKind(kind call.Kind) int {
	switch kind {
	case call.KindModuleUnavailable, call.KindOperationNotFound:
		return http.StatusNotFound
	case call.KindTransport, call.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) count(module, operation string, status int) {
	if h.metrics != nil {
		h.metrics.ServedTotal.WithLabelValues(module, operation, strconv.Itoa(status)).Inc()
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
