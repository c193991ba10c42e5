package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	adapters "insight/internal/adapters/analysis"
	domain "insight/internal/domain/analysis"
	service "insight/internal/services/analysis"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// Route is the analysis endpoint pattern
const Route = "POST /v1/analysis/{provider}/{capability}"

// Analyzer runs one analysis call
type Analyzer interface {
	Analyze(ctx context.Context, req service.Request) (*service.Response, error)
}

// Request is the JSON body of an analysis call
type Request struct {
	Credentials adapters.Credentials `json:"credentials"`
	Input       any                  `json:"input"`
	ImageBase64 string               `json:"imageBase64,omitempty"`
	Options     map[string]any       `json:"options,omitempty"`
}

// ErrorResponse is returned for every failed call
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Handler serves analysis calls over HTTP
type Handler struct {
	analyzer     Analyzer
	maxBodyBytes int64
	log          *logger.Logger
}

// NewHandler creates a new analysis handler. maxBodyBytes <= 0 disables the limit.
func NewHandler(analyzer Analyzer, maxBodyBytes int64, log *logger.Logger) *Handler {
	return &Handler{
		analyzer:     analyzer,
		maxBodyBytes: maxBodyBytes,
		log:          log.With("component", "analysis_handler"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	capability, err := domain.ParseCapability(r.PathValue("capability"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var body Request
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Kind:    service.KindInvalidInput,
				Message: "request body too large",
			})
			return
		}
		h.writeError(w, errors.NewValidationError("body", err.Error(), nil))
		return
	}

	input := body.Input
	if body.ImageBase64 != "" {
		if capability != domain.CapabilityVision {
			h.writeError(w, errors.NewValidationError("imageBase64", "only valid for vision", nil))
			return
		}
		payload, err := base64.StdEncoding.DecodeString(body.ImageBase64)
		if err != nil {
			h.writeError(w, errors.NewValidationError("imageBase64", "invalid base64", nil))
			return
		}
		input = payload
	}

	resp, err := h.analyzer.Analyze(r.Context(), service.Request{
		Provider:    r.PathValue("provider"),
		Capability:  capability,
		Credentials: body.Credentials,
		Input:       input,
		Options:     body.Options,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := service.ErrorKind(err)
	code := StatusCode(kind)
	if code >= http.StatusInternalServerError {
		h.log.Warnw("Analysis request failed", "kind", kind, "status", code, "error", err)
	} else {
		h.log.Debugw("Analysis request rejected", "kind", kind, "status", code, "error", err)
	}
	writeJSON(w, code, ErrorResponse{Kind: kind, Message: err.Error()})
}

// StatusCode maps an error kind onto an HTTP status
func StatusCode(kind string) int {
	switch kind {
	case service.KindUnsupportedInputKind, service.KindInvalidOption, service.KindInvalidInput:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindUnsupportedCapability:
		return http.StatusNotImplemented
	case service.KindTransportFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
