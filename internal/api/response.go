package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tikasheba/vaccine-ai/internal/chat"
	"github.com/tikasheba/vaccine-ai/internal/forecast"
	"github.com/tikasheba/vaccine-ai/internal/knowledge"
	"github.com/tikasheba/vaccine-ai/internal/llm"
	"github.com/tikasheba/vaccine-ai/internal/usage"
)

// Machine-readable error kinds in the error envelope.
const (
	kindValidation       = "validation_error"
	kindUpstream         = "upstream_unavailable"
	kindUpstreamTimeout  = "upstream_timeout"
	kindBoundedIteration = "bounded_iteration_exceeded"
	kindGeneration       = "generation_failure"
	kindRateLimited      = "rate_limited"
	kindInternal         = "internal_error"
)

// errorBody is the JSON error envelope:
// {"error":{"kind":"…","message":"…"}}.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
// Uses buffer-first strategy so headers are only sent after successful
// encoding; if encoding fails a proper 500 can still be returned.
func writeJSON(w http.ResponseWriter, status int, data any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected.
		slog.Debug("failed to write response body", "error", err)
	}
}

// writeError writes the structured error envelope.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// writeDomainError maps a domain error onto an HTTP status and error
// kind. Ordering matters: specific upstream kinds are checked before the
// generation catch-all they may be wrapped in.
func writeDomainError(w http.ResponseWriter, err error, logger *slog.Logger) {
	switch {
	case errors.Is(err, knowledge.ErrInvalidVaccine),
		errors.Is(err, forecast.ErrEmptyHistory),
		errors.Is(err, forecast.ErrInvalidHorizon):
		writeError(w, http.StatusBadRequest, kindValidation, err.Error())

	case errors.Is(err, usage.ErrNoData):
		writeError(w, http.StatusNotFound, kindValidation, err.Error())

	case errors.Is(err, llm.ErrTimeout), errors.Is(err, knowledge.ErrTimeout):
		logger.Error("upstream timeout", "error", err)
		writeError(w, http.StatusGatewayTimeout, kindUpstreamTimeout, "upstream service timed out")

	case errors.Is(err, llm.ErrUnavailable),
		errors.Is(err, knowledge.ErrUnavailable),
		errors.Is(err, usage.ErrUpstream):
		logger.Error("upstream unavailable", "error", err)
		writeError(w, http.StatusBadGateway, kindUpstream, "upstream service unavailable")

	case errors.Is(err, chat.ErrToolLoopExceeded):
		logger.Error("tool loop did not converge", "error", err)
		writeError(w, http.StatusInternalServerError, kindBoundedIteration, "conversation did not converge")

	case errors.Is(err, chat.ErrGeneration):
		logger.Error("generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, kindGeneration, "failed to generate a response")

	default:
		logger.Error("unexpected error", "error", err)
		writeError(w, http.StatusInternalServerError, kindInternal, "internal server error")
	}
}

// decodeJSON decodes a request body limited to maxRequestBytes. A false
// return means the error response was already written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, kindValidation, "invalid request body")
		return false
	}
	return true
}

const maxRequestBytes = 1 << 20 // 1 MB
