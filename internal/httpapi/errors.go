package httpapi

import (
	"encoding/json"
	"net/http"

	"summaryd/internal/core"
	"summaryd/internal/manager"
	"summaryd/internal/summarize"
	"summaryd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsInvalidInput(err):
		return http.StatusBadRequest
	case manager.IsTooBusy(err):
		return http.StatusTooManyRequests
	case manager.IsModelLoad(err):
		return http.StatusServiceUnavailable
	case manager.IsCapacityExceeded(err):
		return http.StatusServiceUnavailable
	case summarize.IsSummarization(err):
		return http.StatusUnprocessableEntity
	case summarize.IsInference(err):
		return http.StatusBadGateway
	case core.IsTimeout(err):
		return http.StatusGatewayTimeout
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}

// writeServiceError maps err to a status and writes it with its kind.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusTooManyRequests {
		IncrementRejections("busy")
	}
	writeJSONError(w, status, err.Error(), core.ErrKind(err))
}
