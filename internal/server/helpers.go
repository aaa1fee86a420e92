package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bobmcallan/fairval/internal/interfaces"
)

// Error codes carried in ErrorResponse.Code
const (
	CodeInvalidTicker = "INVALID_TICKER"
	CodeInvalidPeriod = "INVALID_PERIOD"
	CodeNotFound      = "NOT_FOUND"
	CodeUpstream      = "UPSTREAM_UNAVAILABLE"
	CodeInternal      = "INTERNAL_ERROR"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteServiceError maps pipeline errors onto HTTP statuses.
// A total upstream failure carries the per-source detail.
func WriteServiceError(w http.ResponseWriter, err error) {
	var upstream *interfaces.UpstreamError
	switch {
	case errors.Is(err, interfaces.ErrInvalidTicker):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), CodeInvalidTicker)
	case errors.Is(err, interfaces.ErrInvalidPeriod):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), CodeInvalidPeriod)
	case errors.Is(err, interfaces.ErrNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), CodeNotFound)
	case errors.As(err, &upstream):
		WriteJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   err.Error(),
			Code:    CodeUpstream,
			Details: upstream.Sources,
		})
	case errors.Is(err, interfaces.ErrUpstreamUnavailable):
		WriteErrorWithCode(w, http.StatusBadGateway, err.Error(), CodeUpstream)
	default:
		WriteErrorWithCode(w, http.StatusInternalServerError, err.Error(), CodeInternal)
	}
}
