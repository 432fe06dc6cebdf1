// Package api provides HTTP handlers and routing for the land-cover
// pipeline service.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// APIError is the JSON error envelope every failure returns.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	RequestID   string `json:"request_id,omitempty"`
}

// Error codes.
const (
	ErrCodeBadRequest       = "BadRequest"
	ErrCodeNotFound         = "NotFound"
	ErrCodeInvalidParameter = "InvalidParameterValue"
	ErrCodeServerError      = "ServerError"
	ErrCodeUpstreamError    = "UpstreamServiceError"
)

// WriteJSON writes a JSON response with the given status code and value.
// If encoding fails, it logs the error.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response",
			slog.String("error", err.Error()),
		)
		return err
	}

	return nil
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeErrorEnvelope(w, status, APIError{Code: code, Description: message})
}

func writeErrorEnvelope(w http.ResponseWriter, status int, errResp APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		slog.Error("failed to encode error response",
			slog.String("error", err.Error()),
		)
	}
}

// WriteBadRequest writes a 400 Bad Request error response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteNotFound writes a 404 Not Found error response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteInvalidParameter writes a 400 Bad Request error for invalid parameters.
func WriteInvalidParameter(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeInvalidParameter, message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeServerError, message)
}

// WriteInternalErrorWithRequestID writes a 500 response carrying the
// request ID so clients can reference it in reports.
func WriteInternalErrorWithRequestID(w http.ResponseWriter, message, requestID string) {
	writeErrorEnvelope(w, http.StatusInternalServerError, APIError{
		Code:        ErrCodeServerError,
		Description: message,
		RequestID:   requestID,
	})
}

// WriteUpstreamError writes a 502 Bad Gateway error for upstream service failures.
func WriteUpstreamError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadGateway, ErrCodeUpstreamError, message)
}
