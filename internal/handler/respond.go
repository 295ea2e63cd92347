// Package handler provides the HTTP handlers exposing the coordinator's
// operation contract. Handlers are plumbing only: parse, call, map.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/catalog"
)

// ErrorCode classifies error responses for clients.
type ErrorCode string

const (
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeVideoNotFound  ErrorCode = "VIDEO_NOT_FOUND"
	ErrorCodeNoChange       ErrorCode = "NO_CHANGE"
	ErrorCodeInternalError  ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Status    string    `json:"status"`
	ErrorCode ErrorCode `json:"error_code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, errorCode := classify(err)
	requestID := r.Header.Get("X-Request-ID")

	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
			zap.Error(err))
	}

	h.writeJSON(w, statusCode, ErrorResponse{
		Status:    "error",
		ErrorCode: errorCode,
		Message:   err.Error(),
		RequestID: requestID,
	})
}

func classify(err error) (int, ErrorCode) {
	var validation *catalog.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorCodeInvalidRequest
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, ErrorCodeVideoNotFound
	case errors.Is(err, catalog.ErrNoChange):
		return http.StatusBadRequest, ErrorCodeNoChange
	default:
		return http.StatusInternalServerError, ErrorCodeInternalError
	}
}
