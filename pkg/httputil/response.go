package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
	"github.com/wellknownalpha/bloom-pos/pkg/logger"
)

// Response is the JSON envelope returned by every endpoint.
type Response struct {
	Data    any            `json:"data,omitempty"`
	Message string         `json:"message,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Details   []string          `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// FieldError is implemented by validation failures that report per-field
// messages. Details and Summary are optional extras.
type FieldError interface {
	error
	Fields() map[string]string
}

// WriteError maps err to a status code and error body. Field errors become a
// 400 VALIDATION_ERROR; AppErrors are written as-is; bare sentinels get a
// generic message. 5xx errors are logged with the request-scoped logger when
// RequestLogger is mounted, else with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	var fe FieldError
	if errors.As(err, &fe) {
		WriteValidationError(w, r, err)
		return
	}

	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	status := apperrors.HTTPStatus(err)
	body := &ErrorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred", RequestID: requestID}

	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		body.Code = appErr.Code
		body.Message = appErr.Message
	case errors.Is(err, apperrors.ErrNotFound):
		body.Code, body.Message = "NOT_FOUND", "resource not found"
	case errors.Is(err, apperrors.ErrConflict):
		body.Code, body.Message = "CONFLICT", "resource was modified concurrently"
	case errors.Is(err, apperrors.ErrInvalidInput):
		body.Code, body.Message = "INVALID_INPUT", err.Error()
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Error: body})
}

// WriteValidationError writes a 400 with field-level errors when err carries
// them, or a plain INVALID_INPUT body otherwise.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var fe FieldError
	if errors.As(err, &fe) {
		body := &ErrorResponse{
			Code:      "VALIDATION_ERROR",
			Message:   "request validation failed",
			Fields:    fe.Fields(),
			RequestID: requestID,
		}
		if s, ok := fe.(interface{ Summary() string }); ok && s.Summary() != "" {
			body.Message = s.Summary()
		}
		if d, ok := fe.(interface{ Details() []string }); ok {
			body.Details = d.Details()
		}
		WriteJSON(w, http.StatusBadRequest, Response{Error: body})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error(), RequestID: requestID},
	})
}
