package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/service"
	"github.com/wellknownalpha/bloom-pos/pkg/httputil"
	"github.com/wellknownalpha/bloom-pos/pkg/logger"
	"github.com/wellknownalpha/bloom-pos/pkg/validator"
)

// SuggestionHandler handles the arrangement assistant endpoint.
type SuggestionHandler struct {
	service *service.SuggestionService
	logger  *slog.Logger
}

// NewSuggestionHandler creates a new suggestion HTTP handler.
func NewSuggestionHandler(svc *service.SuggestionService, logger *slog.Logger) *SuggestionHandler {
	return &SuggestionHandler{service: svc, logger: logger}
}

// Suggest handles POST /api/v1/suggestions
//
// A failed validation answers 400 with the field messages and echoes the
// submitted fields in data so the form can be redisplayed.
func (h *SuggestionHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req domain.SuggestionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	suggestion, err := h.service.Suggest(r.Context(), req)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Data: req,
				Error: &httputil.ErrorResponse{
					Code:      "VALIDATION_ERROR",
					Message:   vErr.Summary(),
					Fields:    vErr.Fields(),
					Details:   vErr.Details(),
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				},
			})
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data:    suggestion,
		Message: service.SuggestionSucceededMessage,
	})
}
