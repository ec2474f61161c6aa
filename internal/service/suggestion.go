package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/wellknownalpha/bloom-pos/internal/assistant"
	"github.com/wellknownalpha/bloom-pos/internal/domain"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

// Messages returned to the suggestion form.
const (
	SuggestionSucceededMessage = "Suggestion generated successfully!"
	suggestionFailedMessage    = "Failed to generate suggestion. Please try again."
)

// SuggestionService validates arrangement requests and forwards them to the
// configured assistant. Calls are never retried.
type SuggestionService struct {
	suggester assistant.Suggester
	logger    *slog.Logger
}

// NewSuggestionService creates a new suggestion service.
func NewSuggestionService(suggester assistant.Suggester, logger *slog.Logger) *SuggestionService {
	return &SuggestionService{suggester: suggester, logger: logger}
}

// Suggest returns an arrangement for req. Invalid requests fail with a
// *domain.ValidationError before the assistant is called; assistant failures
// become a generic service-unavailable error.
func (s *SuggestionService) Suggest(ctx context.Context, req domain.SuggestionRequest) (domain.Suggestion, error) {
	if issues := req.Validate(); len(issues) > 0 {
		suggestionsTotal.WithLabelValues("invalid").Inc()
		return domain.Suggestion{}, &domain.ValidationError{Message: validationFailedMessage, Issues: issues}
	}

	start := time.Now()
	suggestion, err := s.suggester.Suggest(ctx, req)
	suggestionDuration.Observe(time.Since(start).Seconds())

	if err == nil && !suggestion.Complete() {
		err = domain.ErrSuggestionUnavailable
	}
	if err != nil {
		suggestionsTotal.WithLabelValues("failed").Inc()
		s.logger.ErrorContext(ctx, "arrangement suggestion failed",
			slog.String("occasion", req.Occasion),
			slog.String("error", err.Error()),
		)
		return domain.Suggestion{}, apperrors.ServiceUnavailable(suggestionFailedMessage)
	}

	suggestionsTotal.WithLabelValues("succeeded").Inc()
	s.logger.InfoContext(ctx, "arrangement suggestion generated",
		slog.String("occasion", req.Occasion),
		slog.Duration("duration", time.Since(start)),
	)
	return suggestion, nil
}
