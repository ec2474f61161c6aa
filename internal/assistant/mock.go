package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
)

// Mock builds a canned suggestion from the request without any network
// call. It is the provider for development and tests.
type Mock struct{}

var _ Suggester = Mock{}

func (Mock) Suggest(ctx context.Context, req domain.SuggestionRequest) (domain.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return domain.Suggestion{}, fmt.Errorf("%w: %w", domain.ErrSuggestionUnavailable, err)
	}

	stock := firstLine(req.AvailableInventory)
	return domain.Suggestion{
		ArrangementDescription: fmt.Sprintf("A hand-tied arrangement for %s built around %s, finished with seasonal greenery and presented in a simple glass vase.",
			strings.ToLower(req.Occasion), stock),
		Reasoning: fmt.Sprintf("It suits the occasion (%s), follows the customer's wishes (%s) and uses only items currently in stock.",
			req.Occasion, req.CustomerPreferences),
	}, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
