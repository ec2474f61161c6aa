// Package assistant asks a hosted language model for floral arrangement
// suggestions.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
)

// Suggester produces an arrangement suggestion for a validated request.
type Suggester interface {
	Suggest(ctx context.Context, req domain.SuggestionRequest) (domain.Suggestion, error)
}

const promptText = `You are an expert florist, skilled at creating beautiful and appropriate floral arrangements. A customer has requested a floral arrangement for a specific occasion with specific preferences, and you must suggest an arrangement based on the available inventory.

Occasion: {{.Occasion}}
Customer Preferences: {{.CustomerPreferences}}
Available Inventory: {{.AvailableInventory}}

Based on the information above, create a detailed description of the suggested floral arrangement, including flower types, colors, vase type, and style. Also, provide a reasoning behind the suggested arrangement based on the occasion, customer preferences and available inventory.

Follow the schema to create a detailed suggestion that is appropriate and delightful for the customer.`

var promptTemplate = template.Must(template.New("arrangement").Parse(promptText))

// RenderPrompt fills the florist prompt with req. Field values are inserted
// verbatim.
func RenderPrompt(req domain.SuggestionRequest) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, req); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}
