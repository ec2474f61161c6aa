package domain

import "strings"

// SuggestionRequest is the input to the arrangement assistant.
type SuggestionRequest struct {
	Occasion            string `json:"occasion"`
	CustomerPreferences string `json:"customer_preferences"`
	AvailableInventory  string `json:"available_inventory"`
}

// Suggestion is the assistant's recommended arrangement.
type Suggestion struct {
	ArrangementDescription string `json:"arrangement_description"`
	Reasoning              string `json:"reasoning"`
}

// FieldIssue is one failed input check.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks that every field is present and returns the failures in
// field order. A nil result means the request may be sent.
func (r SuggestionRequest) Validate() []FieldIssue {
	var issues []FieldIssue
	if r.Occasion == "" {
		issues = append(issues, FieldIssue{Field: "occasion", Message: "Occasion is required."})
	}
	if r.CustomerPreferences == "" {
		issues = append(issues, FieldIssue{Field: "customer_preferences", Message: "Customer preferences are required."})
	}
	if r.AvailableInventory == "" {
		issues = append(issues, FieldIssue{Field: "available_inventory", Message: "Available inventory is required."})
	}
	return issues
}

// Complete reports whether both parts of the suggestion are filled in.
func (s Suggestion) Complete() bool {
	return strings.TrimSpace(s.ArrangementDescription) != "" && strings.TrimSpace(s.Reasoning) != ""
}

// ValidationError carries field issues out of the service layer.
type ValidationError struct {
	Message string
	Issues  []FieldIssue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		msgs = append(msgs, i.Message)
	}
	return e.Message + " " + strings.Join(msgs, " ")
}

// Summary is the headline shown above the field messages.
func (e *ValidationError) Summary() string {
	return e.Message
}

// Fields maps each failing field to its message.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Issues))
	for _, i := range e.Issues {
		out[i.Field] = i.Message
	}
	return out
}

// Details lists the messages in field order.
func (e *ValidationError) Details() []string {
	out := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		out = append(out, i.Message)
	}
	return out
}
