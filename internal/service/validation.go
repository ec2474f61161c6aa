package service

import "github.com/wellknownalpha/bloom-pos/internal/domain"

const validationFailedMessage = "Validation failed. Please check the form fields."

// fieldIssues collects form errors in the order fields are checked.
type fieldIssues []domain.FieldIssue

func (f *fieldIssues) add(field, message string) {
	*f = append(*f, domain.FieldIssue{Field: field, Message: message})
}

func (f fieldIssues) err() error {
	if len(f) == 0 {
		return nil
	}
	return &domain.ValidationError{Message: validationFailedMessage, Issues: f}
}
