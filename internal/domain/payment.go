package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer pays for a sale.
type PaymentMethod string

// Supported payment methods.
const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

// DefaultPaymentMethod is selected on every new session.
const DefaultPaymentMethod = PaymentCard

// IsValid reports whether m is a supported method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobile:
		return true
	}
	return false
}

// Immediate reports whether payment is taken at the counter without a
// confirmation step.
func (m PaymentMethod) Immediate() bool {
	return m == PaymentCash || m == PaymentCard
}

// ParsePaymentMethod converts s into a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
	}
	return m, nil
}

// PendingMobilePayment is the payment request shown to the customer while a
// mobile sale waits for confirmation.
type PendingMobilePayment struct {
	AmountDue          decimal.Decimal `json:"amount_due"`
	Currency           string          `json:"currency"`
	PaymentURI         string          `json:"payment_uri"`
	QRCodeURL          string          `json:"qr_code_url"`
	DisplayTitle       string          `json:"display_title"`
	DisplayDescription string          `json:"display_description"`
	CreatedAt          time.Time       `json:"created_at"`
}

// MobilePaymentIssuer builds the payment request for a mobile sale.
type MobilePaymentIssuer interface {
	Issue(amountDue decimal.Decimal, now time.Time) PendingMobilePayment
}
