package domain

import "errors"

// Domain errors. The service layer maps these onto pkg/errors AppErrors.
var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrNoPendingPayment      = errors.New("no mobile payment is awaiting confirmation")
	ErrPaymentPending        = errors.New("cart is locked while a mobile payment awaits confirmation")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrProductOutOfStock     = errors.New("product is out of stock")
	ErrSuggestionUnavailable = errors.New("arrangement suggestion unavailable")
)
