package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Notification variants.
const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Notification is the user-facing message produced by a checkout step.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

// FormatAmount renders a money amount the way receipts and messages show it.
func FormatAmount(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

func emptyCartNotice() Notification {
	return Notification{
		Title:       "Empty Cart",
		Description: "Please add items to the cart before processing sale.",
		Variant:     VariantDestructive,
	}
}

func saleProcessedNotice(total decimal.Decimal, method PaymentMethod) Notification {
	return Notification{
		Title:       "Sale Processed!",
		Description: fmt.Sprintf("Total: %s. Payment via %s.", FormatAmount(total), method),
		Variant:     VariantDefault,
	}
}

func mobilePaymentRequestedNotice() Notification {
	return Notification{
		Title:       "UPI QR Code Generated",
		Description: "Scan the QR with your UPI app to complete payment.",
		Variant:     VariantDefault,
	}
}

func saleConfirmedNotice() Notification {
	return Notification{
		Title:       "Sale Completed!",
		Description: "Thank you for your purchase. Payment presumed received.",
		Variant:     VariantDefault,
	}
}
