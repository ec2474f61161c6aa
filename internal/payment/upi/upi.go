// Package upi builds UPI deep links and hosted QR image URLs for mobile
// payments. Nothing here talks to a payment network; the cashier confirms
// receipt by hand.
package upi

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
)

const (
	displayTitle       = "Scan UPI QR to Pay"
	displayDescription = "Scan the QR code with your UPI payment app."
)

// Config identifies the payee and the QR rendering service.
type Config struct {
	PayeeID      string
	PayeeName    string
	Currency     string
	QRServiceURL string
	QRSize       int
}

// DefaultConfig returns the placeholder merchant used in development.
func DefaultConfig() Config {
	return Config{
		PayeeID:      "merchant@exampleupi",
		PayeeName:    "Bloom POS",
		Currency:     "USD",
		QRServiceURL: "https://api.qrserver.com/v1/create-qr-code/",
		QRSize:       250,
	}
}

// Issuer implements domain.MobilePaymentIssuer.
type Issuer struct {
	cfg Config
}

var _ domain.MobilePaymentIssuer = (*Issuer)(nil)

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.PayeeID == "" {
		return nil, errors.New("upi: payee id is required")
	}
	if cfg.Currency == "" {
		return nil, errors.New("upi: currency is required")
	}
	if cfg.QRSize <= 0 {
		return nil, fmt.Errorf("upi: qr size must be positive, got %d", cfg.QRSize)
	}
	if _, err := url.ParseRequestURI(cfg.QRServiceURL); err != nil {
		return nil, fmt.Errorf("upi: qr service url: %w", err)
	}
	return &Issuer{cfg: cfg}, nil
}

// Issue builds the payment request for amountDue.
func (i *Issuer) Issue(amountDue decimal.Decimal, now time.Time) domain.PendingMobilePayment {
	uri := i.PaymentURI(amountDue)
	return domain.PendingMobilePayment{
		AmountDue:          amountDue,
		Currency:           i.cfg.Currency,
		PaymentURI:         uri,
		QRCodeURL:          i.QRCodeURL(uri),
		DisplayTitle:       displayTitle,
		DisplayDescription: displayDescription,
		CreatedAt:          now,
	}
}

// PaymentURI renders the upi://pay link. The payee address goes in as is;
// name and note are component-encoded.
func (i *Issuer) PaymentURI(amountDue decimal.Decimal) string {
	note := "Payment for " + i.cfg.PayeeName + " - Order Total: " + domain.FormatAmount(amountDue)
	return "upi://pay?pa=" + i.cfg.PayeeID +
		"&pn=" + EncodeComponent(i.cfg.PayeeName) +
		"&am=" + amountDue.StringFixed(2) +
		"&cu=" + i.cfg.Currency +
		"&tn=" + EncodeComponent(note)
}

// QRCodeURL points the QR service at the encoded payment URI.
func (i *Issuer) QRCodeURL(paymentURI string) string {
	size := fmt.Sprintf("%dx%d", i.cfg.QRSize, i.cfg.QRSize)
	return i.cfg.QRServiceURL + "?size=" + size + "&data=" + EncodeComponent(paymentURI) + "&qzone=1&margin=1"
}

var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s leaving only A-Z a-z 0-9 and - _ . ! ~ * ' ( )
// untouched, which is what UPI apps and the QR service expect.
func EncodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
