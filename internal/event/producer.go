package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	pkgkafka "github.com/wellknownalpha/bloom-pos/pkg/kafka"
	"github.com/wellknownalpha/bloom-pos/pkg/logger"
)

// Kafka topics for Bloom POS events.
const (
	TopicSaleCompleted          = "bloompos.sale.completed"
	TopicMobilePaymentRequested = "bloompos.mobile_payment.requested"
	TopicInventoryChanged       = "bloompos.inventory.changed"
	TopicCustomerChanged        = "bloompos.customer.changed"
)

// Aggregate types.
const (
	AggregateTypeSession  = "pos_session"
	AggregateTypeProduct  = "product"
	AggregateTypeCustomer = "customer"
)

// SourceBloomPOS identifies events originating from this server.
const SourceBloomPOS = "bloom-pos"

// MetadataTerminalID names the metadata entry carrying the requesting terminal.
const MetadataTerminalID = "terminal_id"

// Change actions carried by inventory and customer events.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionStockDeducted = "stock_deducted"
)

// SoldLine is one cart line in a sale event. Money is fixed to two places.
type SoldLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

// SaleCompletedData is the payload for a sale.completed event.
type SaleCompletedData struct {
	SessionID     string     `json:"session_id"`
	TerminalID    string     `json:"terminal_id"`
	PaymentMethod string     `json:"payment_method"`
	Confirmation  string     `json:"confirmation"`
	AmountDue     string     `json:"amount_due"`
	Lines         []SoldLine `json:"lines"`
	CompletedAt   time.Time  `json:"completed_at"`
}

// MobilePaymentRequestedData is the payload for a mobile_payment.requested event.
type MobilePaymentRequestedData struct {
	SessionID   string    `json:"session_id"`
	TerminalID  string    `json:"terminal_id"`
	AmountDue   string    `json:"amount_due"`
	Currency    string    `json:"currency"`
	PaymentURI  string    `json:"payment_uri"`
	RequestedAt time.Time `json:"requested_at"`
}

// InventoryChangedData is the payload for an inventory.changed event.
type InventoryChangedData struct {
	Action     string `json:"action"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name,omitempty"`
	Category   string `json:"category,omitempty"`
	UnitPrice  string `json:"unit_price,omitempty"`
	StockLevel int    `json:"stock_level"`
	Quantity   int    `json:"quantity,omitempty"`
}

// CustomerChangedData is the payload for a customer.changed event.
type CustomerChangedData struct {
	Action     string `json:"action"`
	CustomerID string `json:"customer_id"`
	Name       string `json:"name,omitempty"`
}

// Sink is what the producer writes envelopes to. *pkgkafka.Producer
// satisfies it.
type Sink interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Discard drops every event. It is used when Kafka is disabled.
type Discard struct{}

func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }

// Producer publishes Bloom POS domain events.
type Producer struct {
	sink   Sink
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(sink Sink, logger *slog.Logger) *Producer {
	return &Producer{sink: sink, logger: logger}
}

// PublishSaleCompleted publishes a sale.completed event for a completed
// immediate or confirmed mobile sale.
func (p *Producer) PublishSaleCompleted(ctx context.Context, sessionID, terminalID string, res domain.SaleResult) error {
	completedAt := time.Now().UTC()
	if res.CompletedAt != nil {
		completedAt = *res.CompletedAt
	}

	lines := make([]SoldLine, 0, len(res.Lines))
	for _, l := range res.Lines {
		lines = append(lines, SoldLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Subtotal:  l.Subtotal().StringFixed(2),
		})
	}

	data := SaleCompletedData{
		SessionID:     sessionID,
		TerminalID:    terminalID,
		PaymentMethod: string(res.PaymentMethod),
		Confirmation:  string(res.Confirmation),
		AmountDue:     res.AmountDue.StringFixed(2),
		Lines:         lines,
		CompletedAt:   completedAt,
	}

	if err := p.publish(ctx, TopicSaleCompleted, sessionID, AggregateTypeSession, data); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "published sale.completed event",
		slog.String("session_id", sessionID),
		slog.String("amount_due", data.AmountDue),
	)
	return nil
}

// PublishMobilePaymentRequested publishes a mobile_payment.requested event.
func (p *Producer) PublishMobilePaymentRequested(ctx context.Context, sessionID, terminalID string, pending domain.PendingMobilePayment) error {
	data := MobilePaymentRequestedData{
		SessionID:   sessionID,
		TerminalID:  terminalID,
		AmountDue:   pending.AmountDue.StringFixed(2),
		Currency:    pending.Currency,
		PaymentURI:  pending.PaymentURI,
		RequestedAt: pending.CreatedAt,
	}

	if err := p.publish(ctx, TopicMobilePaymentRequested, sessionID, AggregateTypeSession, data); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "published mobile_payment.requested event",
		slog.String("session_id", sessionID),
		slog.String("amount_due", data.AmountDue),
	)
	return nil
}

// PublishInventoryChanged publishes an inventory.changed event. quantity is
// only set for stock deductions.
func (p *Producer) PublishInventoryChanged(ctx context.Context, action string, product *domain.Product, quantity int) error {
	data := InventoryChangedData{
		Action:     action,
		ProductID:  product.ID,
		Name:       product.Name,
		Category:   product.Category,
		StockLevel: product.StockLevel,
		Quantity:   quantity,
	}
	if action != ActionDeleted {
		data.UnitPrice = product.UnitPrice.StringFixed(2)
	}

	return p.publish(ctx, TopicInventoryChanged, product.ID, AggregateTypeProduct, data)
}

// PublishCustomerChanged publishes a customer.changed event.
func (p *Producer) PublishCustomerChanged(ctx context.Context, action string, customer *domain.Customer) error {
	data := CustomerChangedData{
		Action:     action,
		CustomerID: customer.ID,
		Name:       customer.Name,
	}
	return p.publish(ctx, TopicCustomerChanged, customer.ID, AggregateTypeCustomer, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(ctx, topic, aggregateID, aggregateType, SourceBloomPOS, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.TerminalIDFromContext(ctx); id != "" {
		event.WithMetadata(MetadataTerminalID, id)
	}
	if err := p.sink.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
