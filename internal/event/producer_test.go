package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	pkgkafka "github.com/wellknownalpha/bloom-pos/pkg/kafka"
	"github.com/wellknownalpha/bloom-pos/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type recordingSink struct {
	events []published
	err    error
}

func (s *recordingSink) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, published{topic: topic, event: e})
	return nil
}

func newTestProducer() (*Producer, *recordingSink) {
	sink := &recordingSink{}
	return NewProducer(sink, slog.New(slog.NewTextHandler(io.Discard, nil))), sink
}

func TestPublishSaleCompleted(t *testing.T) {
	p, sink := newTestProducer()
	at := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ctx = logger.WithTerminalID(ctx, "till-1")

	res := domain.SaleResult{
		Outcome:       domain.OutcomeCompletedImmediate,
		PaymentMethod: domain.PaymentCard,
		AmountDue:     decimal.RequireFromString("51.98"),
		Confirmation:  domain.ConfirmationImmediate,
		Lines: []domain.CartLine{
			{ProductID: "1", Name: "Red Roses (Dozen)", UnitPrice: decimal.RequireFromString("25.99"), Quantity: 2},
		},
		CompletedAt: &at,
	}

	require.NoError(t, p.PublishSaleCompleted(ctx, "sess-1", "till-1", res))
	require.Len(t, sink.events, 1)

	got := sink.events[0]
	assert.Equal(t, TopicSaleCompleted, got.topic)
	assert.Equal(t, "sess-1", got.event.AggregateID)
	assert.Equal(t, AggregateTypeSession, got.event.AggregateType)
	assert.Equal(t, "corr-1", got.event.CorrelationID)
	assert.Equal(t, "till-1", got.event.Metadata[MetadataTerminalID])

	var data SaleCompletedData
	require.NoError(t, got.event.UnmarshalData(&data))
	assert.Equal(t, "51.98", data.AmountDue)
	assert.Equal(t, "card", data.PaymentMethod)
	assert.Equal(t, "immediate", data.Confirmation)
	require.Len(t, data.Lines, 1)
	assert.Equal(t, "51.98", data.Lines[0].Subtotal)
	assert.True(t, data.CompletedAt.Equal(at))
}

func TestPublishMobilePaymentRequested(t *testing.T) {
	p, sink := newTestProducer()
	pending := domain.PendingMobilePayment{
		AmountDue:  decimal.RequireFromString("18.5"),
		Currency:   "USD",
		PaymentURI: "upi://pay?pa=merchant@exampleupi",
	}

	require.NoError(t, p.PublishMobilePaymentRequested(context.Background(), "sess-2", "till-2", pending))

	var data MobilePaymentRequestedData
	require.NoError(t, sink.events[0].event.UnmarshalData(&data))
	assert.Equal(t, TopicMobilePaymentRequested, sink.events[0].topic)
	assert.Equal(t, "18.50", data.AmountDue)
	assert.Equal(t, "till-2", data.TerminalID)
}

func TestPublishInventoryChanged_DeletedOmitsPrice(t *testing.T) {
	p, sink := newTestProducer()
	product := &domain.Product{ID: "3", Name: "Glass Vase (Medium)", UnitPrice: decimal.NewFromInt(12)}

	require.NoError(t, p.PublishInventoryChanged(context.Background(), ActionDeleted, product, 0))
	require.NoError(t, p.PublishInventoryChanged(context.Background(), ActionUpdated, product, 0))

	var deleted, updated InventoryChangedData
	require.NoError(t, sink.events[0].event.UnmarshalData(&deleted))
	require.NoError(t, sink.events[1].event.UnmarshalData(&updated))
	assert.Empty(t, deleted.UnitPrice)
	assert.Equal(t, "12.00", updated.UnitPrice)
	assert.Equal(t, "3", sink.events[0].event.AggregateID)
}

func TestPublishCustomerChanged(t *testing.T) {
	p, sink := newTestProducer()

	require.NoError(t, p.PublishCustomerChanged(context.Background(), ActionCreated, &domain.Customer{ID: "c-1", Name: "Dana"}))

	var data CustomerChangedData
	require.NoError(t, sink.events[0].event.UnmarshalData(&data))
	assert.Equal(t, TopicCustomerChanged, sink.events[0].topic)
	assert.Equal(t, "created", data.Action)
	assert.Empty(t, sink.events[0].event.Metadata)
}

func TestPublish_SinkErrorIsWrapped(t *testing.T) {
	p, sink := newTestProducer()
	sink.err = errors.New("broker down")

	err := p.PublishCustomerChanged(context.Background(), ActionDeleted, &domain.Customer{ID: "c-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish bloompos.customer.changed event")
	assert.ErrorIs(t, err, sink.err)
}

func TestDiscard(t *testing.T) {
	p := NewProducer(Discard{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, p.PublishCustomerChanged(context.Background(), ActionCreated, &domain.Customer{ID: "c"}))
}
