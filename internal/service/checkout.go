package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/event"
	"github.com/wellknownalpha/bloom-pos/internal/repository"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

// SaleEventPublisher is the part of the event producer the checkout needs.
type SaleEventPublisher interface {
	PublishSaleCompleted(ctx context.Context, sessionID, terminalID string, res domain.SaleResult) error
	PublishMobilePaymentRequested(ctx context.Context, sessionID, terminalID string, pending domain.PendingMobilePayment) error
	PublishInventoryChanged(ctx context.Context, action string, product *domain.Product, quantity int) error
}

// CheckoutOptions toggles optional checkout behaviour.
type CheckoutOptions struct {
	// DeductStock lowers catalog stock by the sold quantities once a sale
	// completes. Off by default: completed sales leave stock untouched.
	DeductStock bool
}

// CheckoutService runs the point-of-sale flow for each terminal's session.
type CheckoutService struct {
	sessions repository.SessionRepository
	products repository.ProductRepository
	issuer   domain.MobilePaymentIssuer
	events   SaleEventPublisher
	tally    *SalesTally
	logger   *slog.Logger
	opts     CheckoutOptions
	now      func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	sessions repository.SessionRepository,
	products repository.ProductRepository,
	issuer domain.MobilePaymentIssuer,
	events SaleEventPublisher,
	tally *SalesTally,
	logger *slog.Logger,
	opts CheckoutOptions,
) *CheckoutService {
	return &CheckoutService{
		sessions: sessions,
		products: products,
		issuer:   issuer,
		events:   events,
		tally:    tally,
		logger:   logger,
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SaleOutcome is the session after a sale call plus what the call produced.
type SaleOutcome struct {
	Session *domain.Session
	Result  domain.SaleResult
}

// GetSession returns the terminal's session, or a fresh unsaved one when the
// terminal has none yet.
func (s *CheckoutService) GetSession(ctx context.Context, terminalID string) (*domain.Session, error) {
	if terminalID == "" {
		return nil, apperrors.InvalidInput("terminal id is required")
	}
	return s.loadOrCreate(ctx, terminalID)
}

// AddItem puts one unit of the product in the cart. Out-of-stock products are
// rejected; beyond that the stock level is not enforced.
func (s *CheckoutService) AddItem(ctx context.Context, terminalID, productID string) (*domain.Session, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if !product.InStock() {
		return nil, apperrors.PreconditionFailed("OUT_OF_STOCK",
			fmt.Sprintf("%s is out of stock.", product.Name), domain.ErrProductOutOfStock)
	}

	sess, err := s.mutate(ctx, terminalID, func(sess *domain.Session, now time.Time) error {
		return sess.AddToCart(*product, now)
	})
	if err != nil {
		return nil, cartLockedError(err)
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("terminal_id", terminalID),
		slog.String("product_id", productID),
	)
	return sess, nil
}

// UpdateItemQuantity sets a line's quantity. Zero or less removes the line;
// there is no upper bound.
func (s *CheckoutService) UpdateItemQuantity(ctx context.Context, terminalID, productID string, quantity int) (*domain.Session, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	sess, err := s.mutate(ctx, terminalID, func(sess *domain.Session, now time.Time) error {
		return sess.UpdateQuantity(productID, quantity, now)
	})
	if err != nil {
		return nil, cartLockedError(err)
	}

	s.logger.InfoContext(ctx, "cart quantity updated",
		slog.String("terminal_id", terminalID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return sess, nil
}

// RemoveItem drops the product's line. Removing an absent product is a no-op.
func (s *CheckoutService) RemoveItem(ctx context.Context, terminalID, productID string) (*domain.Session, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	sess, err := s.mutate(ctx, terminalID, func(sess *domain.Session, now time.Time) error {
		return sess.RemoveFromCart(productID, now)
	})
	if err != nil {
		return nil, cartLockedError(err)
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("terminal_id", terminalID),
		slog.String("product_id", productID),
	)
	return sess, nil
}

// SelectPaymentMethod changes the method used by the next ProcessSale.
func (s *CheckoutService) SelectPaymentMethod(ctx context.Context, terminalID, method string) (*domain.Session, error) {
	m, err := domain.ParsePaymentMethod(method)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("payment method must be one of cash, card or mobile, got %q", method))
	}

	return s.mutate(ctx, terminalID, func(sess *domain.Session, now time.Time) error {
		return sess.SelectPaymentMethod(m, now)
	})
}

// ProcessSale checks out the cart with the selected payment method.
func (s *CheckoutService) ProcessSale(ctx context.Context, terminalID string) (*SaleOutcome, error) {
	var res domain.SaleResult

	sess, err := s.mutate(ctx, terminalID, func(sess *domain.Session, now time.Time) error {
		var err error
		res, err = sess.ProcessSale(s.issuer, now)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCart) {
			salesTotal.WithLabelValues(string(res.Outcome), string(res.PaymentMethod)).Inc()
			s.logger.InfoContext(ctx, "sale rejected: empty cart", slog.String("terminal_id", terminalID))
			return nil, apperrors.PreconditionFailed("EMPTY_CART", res.Notification.Description, err)
		}
		return nil, err
	}

	salesTotal.WithLabelValues(string(res.Outcome), string(res.PaymentMethod)).Inc()

	switch res.Outcome {
	case domain.OutcomeAwaitingMobileConfirmation:
		if err := s.events.PublishMobilePaymentRequested(ctx, sess.ID(), terminalID, *res.Pending); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish mobile_payment.requested event",
				slog.String("session_id", sess.ID()),
				slog.String("error", err.Error()),
			)
		}
		s.logger.InfoContext(ctx, "mobile payment requested",
			slog.String("terminal_id", terminalID),
			slog.String("amount_due", res.AmountDue.StringFixed(2)),
		)
	case domain.OutcomeCompletedImmediate:
		s.completeSale(ctx, sess, res)
	}

	return &SaleOutcome{Session: sess, Result: res}, nil
}

// ConfirmMobilePayment closes the pending mobile payment as presumed paid.
func (s *CheckoutService) ConfirmMobilePayment(ctx context.Context, terminalID string) (*SaleOutcome, error) {
	var res domain.SaleResult

	sess, err := s.mutate(ctx, terminalID, func(sess *domain.Session, now time.Time) error {
		var err error
		res, err = sess.ConfirmMobilePayment(now)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoPendingPayment) {
			return nil, apperrors.Conflict("no mobile payment is awaiting confirmation")
		}
		return nil, err
	}

	salesTotal.WithLabelValues(string(res.Outcome), string(res.PaymentMethod)).Inc()
	s.completeSale(ctx, sess, res)

	return &SaleOutcome{Session: sess, Result: res}, nil
}

// cartLockedError turns a cart change attempted during a pending mobile
// payment into a conflict.
func cartLockedError(err error) error {
	if errors.Is(err, domain.ErrPaymentPending) {
		return apperrors.Conflict("a mobile payment is awaiting confirmation; confirm it before changing the cart")
	}
	return err
}

// completeSale runs the side effects of a finished sale. None of them can
// undo the sale, so failures are logged only.
func (s *CheckoutService) completeSale(ctx context.Context, sess *domain.Session, res domain.SaleResult) {
	salesAmount.WithLabelValues(string(res.PaymentMethod)).Add(res.AmountDue.InexactFloat64())
	if s.tally != nil && res.CompletedAt != nil {
		s.tally.Record(*res.CompletedAt, res.AmountDue)
	}

	if err := s.events.PublishSaleCompleted(ctx, sess.ID(), sess.TerminalID(), res); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish sale.completed event",
			slog.String("session_id", sess.ID()),
			slog.String("error", err.Error()),
		)
	}

	if s.opts.DeductStock {
		s.deductStock(ctx, res.Lines)
	}

	s.logger.InfoContext(ctx, "sale completed",
		slog.String("terminal_id", sess.TerminalID()),
		slog.String("payment_method", string(res.PaymentMethod)),
		slog.String("confirmation", string(res.Confirmation)),
		slog.String("amount_due", res.AmountDue.StringFixed(2)),
	)
}

func (s *CheckoutService) deductStock(ctx context.Context, lines []domain.CartLine) {
	for _, l := range lines {
		if err := s.products.DeductStock(ctx, l.ProductID, l.Quantity); err != nil {
			s.logger.WarnContext(ctx, "failed to deduct stock",
				slog.String("product_id", l.ProductID),
				slog.Int("quantity", l.Quantity),
				slog.String("error", err.Error()),
			)
			continue
		}

		product, err := s.products.GetByID(ctx, l.ProductID)
		if err != nil {
			continue
		}
		if err := s.events.PublishInventoryChanged(ctx, event.ActionStockDeducted, product, l.Quantity); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish inventory.changed event",
				slog.String("product_id", l.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// mutate loads the session, applies fn and saves it with a version check. If
// fn fails nothing is saved.
func (s *CheckoutService) mutate(ctx context.Context, terminalID string, fn func(*domain.Session, time.Time) error) (*domain.Session, error) {
	if terminalID == "" {
		return nil, apperrors.InvalidInput("terminal id is required")
	}

	sess, err := s.loadOrCreate(ctx, terminalID)
	if err != nil {
		return nil, err
	}
	expectedVersion := sess.Version()

	if err := fn(sess, s.now()); err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, sess, expectedVersion); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			sessionConflicts.Inc()
			return nil, apperrors.Conflict("checkout session was modified concurrently, please retry")
		}
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *CheckoutService) loadOrCreate(ctx context.Context, terminalID string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, terminalID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return domain.NewSession(uuid.NewString(), terminalID, s.now()), nil
}
