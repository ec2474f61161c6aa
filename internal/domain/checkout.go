package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SessionState is the resting state of a checkout session between requests.
// Validating is transient and never stored.
type SessionState string

const (
	StateIdle                       SessionState = "idle"
	StateAwaitingMobileConfirmation SessionState = "awaiting_mobile_confirmation"
)

// SaleOutcome is the result of a process-sale or confirm request.
type SaleOutcome string

const (
	OutcomeRejectedEmptyCart          SaleOutcome = "rejected_empty_cart"
	OutcomeCompletedImmediate         SaleOutcome = "completed_immediate"
	OutcomeAwaitingMobileConfirmation SaleOutcome = "awaiting_mobile_confirmation"
	OutcomeCompletedConfirmed         SaleOutcome = "completed_confirmed"
)

// Completed reports whether the outcome ends a sale.
func (o SaleOutcome) Completed() bool {
	return o == OutcomeCompletedImmediate || o == OutcomeCompletedConfirmed
}

// Confirmation records how payment for a completed sale was established.
type Confirmation string

const (
	// ConfirmationImmediate is cash or card taken at the counter.
	ConfirmationImmediate Confirmation = "immediate"
	// ConfirmationPresumed is a mobile payment the cashier closed without a
	// gateway callback. No verified variant exists yet.
	ConfirmationPresumed Confirmation = "presumed"
)

// SaleResult describes what a checkout step did.
type SaleResult struct {
	Outcome       SaleOutcome           `json:"outcome"`
	PaymentMethod PaymentMethod         `json:"payment_method"`
	AmountDue     decimal.Decimal       `json:"amount_due"`
	Lines         []CartLine            `json:"lines,omitempty"`
	Pending       *PendingMobilePayment `json:"pending_payment,omitempty"`
	Confirmation  Confirmation          `json:"confirmation,omitempty"`
	Notification  Notification          `json:"notification"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
}

// Session is the checkout state of one POS terminal: its cart, the selected
// payment method and any mobile payment awaiting confirmation. All changes go
// through its methods.
type Session struct {
	id         string
	terminalID string
	cart       Cart
	method     PaymentMethod
	state      SessionState
	pending    *PendingMobilePayment
	version    int
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSession returns an idle session with an empty cart and the default
// payment method.
func NewSession(id, terminalID string, now time.Time) *Session {
	return &Session{
		id:         id,
		terminalID: terminalID,
		method:     DefaultPaymentMethod,
		state:      StateIdle,
		createdAt:  now,
		updatedAt:  now,
	}
}

// ID is the session's unique id.
func (s *Session) ID() string { return s.id }

// TerminalID is the POS terminal that owns the session.
func (s *Session) TerminalID() string { return s.terminalID }

// PaymentMethod is the method the next ProcessSale will use.
func (s *Session) PaymentMethod() PaymentMethod { return s.method }

// State is the resting checkout state.
func (s *Session) State() SessionState { return s.state }

// Version is the optimistic-lock version of the last save.
func (s *Session) Version() int { return s.version }

// CreatedAt is when the terminal first opened the session.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt is the time of the last change.
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// Lines returns a copy of the cart lines.
func (s *Session) Lines() []CartLine { return s.cart.Lines() }

// CartTotal is recomputed from the cart lines on each call.
func (s *Session) CartTotal() decimal.Decimal { return s.cart.Total() }

// ItemCount is the number of units in the cart.
func (s *Session) ItemCount() int { return s.cart.ItemCount() }

// CartLine returns the line for productID.
func (s *Session) CartLine(id string) (CartLine, bool) { return s.cart.Line(id) }

// Pending returns a copy of the mobile payment awaiting confirmation, or nil.
func (s *Session) Pending() *PendingMobilePayment {
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// SetVersion is called by stores after a successful optimistic save.
func (s *Session) SetVersion(v int) {
	s.version = v
}

// AddToCart adds one unit of p. The cart is locked with ErrPaymentPending
// while a mobile payment awaits confirmation.
func (s *Session) AddToCart(p Product, now time.Time) error {
	if err := s.checkCartUnlocked(); err != nil {
		return err
	}
	s.cart.Add(p)
	s.updatedAt = now
	return nil
}

// RemoveFromCart removes the line for productID if present.
func (s *Session) RemoveFromCart(productID string, now time.Time) error {
	if err := s.checkCartUnlocked(); err != nil {
		return err
	}
	if s.cart.Remove(productID) {
		s.updatedAt = now
	}
	return nil
}

// UpdateQuantity sets a line's quantity; zero or less removes it.
func (s *Session) UpdateQuantity(productID string, quantity int, now time.Time) error {
	if err := s.checkCartUnlocked(); err != nil {
		return err
	}
	s.cart.UpdateQuantity(productID, quantity)
	s.updatedAt = now
	return nil
}

// checkCartUnlocked keeps the cart equal to what the pending amount was
// computed from, so a confirmed sale reports exactly the lines charged.
func (s *Session) checkCartUnlocked() error {
	if s.state == StateAwaitingMobileConfirmation {
		return ErrPaymentPending
	}
	return nil
}

// SelectPaymentMethod changes the method used by the next ProcessSale.
func (s *Session) SelectPaymentMethod(m PaymentMethod, now time.Time) error {
	if !m.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, m)
	}
	s.method = m
	s.updatedAt = now
	return nil
}

// ProcessSale runs the checkout for the current cart and payment method.
//
// An empty cart is rejected with ErrEmptyCart and nothing changes. Cash and
// card complete at once and clear the cart. Mobile snapshots the total, issues
// a payment request and waits for ConfirmMobilePayment with the cart intact.
// Calling ProcessSale while a mobile payment is pending abandons it and issues
// a new one from the current cart.
func (s *Session) ProcessSale(issuer MobilePaymentIssuer, now time.Time) (SaleResult, error) {
	if s.cart.IsEmpty() {
		return SaleResult{
			Outcome:       OutcomeRejectedEmptyCart,
			PaymentMethod: s.method,
			AmountDue:     decimal.Zero,
			Notification:  emptyCartNotice(),
		}, ErrEmptyCart
	}

	amountDue := s.cart.Total()

	if s.method == PaymentMobile {
		pending := issuer.Issue(amountDue, now)
		s.pending = &pending
		s.state = StateAwaitingMobileConfirmation
		s.updatedAt = now

		return SaleResult{
			Outcome:       OutcomeAwaitingMobileConfirmation,
			PaymentMethod: s.method,
			AmountDue:     amountDue,
			Lines:         s.cart.Lines(),
			Pending:       s.Pending(),
			Notification:  mobilePaymentRequestedNotice(),
		}, nil
	}

	lines := s.cart.Lines()
	s.cart.Clear()
	s.pending = nil
	s.state = StateIdle
	s.updatedAt = now

	return SaleResult{
		Outcome:       OutcomeCompletedImmediate,
		PaymentMethod: s.method,
		AmountDue:     amountDue,
		Lines:         lines,
		Confirmation:  ConfirmationImmediate,
		Notification:  saleProcessedNotice(amountDue, s.method),
		CompletedAt:   &now,
	}, nil
}

// ConfirmMobilePayment closes the pending mobile payment as presumed paid,
// clears the cart and returns to idle. It fails with ErrNoPendingPayment when
// nothing is awaiting confirmation.
func (s *Session) ConfirmMobilePayment(now time.Time) (SaleResult, error) {
	if s.state != StateAwaitingMobileConfirmation || s.pending == nil {
		return SaleResult{}, ErrNoPendingPayment
	}

	pending := *s.pending
	lines := s.cart.Lines()

	s.cart.Clear()
	s.pending = nil
	s.state = StateIdle
	s.updatedAt = now

	return SaleResult{
		Outcome:       OutcomeCompletedConfirmed,
		PaymentMethod: PaymentMobile,
		AmountDue:     pending.AmountDue,
		Lines:         lines,
		Pending:       &pending,
		Confirmation:  ConfirmationPresumed,
		Notification:  saleConfirmedNotice(),
		CompletedAt:   &now,
	}, nil
}

type sessionJSON struct {
	ID         string                `json:"id"`
	TerminalID string                `json:"terminal_id"`
	Cart       Cart                  `json:"cart"`
	Method     PaymentMethod         `json:"payment_method"`
	State      SessionState          `json:"state"`
	Pending    *PendingMobilePayment `json:"pending_payment,omitempty"`
	Version    int                   `json:"version"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// MarshalJSON encodes the full session for persistence.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionJSON{
		ID:         s.id,
		TerminalID: s.terminalID,
		Cart:       s.cart,
		Method:     s.method,
		State:      s.state,
		Pending:    s.pending,
		Version:    s.version,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	})
}

// UnmarshalJSON restores a persisted session. Inconsistent state (awaiting
// without a pending payment or the reverse) is normalised to idle.
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Session{
		id:         raw.ID,
		terminalID: raw.TerminalID,
		cart:       raw.Cart,
		method:     raw.Method,
		state:      raw.State,
		pending:    raw.Pending,
		version:    raw.Version,
		createdAt:  raw.CreatedAt,
		updatedAt:  raw.UpdatedAt,
	}
	if !s.method.IsValid() {
		s.method = DefaultPaymentMethod
	}
	if s.state != StateAwaitingMobileConfirmation || s.pending == nil {
		s.state = StateIdle
		s.pending = nil
	}
	return nil
}
