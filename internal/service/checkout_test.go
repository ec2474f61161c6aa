package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/event"
	"github.com/wellknownalpha/bloom-pos/internal/payment/upi"
	"github.com/wellknownalpha/bloom-pos/internal/repository/memory"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

// --- Mock session repository ---

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Get(ctx context.Context, terminalID string) (*domain.Session, error) {
	args := m.Called(ctx, terminalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) Save(ctx context.Context, s *domain.Session, expectedVersion int) error {
	return m.Called(ctx, s, expectedVersion).Error(0)
}

func (m *mockSessionRepository) Delete(ctx context.Context, terminalID string) error {
	return m.Called(ctx, terminalID).Error(0)
}

// --- Fixture ---

type checkoutFixture struct {
	svc      *CheckoutService
	products *memory.ProductStore
	events   *mockPublisher
	tally    *SalesTally
}

func newCheckoutFixture(t *testing.T, opts CheckoutOptions) *checkoutFixture {
	t.Helper()

	issuer, err := upi.NewIssuer(upi.DefaultConfig())
	require.NoError(t, err)

	products := memory.NewProductStore(domain.SeedProducts(fixedNow))
	require.NoError(t, products.Create(context.Background(), &domain.Product{
		ID:         "sold-out",
		Name:       "Blue Orchid",
		Category:   domain.CategoryFlowers,
		UnitPrice:  decimal.RequireFromString("40.00"),
		StockLevel: 0,
	}))

	events := new(mockPublisher)
	tally := NewSalesTally(time.UTC)
	svc := NewCheckoutService(memory.NewSessionStore(), products, issuer, events, tally, newTestLogger(), opts)
	svc.now = func() time.Time { return fixedNow }

	return &checkoutFixture{svc: svc, products: products, events: events, tally: tally}
}

// --- Tests ---

func TestGetSession_NewTerminal(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})

	sess, err := f.svc.GetSession(context.Background(), "till-1")

	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID())
	assert.Equal(t, "till-1", sess.TerminalID())
	assert.Equal(t, domain.PaymentCard, sess.PaymentMethod())
	assert.Equal(t, domain.StateIdle, sess.State())
	assert.Empty(t, sess.Lines())
	assert.Zero(t, sess.Version())
}

func TestGetSession_MissingTerminal(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})

	_, err := f.svc.GetSession(context.Background(), "")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_IncrementsAndTotals(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "1")
	require.NoError(t, err)
	sess, err := f.svc.AddItem(ctx, "till-1", "1")
	require.NoError(t, err)

	require.Len(t, sess.Lines(), 1)
	assert.Equal(t, 2, sess.Lines()[0].Quantity)
	assert.Equal(t, "51.98", sess.CartTotal().StringFixed(2))
	assert.Equal(t, 2, sess.Version())

	// The session is shared by later calls on the same terminal.
	again, err := f.svc.GetSession(ctx, "till-1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID(), again.ID())
	assert.Equal(t, 2, again.ItemCount())
}

func TestAddItem_TerminalsAreIsolated(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "1")
	require.NoError(t, err)

	other, err := f.svc.GetSession(ctx, "till-2")
	require.NoError(t, err)
	assert.Empty(t, other.Lines())
}

func TestAddItem_UnknownProduct(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})

	_, err := f.svc.AddItem(context.Background(), "till-1", "nope")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddItem_OutOfStockRejected(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "sold-out")

	appErr := requireAppError(t, err, "OUT_OF_STOCK")
	assert.Equal(t, "Blue Orchid is out of stock.", appErr.Message)
	assert.ErrorIs(t, err, domain.ErrProductOutOfStock)

	sess, err := f.svc.GetSession(ctx, "till-1")
	require.NoError(t, err)
	assert.Empty(t, sess.Lines())
}

func TestUpdateItemQuantity(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "2")
	require.NoError(t, err)

	sess, err := f.svc.UpdateItemQuantity(ctx, "till-1", "2", 75)
	require.NoError(t, err)
	line, ok := sess.CartLine("2")
	require.True(t, ok)
	assert.Equal(t, 75, line.Quantity, "quantity is not clamped to stock")

	sess, err = f.svc.UpdateItemQuantity(ctx, "till-1", "2", 0)
	require.NoError(t, err)
	assert.Empty(t, sess.Lines())
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "3")
	require.NoError(t, err)

	sess, err := f.svc.RemoveItem(ctx, "till-1", "1")
	require.NoError(t, err)
	assert.Len(t, sess.Lines(), 1)

	sess, err = f.svc.RemoveItem(ctx, "till-1", "3")
	require.NoError(t, err)
	assert.Empty(t, sess.Lines())
}

func TestSelectPaymentMethod(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	ctx := context.Background()

	sess, err := f.svc.SelectPaymentMethod(ctx, "till-1", "cash")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCash, sess.PaymentMethod())

	_, err = f.svc.SelectPaymentMethod(ctx, "till-1", "bitcoin")
	requireAppError(t, err, "INVALID_INPUT")
}

func TestProcessSale_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})

	out, err := f.svc.ProcessSale(context.Background(), "till-1")

	assert.Nil(t, out)
	appErr := requireAppError(t, err, "EMPTY_CART")
	assert.Equal(t, "Please add items to the cart before processing sale.", appErr.Message)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	f.events.AssertNotCalled(t, "PublishSaleCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	total, count := f.tally.Today(fixedNow)
	assert.True(t, total.IsZero())
	assert.Zero(t, count)
}

func TestProcessSale_CardCompletesImmediately(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "1")
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "till-1", "1")
	require.NoError(t, err)

	f.events.On("PublishSaleCompleted", mock.Anything, mock.Anything, "till-1",
		mock.MatchedBy(func(res domain.SaleResult) bool {
			return res.AmountDue.StringFixed(2) == "51.98" && len(res.Lines) == 1
		})).Return(nil).Once()

	out, err := f.svc.ProcessSale(ctx, "till-1")

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCompletedImmediate, out.Result.Outcome)
	assert.Equal(t, domain.ConfirmationImmediate, out.Result.Confirmation)
	assert.Equal(t, "Total: $51.98. Payment via card.", out.Result.Notification.Description)
	assert.Empty(t, out.Session.Lines())
	assert.Equal(t, domain.StateIdle, out.Session.State())

	total, count := f.tally.Today(fixedNow)
	assert.Equal(t, "51.98", total.StringFixed(2))
	assert.Equal(t, 1, count)

	f.events.AssertExpectations(t)
}

func TestProcessSale_StockUntouchedByDefault(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "3")
	require.NoError(t, err)
	f.events.On("PublishSaleCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err = f.svc.ProcessSale(ctx, "till-1")
	require.NoError(t, err)

	vase, err := f.products.GetByID(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, 20, vase.StockLevel)
	f.events.AssertNotCalled(t, "PublishInventoryChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessSale_DeductStockWhenEnabled(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{DeductStock: true})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "3")
	require.NoError(t, err)
	_, err = f.svc.UpdateItemQuantity(ctx, "till-1", "3", 25)
	require.NoError(t, err)

	f.events.On("PublishSaleCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.events.On("PublishInventoryChanged", mock.Anything, event.ActionStockDeducted,
		mock.MatchedBy(func(p *domain.Product) bool { return p.ID == "3" && p.StockLevel == 0 }), 25).Return(nil).Once()

	_, err = f.svc.ProcessSale(ctx, "till-1")
	require.NoError(t, err)

	vase, err := f.products.GetByID(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, 0, vase.StockLevel)
	f.events.AssertExpectations(t)
}

func TestProcessSale_MobileThenConfirm(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "2")
	require.NoError(t, err)
	_, err = f.svc.SelectPaymentMethod(ctx, "till-1", "mobile")
	require.NoError(t, err)

	f.events.On("PublishMobilePaymentRequested", mock.Anything, mock.Anything, "till-1",
		mock.MatchedBy(func(p domain.PendingMobilePayment) bool {
			return p.AmountDue.StringFixed(2) == "18.50"
		})).Return(nil).Once()

	out, err := f.svc.ProcessSale(ctx, "till-1")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAwaitingMobileConfirmation, out.Result.Outcome)
	require.NotNil(t, out.Result.Pending)
	assert.Contains(t, out.Result.Pending.PaymentURI, "am=18.50")
	assert.Equal(t, domain.StateAwaitingMobileConfirmation, out.Session.State())
	assert.Len(t, out.Session.Lines(), 1, "cart is kept until confirmation")

	_, count := f.tally.Today(fixedNow)
	assert.Zero(t, count)

	f.events.On("PublishSaleCompleted", mock.Anything, out.Session.ID(), "till-1",
		mock.MatchedBy(func(res domain.SaleResult) bool {
			return res.Confirmation == domain.ConfirmationPresumed
		})).Return(nil).Once()

	done, err := f.svc.ConfirmMobilePayment(ctx, "till-1")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeCompletedConfirmed, done.Result.Outcome)
	assert.Equal(t, "Sale Completed!", done.Result.Notification.Title)
	assert.Equal(t, "18.50", done.Result.AmountDue.StringFixed(2))
	assert.Empty(t, done.Session.Lines())
	assert.Nil(t, done.Session.Pending())

	total, count := f.tally.Today(fixedNow)
	assert.Equal(t, "18.50", total.StringFixed(2))
	assert.Equal(t, 1, count)

	f.events.AssertExpectations(t)
}

func TestCartChangesRejectedWhileAwaitingMobile(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{DeductStock: true})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "2")
	require.NoError(t, err)
	_, err = f.svc.SelectPaymentMethod(ctx, "till-1", "mobile")
	require.NoError(t, err)
	f.events.On("PublishMobilePaymentRequested", mock.Anything, mock.Anything, "till-1", mock.Anything).Return(nil).Once()
	_, err = f.svc.ProcessSale(ctx, "till-1")
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(ctx, "till-1", "2")
	requireAppError(t, err, "CONFLICT")
	_, err = f.svc.UpdateItemQuantity(ctx, "till-1", "2", 0)
	requireAppError(t, err, "CONFLICT")
	_, err = f.svc.AddItem(ctx, "till-1", "1")
	requireAppError(t, err, "CONFLICT")

	sess, err := f.svc.GetSession(ctx, "till-1")
	require.NoError(t, err)
	require.Len(t, sess.Lines(), 1)
	assert.Equal(t, "18.50", sess.CartTotal().StringFixed(2))

	f.events.On("PublishSaleCompleted", mock.Anything, mock.Anything, "till-1",
		mock.MatchedBy(func(res domain.SaleResult) bool {
			return len(res.Lines) == 1 && res.AmountDue.StringFixed(2) == "18.50"
		})).Return(nil).Once()
	f.events.On("PublishInventoryChanged", mock.Anything, event.ActionStockDeducted, mock.Anything, 1).Return(nil).Once()

	done, err := f.svc.ConfirmMobilePayment(ctx, "till-1")
	require.NoError(t, err)
	require.Len(t, done.Result.Lines, 1)
	assert.Equal(t, "2", done.Result.Lines[0].ProductID)

	f.events.AssertExpectations(t)
}

func TestProcessSale_PublishFailureDoesNotFailSale(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "till-1", "4")
	require.NoError(t, err)
	f.events.On("PublishSaleCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	out, err := f.svc.ProcessSale(ctx, "till-1")

	require.NoError(t, err)
	assert.True(t, out.Result.Outcome.Completed())
}

func TestConfirmMobilePayment_NothingPending(t *testing.T) {
	f := newCheckoutFixture(t, CheckoutOptions{})

	_, err := f.svc.ConfirmMobilePayment(context.Background(), "till-1")

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestMutate_VersionConflict(t *testing.T) {
	repo := new(mockSessionRepository)
	issuer, err := upi.NewIssuer(upi.DefaultConfig())
	require.NoError(t, err)
	products := memory.NewProductStore(domain.SeedProducts(fixedNow))
	svc := NewCheckoutService(repo, products, issuer, new(mockPublisher), nil, newTestLogger(), CheckoutOptions{})
	ctx := context.Background()

	stored := domain.NewSession("sess-1", "till-1", fixedNow)
	stored.SetVersion(3)
	repo.On("Get", ctx, "till-1").Return(stored, nil)
	repo.On("Save", ctx, stored, 3).Return(apperrors.Conflict("session version mismatch"))

	_, err = svc.AddItem(ctx, "till-1", "1")

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	repo.AssertExpectations(t)
}

func TestMutate_StoreFailure(t *testing.T) {
	repo := new(mockSessionRepository)
	issuer, err := upi.NewIssuer(upi.DefaultConfig())
	require.NoError(t, err)
	svc := NewCheckoutService(repo, memory.NewProductStore(nil), issuer, new(mockPublisher), nil, newTestLogger(), CheckoutOptions{})
	ctx := context.Background()

	repo.On("Get", ctx, "till-1").Return(nil, assert.AnError)

	_, err = svc.SelectPaymentMethod(ctx, "till-1", "cash")

	assert.ErrorIs(t, err, assert.AnError)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}
