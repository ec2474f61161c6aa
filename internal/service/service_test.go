package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

// --- Mock event publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishSaleCompleted(ctx context.Context, sessionID, terminalID string, res domain.SaleResult) error {
	return m.Called(ctx, sessionID, terminalID, res).Error(0)
}

func (m *mockPublisher) PublishMobilePaymentRequested(ctx context.Context, sessionID, terminalID string, pending domain.PendingMobilePayment) error {
	return m.Called(ctx, sessionID, terminalID, pending).Error(0)
}

func (m *mockPublisher) PublishInventoryChanged(ctx context.Context, action string, product *domain.Product, quantity int) error {
	return m.Called(ctx, action, product, quantity).Error(0)
}

func (m *mockPublisher) PublishCustomerChanged(ctx context.Context, action string, customer *domain.Customer) error {
	return m.Called(ctx, action, customer).Error(0)
}

// --- Test Helpers ---

var fixedNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func requireAppError(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}

func requireValidationError(t *testing.T, err error) *domain.ValidationError {
	t.Helper()
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr), "expected *ValidationError, got %v", err)
	return vErr
}
