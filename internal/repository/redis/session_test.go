package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

func setupTestRedis(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionRepository(client, 12*time.Hour), mr
}

func sampleSession(t *testing.T) *domain.Session {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	s := domain.NewSession("sess-001", "till-1", now)
	require.NoError(t, s.AddToCart(domain.SeedProducts(now)[0], now))
	require.NoError(t, s.AddToCart(domain.SeedProducts(now)[0], now))
	return s
}

func TestSessionRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background(), "till-404")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionRepository_Get_InvalidJSON(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.HSet("pos:session:till-bad", "version", "1", "data", "{{not-json")

	_, err := repo.Get(context.Background(), "till-bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal session")
}

func TestSessionRepository_SaveThenGet(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()
	sess := sampleSession(t)

	require.NoError(t, repo.Save(ctx, sess, 0))
	assert.Equal(t, 1, sess.Version())
	assert.Equal(t, "1", mr.HGet("pos:session:till-1", "version"))
	assert.Equal(t, 12*time.Hour, mr.TTL("pos:session:till-1"))

	got, err := repo.Get(ctx, "till-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-001", got.ID())
	assert.Equal(t, 1, got.Version())
	assert.Equal(t, "51.98", got.CartTotal().StringFixed(2))

	require.NoError(t, repo.Save(ctx, got, 1))
	assert.Equal(t, "2", mr.HGet("pos:session:till-1", "version"))
}

func TestSessionRepository_Save_StaleVersionConflicts(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()
	mr.HSet("pos:session:till-1", "version", "5", "data", "{}")

	sess := sampleSession(t)
	err := repo.Save(ctx, sess, 4)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 0, sess.Version())
	assert.Equal(t, "5", mr.HGet("pos:session:till-1", "version"))
}

func TestSessionRepository_Save_ConflictKeepsLoadedVersion(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()
	mr.HSet("pos:session:till-1", "version", "5", "data", "{}")

	sess := sampleSession(t)
	sess.SetVersion(3)
	err := repo.Save(ctx, sess, 3)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 3, sess.Version())
}

func TestSessionRepository_Save_FirstWriteLosesToExisting(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleSession(t), 0))
	err := repo.Save(ctx, sampleSession(t), 0)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestSessionRepository_Save_PendingPaymentSurvives(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sess := sampleSession(t)
	require.NoError(t, sess.SelectPaymentMethod(domain.PaymentMobile, now))
	_, err := sess.ProcessSale(fixedIssuer{}, now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, sess, 0))

	got, err := repo.Get(ctx, "till-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingMobileConfirmation, got.State())
	require.NotNil(t, got.Pending())
	assert.Equal(t, "upi://pay?test", got.Pending().PaymentURI)
}

func TestSessionRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleSession(t), 0))
	require.NoError(t, repo.Delete(ctx, "till-1"))
	assert.False(t, mr.Exists("pos:session:till-1"))

	require.NoError(t, repo.Save(ctx, sampleSession(t), 0))
}

func TestSessionRepository_RedisDown(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "till-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)

	sess := sampleSession(t)
	err = repo.Save(context.Background(), sess, 0)
	require.Error(t, err)
	assert.Equal(t, 0, sess.Version())
}

type fixedIssuer struct{}

func (fixedIssuer) Issue(amount decimal.Decimal, now time.Time) domain.PendingMobilePayment {
	return domain.PendingMobilePayment{AmountDue: amount, Currency: "USD", PaymentURI: "upi://pay?test", CreatedAt: now}
}
