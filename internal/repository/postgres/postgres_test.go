package postgres

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/pkg/database"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleProduct() *domain.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Product{
		ID:          "p-1",
		Name:        "Sunflower Bunch",
		Category:    domain.CategoryFlowers,
		UnitPrice:   decimal.RequireFromString("14.25"),
		StockLevel:  12,
		Description: "Bright and cheerful.",
		ImageURL:    "https://placehold.co/100x100.png",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func productRows(products ...*domain.Product) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "name", "category", "unit_price", "stock_level",
		"description", "image_url", "created_at", "updated_at",
	})
	for _, p := range products {
		rows.AddRow(p.ID, p.Name, p.Category, p.UnitPrice, p.StockLevel,
			p.Description, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	}
	return rows
}

func sampleCustomer() *domain.Customer {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Customer{
		ID:              "c-1",
		Name:            "Alice Wonderland",
		Email:           "alice@example.com",
		Phone:           "555-123-4567",
		Preferences:     "Pastels",
		PurchaseHistory: []string{"Order #1001"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func customerRows(customers ...*domain.Customer) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "name", "email", "phone", "preferences", "purchase_history", "created_at", "updated_at",
	})
	for _, c := range customers {
		rows.AddRow(c.ID, c.Name, c.Email, c.Phone, c.Preferences, c.PurchaseHistory, c.CreatedAt, c.UpdatedAt)
	}
	return rows
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func TestProductRepository_List_All(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products ORDER BY created_at DESC").
		WillReturnRows(productRows(p))

	got, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Sunflower Bunch", got[0].Name)
	assert.True(t, got[0].UnitPrice.Equal(p.UnitPrice))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_List_SearchEscapesWildcards(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM products WHERE name ILIKE \\$1 OR category ILIKE \\$1").
		WithArgs(`%50\%%`).
		WillReturnRows(productRows())

	got, err := repo.List(context.Background(), "50%")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectQuery("SELECT .+ FROM products WHERE id =").
		WithArgs(p.ID).
		WillReturnRows(productRows(p))
	mock.ExpectQuery("SELECT .+ FROM products WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.StockLevel)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Category, p.UnitPrice, p.StockLevel, p.Description, p.ImageURL, p.CreatedAt, p.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Category, p.UnitPrice, p.StockLevel, p.Description, p.ImageURL, p.CreatedAt, p.UpdatedAt).
		WillReturnError(errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	require.NoError(t, repo.Create(context.Background(), p))
	assert.ErrorIs(t, repo.Create(context.Background(), p), apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)
	p := sampleProduct()

	mock.ExpectExec("UPDATE products").
		WithArgs(p.Name, p.Category, p.UnitPrice, p.StockLevel, p.Description, p.ImageURL, p.UpdatedAt, p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), p)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Delete(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("DELETE FROM products WHERE id =").
		WithArgs("p-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(context.Background(), "p-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DeductStock(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectExec("UPDATE products SET stock_level = GREATEST").
		WithArgs(3, pgxmock.AnyArg(), "p-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE products SET stock_level = GREATEST").
		WithArgs(1, pgxmock.AnyArg(), "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.DeductStock(context.Background(), "p-1", 3))
	assert.ErrorIs(t, repo.DeductStock(context.Background(), "gone", 1), apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_Stats(t *testing.T) {
	mock := newMock(t)
	repo := NewProductRepository(mock)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum", "low"}).AddRow(6, 240, 0))

	stats, err := repo.Stats(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Items)
	assert.Equal(t, 240, stats.StockUnits)
	assert.Equal(t, 0, stats.LowStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

func TestCustomerRepository_ListAndGet(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)
	c := sampleCustomer()

	mock.ExpectQuery("SELECT .+ FROM customers WHERE name ILIKE \\$1 OR email ILIKE \\$1").
		WithArgs("%alice%").
		WillReturnRows(customerRows(c))
	mock.ExpectQuery("SELECT .+ FROM customers WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.List(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"Order #1001"}, got[0].PurchaseHistory)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_CreateSendsEmptyHistory(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)
	c := sampleCustomer()
	c.PurchaseHistory = nil

	mock.ExpectExec("INSERT INTO customers").
		WithArgs(c.ID, c.Name, c.Email, c.Phone, c.Preferences, []string{}, c.CreatedAt, c.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_UpdateLeavesHistory(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)
	c := sampleCustomer()

	mock.ExpectExec("UPDATE customers SET name = \\$1, email = \\$2, phone = \\$3, preferences = \\$4, updated_at = \\$5 WHERE id = \\$6").
		WithArgs(c.Name, c.Email, c.Phone, c.Preferences, c.UpdatedAt, c.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_DeleteAndCount(t *testing.T) {
	mock := newMock(t)
	repo := NewCustomerRepository(mock)

	mock.ExpectExec("DELETE FROM customers WHERE id =").
		WithArgs("c-9").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM customers").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	assert.ErrorIs(t, repo.Delete(context.Background(), "c-9"), apperrors.ErrNotFound)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Migrations
// ---------------------------------------------------------------------------

func TestMigrations_AreOrdered(t *testing.T) {
	names, err := database.MigrationFiles(Migrations())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"001_create_products.up.sql",
		"002_create_customers.up.sql",
		"003_seed_catalog.up.sql",
	}, names)

	seed, err := fs.ReadFile(Migrations(), "003_seed_catalog.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(seed), "Red Roses (Dozen)")
}
