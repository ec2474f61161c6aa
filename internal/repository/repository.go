package repository

import (
	"context"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
)

// InventoryStats summarises the catalog for the dashboard.
type InventoryStats struct {
	Items      int
	StockUnits int
	LowStock   int
}

// ProductRepository defines persistence for inventory items.
type ProductRepository interface {
	// List returns products whose name or category contains search, newest first.
	// An empty search returns everything.
	List(ctx context.Context, search string) ([]domain.Product, error)

	// GetByID retrieves a product by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, p *domain.Product) error

	// Update replaces the editable fields of an existing product.
	Update(ctx context.Context, p *domain.Product) error

	// Delete removes a product.
	Delete(ctx context.Context, id string) error

	// DeductStock lowers the stock level by quantity, never below zero.
	DeductStock(ctx context.Context, id string, quantity int) error

	// Stats counts items, total stock units and items below lowStockThreshold.
	Stats(ctx context.Context, lowStockThreshold int) (InventoryStats, error)
}

// CustomerRepository defines persistence for customer records.
type CustomerRepository interface {
	// List returns customers whose name or email contains search, newest first.
	List(ctx context.Context, search string) ([]domain.Customer, error)

	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) error
	Update(ctx context.Context, c *domain.Customer) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SessionRepository stores one checkout session per terminal.
type SessionRepository interface {
	// Get returns the terminal's session or an ErrNotFound error.
	Get(ctx context.Context, terminalID string) (*domain.Session, error)

	// Save stores s if the stored version still equals expectedVersion (zero
	// meaning no stored session) and bumps s to expectedVersion+1. A mismatch
	// fails with an ErrConflict error and stores nothing.
	Save(ctx context.Context, s *domain.Session, expectedVersion int) error

	// Delete discards the terminal's session.
	Delete(ctx context.Context, terminalID string) error
}
