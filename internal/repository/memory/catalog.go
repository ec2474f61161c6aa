// Package memory holds mutex-guarded in-process stores, seeded with the
// starter catalog. They are the default backend for a single-till shop.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/repository"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

// ProductStore implements repository.ProductRepository.
// Products are kept newest first.
type ProductStore struct {
	mu       sync.RWMutex
	products []domain.Product
}

var _ repository.ProductRepository = (*ProductStore)(nil)

// NewProductStore returns a store holding seed in the given order.
func NewProductStore(seed []domain.Product) *ProductStore {
	return &ProductStore{products: slices.Clone(seed)}
}

// List returns matching products, newest first.
func (s *ProductStore) List(_ context.Context, search string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Product, 0, len(s.products))
	for i := range s.products {
		if s.products[i].Matches(search) {
			matched = append(matched, s.products[i])
		}
	}
	return matched, nil
}

// GetByID returns a copy of the product.
func (s *ProductStore) GetByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, apperrors.NotFound("product", id)
	}
	p := s.products[i]
	return &p, nil
}

// Create puts p at the front of the list.
func (s *ProductStore) Create(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(p.ID) >= 0 {
		return apperrors.AlreadyExists("product", "id", p.ID)
	}
	s.products = slices.Insert(s.products, 0, *p)
	return nil
}

// Update replaces the stored product in place.
func (s *ProductStore) Update(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(p.ID)
	if i < 0 {
		return apperrors.NotFound("product", p.ID)
	}
	s.products[i] = *p
	return nil
}

// Delete removes the product.
func (s *ProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return apperrors.NotFound("product", id)
	}
	s.products = slices.Delete(s.products, i, i+1)
	return nil
}

// DeductStock lowers the stock level, flooring at zero.
func (s *ProductStore) DeductStock(_ context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return apperrors.NotFound("product", id)
	}
	s.products[i].StockLevel = max(s.products[i].StockLevel-quantity, 0)
	return nil
}

// Stats aggregates the catalog.
func (s *ProductStore) Stats(_ context.Context, lowStockThreshold int) (repository.InventoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := repository.InventoryStats{Items: len(s.products)}
	for i := range s.products {
		stats.StockUnits += s.products[i].StockLevel
		if s.products[i].StockLevel < lowStockThreshold {
			stats.LowStock++
		}
	}
	return stats, nil
}

func (s *ProductStore) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p domain.Product) bool { return p.ID == id })
}
