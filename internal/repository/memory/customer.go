package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/repository"
	apperrors "github.com/wellknownalpha/bloom-pos/pkg/errors"
)

// CustomerStore implements repository.CustomerRepository, newest first.
type CustomerStore struct {
	mu        sync.RWMutex
	customers []domain.Customer
}

var _ repository.CustomerRepository = (*CustomerStore)(nil)

// NewCustomerStore returns a store holding seed in the given order.
func NewCustomerStore(seed []domain.Customer) *CustomerStore {
	s := &CustomerStore{customers: make([]domain.Customer, 0, len(seed))}
	for i := range seed {
		s.customers = append(s.customers, cloneCustomer(seed[i]))
	}
	return s
}

func (s *CustomerStore) List(_ context.Context, search string) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Customer, 0, len(s.customers))
	for i := range s.customers {
		if s.customers[i].Matches(search) {
			matched = append(matched, cloneCustomer(s.customers[i]))
		}
	}
	return matched, nil
}

func (s *CustomerStore) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, apperrors.NotFound("customer", id)
	}
	c := cloneCustomer(s.customers[i])
	return &c, nil
}

func (s *CustomerStore) Create(_ context.Context, c *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(c.ID) >= 0 {
		return apperrors.AlreadyExists("customer", "id", c.ID)
	}
	s.customers = slices.Insert(s.customers, 0, cloneCustomer(*c))
	return nil
}

func (s *CustomerStore) Update(_ context.Context, c *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(c.ID)
	if i < 0 {
		return apperrors.NotFound("customer", c.ID)
	}
	s.customers[i] = cloneCustomer(*c)
	return nil
}

func (s *CustomerStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return apperrors.NotFound("customer", id)
	}
	s.customers = slices.Delete(s.customers, i, i+1)
	return nil
}

func (s *CustomerStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers), nil
}

func (s *CustomerStore) indexOf(id string) int {
	return slices.IndexFunc(s.customers, func(c domain.Customer) bool { return c.ID == id })
}

func cloneCustomer(c domain.Customer) domain.Customer {
	c.PurchaseHistory = slices.Clone(c.PurchaseHistory)
	if c.PurchaseHistory == nil {
		c.PurchaseHistory = []string{}
	}
	return c
}
