package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/event"
	"github.com/wellknownalpha/bloom-pos/internal/repository"
	"github.com/wellknownalpha/bloom-pos/pkg/validator"
)

const minPhoneLength = 10

// CustomerEventPublisher publishes customer change events.
type CustomerEventPublisher interface {
	PublishCustomerChanged(ctx context.Context, action string, customer *domain.Customer) error
}

// CustomerService implements the business logic for customer records.
type CustomerService struct {
	repo   repository.CustomerRepository
	events CustomerEventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewCustomerService creates a new customer service.
func NewCustomerService(repo repository.CustomerRepository, events CustomerEventPublisher, logger *slog.Logger) *CustomerService {
	return &CustomerService{
		repo:   repo,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CustomerInput holds the editable fields of a customer.
type CustomerInput struct {
	Name        string
	Email       string
	Phone       string
	Preferences string
}

func (in *CustomerInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Preferences = strings.TrimSpace(in.Preferences)
}

func (in CustomerInput) validate() error {
	var issues fieldIssues
	if in.Name == "" {
		issues.add("name", "Name is required")
	}
	if in.Email != "" && validator.Var(in.Email, "email") != nil {
		issues.add("email", "Invalid email address")
	}
	if in.Phone != "" && len(in.Phone) < minPhoneLength {
		issues.add("phone", "Phone number is too short")
	}
	return issues.err()
}

// ListCustomers returns customers matching search, newest first.
func (s *CustomerService) ListCustomers(ctx context.Context, search string) ([]domain.Customer, error) {
	customers, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

// GetCustomer retrieves a customer by ID.
func (s *CustomerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer by id: %w", err)
	}
	return customer, nil
}

// CreateCustomer adds a customer with an empty purchase history.
func (s *CustomerService) CreateCustomer(ctx context.Context, input CustomerInput) (*domain.Customer, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	customer := &domain.Customer{
		ID:              uuid.New().String(),
		Name:            input.Name,
		Email:           input.Email,
		Phone:           input.Phone,
		Preferences:     input.Preferences,
		PurchaseHistory: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.publish(ctx, event.ActionCreated, customer)
	s.logger.InfoContext(ctx, "customer created", slog.String("customer_id", customer.ID))
	return customer, nil
}

// UpdateCustomer replaces the editable fields. Purchase history is kept.
func (s *CustomerService) UpdateCustomer(ctx context.Context, id string, input CustomerInput) (*domain.Customer, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer for update: %w", err)
	}

	customer.Name = input.Name
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.Preferences = input.Preferences
	customer.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}

	s.publish(ctx, event.ActionUpdated, customer)
	s.logger.InfoContext(ctx, "customer updated", slog.String("customer_id", customer.ID))
	return customer, nil
}

// DeleteCustomer removes a customer and returns the deleted record.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete customer: %w", err)
	}

	s.publish(ctx, event.ActionDeleted, customer)
	s.logger.InfoContext(ctx, "customer deleted", slog.String("customer_id", id))
	return customer, nil
}

func (s *CustomerService) publish(ctx context.Context, action string, customer *domain.Customer) {
	if err := s.events.PublishCustomerChanged(ctx, action, customer); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish customer.changed event",
			slog.String("customer_id", customer.ID),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
