package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/internal/event"
	"github.com/wellknownalpha/bloom-pos/internal/repository"
	"github.com/wellknownalpha/bloom-pos/pkg/validator"
)

// InventoryEventPublisher publishes inventory change events.
type InventoryEventPublisher interface {
	PublishInventoryChanged(ctx context.Context, action string, product *domain.Product, quantity int) error
}

// InventoryService implements the business logic for inventory items.
type InventoryService struct {
	repo   repository.ProductRepository
	events InventoryEventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(repo repository.ProductRepository, events InventoryEventPublisher, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:   repo,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ProductInput holds the editable fields of an inventory item. Create and
// update both take the full set.
type ProductInput struct {
	Name        string
	Category    string
	UnitPrice   decimal.Decimal
	StockLevel  int
	Description string
	ImageURL    string
}

func (in *ProductInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.UnitPrice = in.UnitPrice.Round(2)
}

func (in ProductInput) validate() error {
	var issues fieldIssues
	if in.Name == "" {
		issues.add("name", "Name is required")
	}
	switch {
	case in.Category == "":
		issues.add("category", "Category is required")
	case !domain.IsValidCategory(in.Category):
		issues.add("category", "Category must be one of: "+strings.Join(domain.Categories(), ", "))
	}
	if in.StockLevel < 0 {
		issues.add("stock_level", "Quantity cannot be negative")
	}
	if in.UnitPrice.LessThan(domain.MinUnitPrice) {
		issues.add("unit_price", "Price must be positive")
	}
	if in.ImageURL != "" && validator.Var(in.ImageURL, "url") != nil {
		issues.add("image_url", "Must be a valid URL")
	}
	return issues.err()
}

// ListProducts returns inventory items matching search, newest first.
func (s *InventoryService) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	products, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetProduct retrieves an inventory item by its ID.
func (s *InventoryService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// CreateProduct validates input and adds a new inventory item.
func (s *InventoryService) CreateProduct(ctx context.Context, input ProductInput) (*domain.Product, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.Product{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Category:    input.Category,
		UnitPrice:   input.UnitPrice,
		StockLevel:  input.StockLevel,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.publish(ctx, event.ActionCreated, product)
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)
	return product, nil
}

// UpdateProduct replaces the editable fields of an existing item.
func (s *InventoryService) UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	product.Name = input.Name
	product.Category = input.Category
	product.UnitPrice = input.UnitPrice
	product.StockLevel = input.StockLevel
	product.Description = input.Description
	product.ImageURL = input.ImageURL
	product.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.publish(ctx, event.ActionUpdated, product)
	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", product.ID))
	return product, nil
}

// DeleteProduct removes an item and returns it as it was before deletion.
// Carts that already hold the product keep their snapshot line.
func (s *InventoryService) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}

	s.publish(ctx, event.ActionDeleted, product)
	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return product, nil
}

func (s *InventoryService) publish(ctx context.Context, action string, product *domain.Product) {
	if err := s.events.PublishInventoryChanged(ctx, action, product, 0); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish inventory.changed event",
			slog.String("product_id", product.ID),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
