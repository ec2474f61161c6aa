package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wellknownalpha/bloom-pos/internal/repository"
)

// DashboardSummary is the shop overview.
type DashboardSummary struct {
	InventoryItems    int
	StockUnits        int
	LowStockItems     int
	LowStockThreshold int
	Customers         int
	TodaySales        decimal.Decimal
	TodaySaleCount    int
}

// DashboardService aggregates counts from the stores and the sales tally.
type DashboardService struct {
	products          repository.ProductRepository
	customers         repository.CustomerRepository
	tally             *SalesTally
	lowStockThreshold int
	now               func() time.Time
}

// NewDashboardService creates a new dashboard service. Items with fewer than
// lowStockThreshold units count as low stock.
func NewDashboardService(products repository.ProductRepository, customers repository.CustomerRepository, tally *SalesTally, lowStockThreshold int) *DashboardService {
	return &DashboardService{
		products:          products,
		customers:         customers,
		tally:             tally,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

// Summary collects the current overview.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	stats, err := s.products.Stats(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, fmt.Errorf("inventory stats: %w", err)
	}

	customers, err := s.customers.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	summary := &DashboardSummary{
		InventoryItems:    stats.Items,
		StockUnits:        stats.StockUnits,
		LowStockItems:     stats.LowStock,
		LowStockThreshold: s.lowStockThreshold,
		Customers:         customers,
		TodaySales:        decimal.Zero,
	}
	if s.tally != nil {
		summary.TodaySales, summary.TodaySaleCount = s.tally.Today(s.now())
	}
	return summary, nil
}
