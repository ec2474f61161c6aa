package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product categories offered in the shop.
const (
	CategoryFlowers  = "Flowers"
	CategoryVases    = "Vases"
	CategoryPlants   = "Plants"
	CategorySupplies = "Supplies"
	CategoryGifts    = "Gifts"
)

// Categories returns the selectable product categories in display order.
func Categories() []string {
	return []string{CategoryFlowers, CategoryVases, CategoryPlants, CategorySupplies, CategoryGifts}
}

// IsValidCategory reports whether c is one of Categories.
func IsValidCategory(c string) bool {
	for _, v := range Categories() {
		if v == c {
			return true
		}
	}
	return false
}

// MinUnitPrice is the lowest price an inventory item may carry.
var MinUnitPrice = decimal.RequireFromString("0.01")

// Product is a sellable inventory item.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	StockLevel  int             `json:"stock_level"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InStock reports whether at least one unit is available.
func (p *Product) InStock() bool {
	return p.StockLevel > 0
}

// Matches reports whether term occurs in the name or category, ignoring case.
// An empty term matches everything.
func (p *Product) Matches(term string) bool {
	return containsFold(p.Name, term) || containsFold(p.Category, term)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
