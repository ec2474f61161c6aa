package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const placeholderImage = "https://placehold.co/100x100.png"

// SeedProducts is the starter inventory loaded into an empty in-memory store.
func SeedProducts(now time.Time) []Product {
	p := func(id, name, category, price string, stock int, desc, image string) Product {
		return Product{
			ID:          id,
			Name:        name,
			Category:    category,
			UnitPrice:   decimal.RequireFromString(price),
			StockLevel:  stock,
			Description: desc,
			ImageURL:    image,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return []Product{
		p("1", "Red Roses (Dozen)", CategoryFlowers, "25.99", 50, "Classic red roses, perfect for romance.", placeholderImage),
		p("2", "White Lilies (Bunch)", CategoryFlowers, "18.50", 30, "Elegant white lilies for various occasions.", placeholderImage),
		p("3", "Glass Vase (Medium)", CategoryVases, "12.00", 20, "Standard medium-sized glass vase.", placeholderImage),
		p("4", "Floral Foam Brick", CategorySupplies, "2.50", 100, "Essential for arranging flowers.", placeholderImage),
		p("5", "Orchid Plant", CategoryPlants, "35.00", 15, "", placeholderImage),
		p("6", "Chocolates Box", CategoryGifts, "15.75", 25, "", placeholderImage),
	}
}

// SeedCustomers is the starter customer list loaded into an empty in-memory store.
func SeedCustomers(now time.Time) []Customer {
	c := func(id, name, email, phone, prefs string, history ...string) Customer {
		if history == nil {
			history = []string{}
		}
		return Customer{
			ID:              id,
			Name:            name,
			Email:           email,
			Phone:           phone,
			Preferences:     prefs,
			PurchaseHistory: history,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}
	return []Customer{
		c("1", "Alice Wonderland", "alice@example.com", "555-1234", "Loves tulips and pastel colors.", "Order #1001", "Order #1005"),
		c("2", "Bob The Builder", "bob@example.com", "555-5678", "Prefers hardy plants, dislikes lilies.", "Order #1002"),
		c("3", "Charlie Brown", "charlie@example.com", "555-8765", "Birthday arrangements in February."),
	}
}
