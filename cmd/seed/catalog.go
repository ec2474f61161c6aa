package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
)

// seedNamespace makes generated IDs stable for a given seed.
var seedNamespace = uuid.MustParse("6f3c1f9e-8d0a-4b8e-9a53-1d2f0c7b5e41")

type itemDef struct {
	Name     string
	MinCents int64
	MaxCents int64
}

var catalog = map[string][]itemDef{
	domain.CategoryFlowers: {
		{"Roses", 1500, 4500},
		{"Tulips", 900, 2500},
		{"Lilies", 1200, 3200},
		{"Peonies", 2200, 5500},
		{"Carnations", 600, 1800},
		{"Sunflowers", 800, 2200},
		{"Hydrangeas", 1400, 3800},
		{"Ranunculus", 1600, 4200},
	},
	domain.CategoryVases: {
		{"Glass Vase", 800, 3000},
		{"Ceramic Vase", 1500, 6000},
		{"Bud Vase", 400, 1500},
		{"Cylinder Vase", 1000, 3500},
	},
	domain.CategoryPlants: {
		{"Orchid Plant", 2500, 6500},
		{"Peace Lily", 1800, 4500},
		{"Succulent Trio", 1200, 3000},
		{"Fiddle Leaf Fig", 3500, 9000},
	},
	domain.CategorySupplies: {
		{"Floral Foam Brick", 150, 400},
		{"Floral Tape", 200, 600},
		{"Wrapping Paper", 300, 900},
		{"Ribbon Spool", 250, 800},
	},
	domain.CategoryGifts: {
		{"Chocolates Box", 900, 2500},
		{"Scented Candle", 1200, 3500},
		{"Greeting Card", 200, 700},
		{"Teddy Bear", 1000, 3000},
	},
}

var (
	colours  = []string{"Red", "White", "Pink", "Yellow", "Lavender", "Peach", "Ivory", "Coral", "Burgundy", "Mixed"}
	variants = []string{"Single", "Bunch", "Dozen", "Small", "Medium", "Large", "Deluxe"}
)

// generateProducts returns count deterministic products for the given seed.
// Every product passes the inventory form rules.
func generateProducts(count int, seed int64, now time.Time) []domain.Product {
	rng := rand.New(rand.NewSource(seed))
	categories := domain.Categories()

	out := make([]domain.Product, 0, count)
	for i := 0; i < count; i++ {
		category := categories[rng.Intn(len(categories))]
		defs := catalog[category]
		def := defs[rng.Intn(len(defs))]

		name := fmt.Sprintf("%s %s (%s)", colours[rng.Intn(len(colours))], def.Name, variants[rng.Intn(len(variants))])
		cents := def.MinCents + rng.Int63n(def.MaxCents-def.MinCents+1)

		out = append(out, domain.Product{
			ID:          uuid.NewSHA1(seedNamespace, fmt.Appendf(nil, "%d:%d", seed, i)).String(),
			Name:        name,
			Category:    category,
			UnitPrice:   decimal.New(cents, -2),
			StockLevel:  rng.Intn(120),
			Description: fmt.Sprintf("%s from the bulk seed catalog.", def.Name),
			CreatedAt:   now.Add(-time.Duration(i) * time.Minute),
			UpdatedAt:   now,
		})
	}
	return out
}
