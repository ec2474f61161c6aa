package service

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// SalesTally keeps a running total of completed sales for the current day in
// loc. It lives in process memory and starts from zero on restart.
type SalesTally struct {
	mu    sync.Mutex
	loc   *time.Location
	day   string
	total decimal.Decimal
	count int
}

// NewSalesTally creates a tally that rolls over at midnight in loc.
func NewSalesTally(loc *time.Location) *SalesTally {
	if loc == nil {
		loc = time.UTC
	}
	return &SalesTally{loc: loc, total: decimal.Zero}
}

// Record adds a completed sale made at t.
func (t *SalesTally) Record(at time.Time, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(at)
	t.total = t.total.Add(amount)
	t.count++
}

// Today returns the total and number of sales recorded on now's day.
func (t *SalesTally) Today(now time.Time) (decimal.Decimal, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(now)
	return t.total, t.count
}

func (t *SalesTally) rollover(now time.Time) {
	day := now.In(t.loc).Format(time.DateOnly)
	if day != t.day {
		t.day = day
		t.total = decimal.Zero
		t.count = 0
	}
}
