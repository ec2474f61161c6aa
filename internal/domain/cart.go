package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CartLine is one product in the cart. Name, price and stock are copied from
// the catalog when the line is created and never refreshed.
type CartLine struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	StockLimit int             `json:"stock_limit"`
}

// Subtotal is UnitPrice x Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds at most one line per product, in the order products were first
// added. A line never has a quantity below 1.
type Cart struct {
	lines []CartLine
}

// Add puts one unit of p in the cart. There is no upper bound; StockLimit is
// informational only.
func (c *Cart) Add(p Product) {
	if i := c.indexOf(p.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, CartLine{
		ProductID:  p.ID,
		Name:       p.Name,
		Category:   p.Category,
		UnitPrice:  p.UnitPrice,
		Quantity:   1,
		StockLimit: p.StockLevel,
	})
}

// Remove deletes the line for productID. It reports whether a line existed.
func (c *Cart) Remove(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line. Unknown products are ignored.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	if i := c.indexOf(productID); i >= 0 {
		c.lines[i].Quantity = quantity
	}
}

// Total sums every line's subtotal. It is recomputed on each call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Line returns the line for productID.
func (c *Cart) Line(productID string) (CartLine, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.lines[i], true
	}
	return CartLine{}, false
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// MarshalJSON encodes the cart as its list of lines.
func (c Cart) MarshalJSON() ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []CartLine{}
	}
	return json.Marshal(lines)
}

// UnmarshalJSON restores a cart, dropping lines that would break the
// one-line-per-product or positive-quantity rules.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var lines []CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	c.lines = nil
	for _, l := range lines {
		if l.Quantity <= 0 || c.indexOf(l.ProductID) >= 0 {
			continue
		}
		c.lines = append(c.lines, l)
	}
	return nil
}
