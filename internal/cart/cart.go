// Package cart holds the in-progress sale: an ordered list of product
// lines with quantities and captured prices, plus an optional converted
// total in the quote currency.
package cart

import (
	"sync"

	"ferre-pos/internal/domain"

	"github.com/shopspring/decimal"
)

// Cart is mutated only by explicit clerk actions; stock push events never
// touch it.
type Cart struct {
	mu    sync.Mutex
	lines []domain.CartLine

	converted    decimal.Decimal
	hasConverted bool
}

func New() *Cart {
	return &Cart{}
}

// Add puts a product in the cart. Re-adding a product already present
// merges quantities into the existing line and keeps the price captured
// on the first add: first price wins, deliberately, so the price quoted
// to the customer never shifts mid-sale.
func (c *Cart) Add(product domain.Product, quantity int, unitPrice float64) {
	if quantity <= 0 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].Product.ID == product.ID {
			c.lines[i].Quantity += quantity
			return
		}
	}

	c.lines = append(c.lines, domain.CartLine{
		Product:   product,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// UpdateQuantity replaces the quantity of the matching line. Unknown
// products are a no-op; non-positive quantities correct to 1, mirroring
// how the quantity input treats unparseable values.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines[i].Quantity = quantity
			return
		}
	}
}

// Remove deletes the matching line.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Subtotal is recomputed from the lines on every call; there is no cached
// total to go stale.
func (c *Cart) Subtotal() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sum float64
	for _, l := range c.lines {
		sum += l.Total()
	}
	return sum
}

// Lines returns a snapshot of the cart in insertion order.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Clear empties the cart and drops any converted total.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.hasConverted = false
	c.converted = decimal.Zero
}

// ConvertTotal applies an externally fetched exchange rate to the current
// subtotal and remembers the result for display.
func (c *Cart) ConvertTotal(rate decimal.Decimal) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sum float64
	for _, l := range c.lines {
		sum += l.Total()
	}

	c.converted = decimal.NewFromFloat(sum).Mul(rate)
	c.hasConverted = true
	return c.converted
}

// ConvertedTotal returns the last converted total, if one is set.
func (c *Cart) ConvertedTotal() (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.converted, c.hasConverted
}

// ClearConvertedTotal unsets the converted total. Called when a quote
// fetch fails so the display never shows a stale conversion.
func (c *Cart) ClearConvertedTotal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.converted = decimal.Zero
	c.hasConverted = false
}
