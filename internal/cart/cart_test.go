package cart

import (
	"math"
	"testing"

	"ferre-pos/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

var martillo = domain.Product{ID: 7, Code: "MART001", Name: "Martillo", Brand: "Stanley"}
var taladro = domain.Product{ID: 8, Code: "TALA002", Name: "Taladro", Brand: "Bosch"}

// Repeated adds of the same product merge into one line whose quantity is
// the sum and whose price is the one supplied on the first call.
func TestProperty_FirstPriceWinsAndQuantitiesSum(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("line quantity is the sum, price is the first", prop.ForAll(
		func(quantities []int, prices []int) bool {
			if len(quantities) == 0 || len(prices) == 0 {
				return true
			}

			c := New()
			wantQty := 0
			for i, q := range quantities {
				price := float64(prices[i%len(prices)])
				c.Add(martillo, q, price)
				if q <= 0 {
					q = 1
				}
				wantQty += q
			}

			lines := c.Lines()
			if len(lines) != 1 {
				return false
			}
			return lines[0].Quantity == wantQty &&
				lines[0].UnitPrice == float64(prices[0])
		},
		gen.SliceOf(gen.IntRange(-2, 50)).SuchThat(func(s []int) bool { return len(s) > 0 }),
		gen.SliceOf(gen.IntRange(100, 100000)).SuchThat(func(s []int) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// The subtotal always equals the sum over lines of quantity times unit
// price, whatever interleaving of add, update and remove ran before.
func TestProperty_SubtotalMatchesLines(t *testing.T) {
	properties := gopter.NewProperties(nil)

	products := []domain.Product{martillo, taladro, {ID: 9, Code: "CLAV003", Name: "Clavos"}}

	properties.Property("subtotal equals sum of line totals", prop.ForAll(
		func(ops []int) bool {
			c := New()

			for _, op := range ops {
				p := products[op%len(products)]
				switch op % 3 {
				case 0:
					c.Add(p, op%7, float64(1000+op))
				case 1:
					c.UpdateQuantity(p.ID, op%9)
				case 2:
					c.Remove(p.ID)
				}
			}

			var want float64
			for _, l := range c.Lines() {
				want += float64(l.Quantity) * l.UnitPrice
			}

			return math.Abs(c.Subtotal()-want) < 1e-9
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAddMergesOnlySameProduct(t *testing.T) {
	c := New()
	c.Add(martillo, 2, 15000)
	c.Add(taladro, 1, 89990)
	c.Add(martillo, 3, 16000) // different price, first wins

	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Quantity != 5 || lines[0].UnitPrice != 15000 {
		t.Errorf("martillo line = %d x %v, want 5 x 15000", lines[0].Quantity, lines[0].UnitPrice)
	}
	if got := c.Subtotal(); got != 5*15000+89990 {
		t.Errorf("subtotal = %v, want %v", got, 5*15000+89990)
	}
}

func TestUpdateQuantity(t *testing.T) {
	c := New()
	c.Add(martillo, 2, 15000)

	c.UpdateQuantity(martillo.ID, 4)
	if c.Lines()[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4", c.Lines()[0].Quantity)
	}

	// Unparseable input arrives here as a non-positive value and corrects
	// to 1.
	c.UpdateQuantity(martillo.ID, 0)
	if c.Lines()[0].Quantity != 1 {
		t.Errorf("quantity = %d, want 1", c.Lines()[0].Quantity)
	}

	// Unknown product is a no-op.
	c.UpdateQuantity(999, 10)
	if len(c.Lines()) != 1 {
		t.Error("update of unknown product changed the cart")
	}
}

func TestRemove(t *testing.T) {
	c := New()
	c.Add(martillo, 2, 15000)
	c.Add(taladro, 1, 89990)

	c.Remove(martillo.ID)

	lines := c.Lines()
	if len(lines) != 1 || lines[0].Product.ID != taladro.ID {
		t.Errorf("unexpected lines after remove: %+v", lines)
	}

	c.Remove(999) // no-op
	if c.Len() != 1 {
		t.Error("remove of unknown product changed the cart")
	}
}

func TestConvertTotal(t *testing.T) {
	c := New()
	c.Add(martillo, 2, 1000)

	rate := decimal.NewFromFloat(0.00105)
	got := c.ConvertTotal(rate)

	want := decimal.NewFromFloat(2000).Mul(rate)
	if !got.Equal(want) {
		t.Errorf("converted = %s, want %s", got, want)
	}

	stored, ok := c.ConvertedTotal()
	if !ok || !stored.Equal(want) {
		t.Errorf("stored converted total = %s, %v", stored, ok)
	}

	// A failed quote clears the display instead of leaving it stale.
	c.ClearConvertedTotal()
	if _, ok := c.ConvertedTotal(); ok {
		t.Error("converted total should be unset after clear")
	}
}

func TestClear(t *testing.T) {
	c := New()
	c.Add(martillo, 2, 1000)
	c.ConvertTotal(decimal.NewFromFloat(0.001))

	c.Clear()

	if c.Len() != 0 {
		t.Error("cart should be empty after clear")
	}
	if _, ok := c.ConvertedTotal(); ok {
		t.Error("converted total should be unset after clear")
	}
	if c.Subtotal() != 0 {
		t.Error("subtotal should be zero after clear")
	}
}
