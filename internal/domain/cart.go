package domain

// CartLine is one product's quantity and captured price within an
// in-progress sale. UnitPrice is a snapshot taken when the line was added;
// later stock price changes do not propagate to it.
type CartLine struct {
	Product   Product `json:"producto"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precio"`
}

// Total returns the line total (quantity x captured unit price).
func (l CartLine) Total() float64 {
	return float64(l.Quantity) * l.UnitPrice
}
