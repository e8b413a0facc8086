package domain

// Branch represents a physical retail location. Branches are immutable
// reference data loaded once at startup.
type Branch struct {
	ID      int64  `json:"id"`
	Name    string `json:"nombre"`
	Address string `json:"direccion"`
	Region  string `json:"region"`
}

// Product represents a catalog product. The backend owns product creation;
// this service only reads products and appends newly created ones.
type Product struct {
	ID          int64  `json:"id"`
	Code        string `json:"codigo"`
	Name        string `json:"nombre"`
	Brand       string `json:"marca"`
	Description string `json:"descripcion"`
}

// StockRow is the stock level and pricing of one product at one branch.
// There is one row per (product, branch) pair; a missing row is a distinct
// state from a row with zero quantity.
type StockRow struct {
	ID       int64   `json:"id"`
	Product  int64   `json:"producto"`
	Branch   int64   `json:"sucursal"`
	Quantity int     `json:"cantidad"`
	Price    float64 `json:"precio"`
	PriceUSD float64 `json:"precio_usd"`
}
