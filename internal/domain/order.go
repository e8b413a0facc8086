package domain

// Order statuses as the backend spells them.
const (
	OrderStatusPending   = "pendiente"
	OrderStatusCancelled = "cancelado"
)

// Order is a server-side sales order. This service only issues creation
// requests; the backend owns the order once created.
type Order struct {
	ID       int64  `json:"id"`
	Branch   int64  `json:"sucursal"`
	Customer string `json:"cliente"`
	Date     string `json:"fecha"`
	Status   string `json:"estado"`
}

// OrderLine is one line item of a server-side order.
type OrderLine struct {
	ID        int64   `json:"id"`
	Order     int64   `json:"pedido"`
	Product   int64   `json:"producto"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precio_unitario"`
}
