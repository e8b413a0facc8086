// Package backend is the HTTP client for the retail backend that owns all
// persisted state: branches, products, per-branch stock, orders, order
// lines and the payment gateway handoff.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ferre-pos/internal/domain"
)

var (
	ErrStockNotFound = errors.New("stock row not found")
)

// FieldError is a validation failure the backend attributes to one request
// field, e.g. a duplicate product code.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CreateProductRequest carries the fields of a new catalog product.
type CreateProductRequest struct {
	Code        string `json:"codigo"`
	Name        string `json:"nombre"`
	Brand       string `json:"marca"`
	Description string `json:"descripcion"`
}

// StockFilter narrows a stock listing to one product and/or branch. Zero
// values mean "no filter".
type StockFilter struct {
	Product int64
	Branch  int64
}

// OrderLineRequest carries one line of an order being created.
type OrderLineRequest struct {
	Order     int64   `json:"pedido"`
	Product   int64   `json:"producto"`
	Quantity  int     `json:"cantidad"`
	UnitPrice float64 `json:"precio_unitario"`
}

// PaymentRequest initiates a payment with the gateway.
type PaymentRequest struct {
	BuyOrder  string  `json:"buy_order"`
	SessionID string  `json:"session_id"`
	Amount    float64 `json:"amount"`
}

// Client defines the operations this service consumes from the backend.
type Client interface {
	ListBranches(ctx context.Context) ([]domain.Branch, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error)
	ListStock(ctx context.Context, filter StockFilter) ([]domain.StockRow, error)
	CreateOrder(ctx context.Context, branchID int64, customer, status string) (*domain.Order, error)
	CreateOrderLine(ctx context.Context, req OrderLineRequest) (*domain.OrderLine, error)
	DeleteOrderLine(ctx context.Context, lineID int64) error
	CancelOrder(ctx context.Context, orderID int64) error
	InitPayment(ctx context.Context, req PaymentRequest) (string, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a backend client against the given base URL. The
// timeout applies per request; callers may impose tighter deadlines via
// context.
func NewClient(baseURL string, client *http.Client) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (c *httpClient) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	var branches []domain.Branch
	if err := c.getJSON(ctx, "/api/sucursales/", &branches); err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return branches, nil
}

func (c *httpClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.getJSON(ctx, "/api/productos/", &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (c *httpClient) CreateProduct(ctx context.Context, req CreateProductRequest) (*domain.Product, error) {
	resp, err := c.postJSON(ctx, "/api/grpc/create-product/", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read create-product response: %w", err)
	}

	if resp.StatusCode >= 400 {
		// The backend reports duplicate codes as a field-level error on
		// "codigo"; everything else is a generic failure.
		var fields map[string][]string
		if err := json.Unmarshal(body, &fields); err == nil {
			for _, msg := range fields["codigo"] {
				if strings.Contains(msg, "already exists") {
					return nil, &FieldError{Field: "codigo", Message: msg}
				}
			}
		}
		return nil, fmt.Errorf("failed to create product: backend returned %d", resp.StatusCode)
	}

	var product domain.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("failed to decode created product: %w", err)
	}
	return &product, nil
}

func (c *httpClient) ListStock(ctx context.Context, filter StockFilter) ([]domain.StockRow, error) {
	path := "/api/stock/"
	query := url.Values{}
	if filter.Product != 0 {
		query.Set("producto", strconv.FormatInt(filter.Product, 10))
	}
	if filter.Branch != 0 {
		query.Set("sucursal", strconv.FormatInt(filter.Branch, 10))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var rows []domain.StockRow
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	return rows, nil
}

func (c *httpClient) CreateOrder(ctx context.Context, branchID int64, customer, status string) (*domain.Order, error) {
	payload := map[string]interface{}{
		"sucursal": branchID,
		"cliente":  customer,
		"estado":   status,
	}

	resp, err := c.postJSON(ctx, "/api/pedidos/", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("failed to create order: backend returned %d", resp.StatusCode)
	}

	var order domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode created order: %w", err)
	}
	return &order, nil
}

func (c *httpClient) CreateOrderLine(ctx context.Context, req OrderLineRequest) (*domain.OrderLine, error) {
	resp, err := c.postJSON(ctx, "/api/detalles-pedido/", req)
	if err != nil {
		return nil, fmt.Errorf("failed to create order line: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("failed to create order line: backend returned %d", resp.StatusCode)
	}

	var line domain.OrderLine
	if err := json.NewDecoder(resp.Body).Decode(&line); err != nil {
		return nil, fmt.Errorf("failed to decode created order line: %w", err)
	}
	return &line, nil
}

func (c *httpClient) DeleteOrderLine(ctx context.Context, lineID int64) error {
	path := fmt.Sprintf("/api/detalles-pedido/%d/", lineID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete order line %d: %w", lineID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to delete order line %d: backend returned %d", lineID, resp.StatusCode)
	}
	return nil
}

func (c *httpClient) CancelOrder(ctx context.Context, orderID int64) error {
	payload := map[string]interface{}{"estado": domain.OrderStatusCancelled}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode cancel request: %w", err)
	}

	path := fmt.Sprintf("/api/pedidos/%d/", orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build cancel request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("failed to cancel order %d: backend returned %d", orderID, resp.StatusCode)
	}
	return nil
}

// InitPayment submits the payment request and returns the gateway's
// redirect payload verbatim. The payload is an opaque HTML fragment; the
// checkout workflow decides what to do with it.
func (c *httpClient) InitPayment(ctx context.Context, req PaymentRequest) (string, error) {
	resp, err := c.postJSON(ctx, "/api/pagos/webpay/init/", req)
	if err != nil {
		return "", fmt.Errorf("failed to initiate payment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("failed to initiate payment: backend returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read payment response: %w", err)
	}
	return string(body), nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *httpClient) postJSON(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.client.Do(req)
}
