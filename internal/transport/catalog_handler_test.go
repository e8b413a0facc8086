package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ferre-pos/internal/backend"
	"ferre-pos/internal/catalog"
	"ferre-pos/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Mock backend client for testing
type mockBackendClient struct {
	createProduct func(ctx context.Context, req backend.CreateProductRequest) (*domain.Product, error)
}

func (m *mockBackendClient) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	return nil, nil
}

func (m *mockBackendClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return nil, nil
}

func (m *mockBackendClient) CreateProduct(ctx context.Context, req backend.CreateProductRequest) (*domain.Product, error) {
	if m.createProduct != nil {
		return m.createProduct(ctx, req)
	}
	return nil, errors.New("not configured")
}

func (m *mockBackendClient) ListStock(ctx context.Context, filter backend.StockFilter) ([]domain.StockRow, error) {
	return nil, nil
}

func (m *mockBackendClient) CreateOrder(ctx context.Context, branchID int64, customer, status string) (*domain.Order, error) {
	return nil, errors.New("not configured")
}

func (m *mockBackendClient) CreateOrderLine(ctx context.Context, req backend.OrderLineRequest) (*domain.OrderLine, error) {
	return nil, errors.New("not configured")
}

func (m *mockBackendClient) DeleteOrderLine(ctx context.Context, lineID int64) error {
	return nil
}

func (m *mockBackendClient) CancelOrder(ctx context.Context, orderID int64) error {
	return nil
}

func (m *mockBackendClient) InitPayment(ctx context.Context, req backend.PaymentRequest) (string, error) {
	return "", errors.New("not configured")
}

func seededCatalog() *catalog.Store {
	store := catalog.NewStore()
	store.SetBranches([]domain.Branch{
		{ID: 1, Name: "Casa Matriz", Address: "Av. Principal 123", Region: "RM"},
		{ID: 2, Name: "Sucursal Norte", Address: "Calle Norte 45", Region: "RM"},
	})
	store.SetProducts([]domain.Product{
		{ID: 10, Code: "MART-01", Name: "Martillo Carpintero", Brand: "Stanley"},
		{ID: 11, Code: "DEST-02", Name: "Destornillador Phillips", Brand: "Bauker"},
		{ID: 12, Code: "SIER-03", Name: "Sierra Circular", Brand: "Makita"},
	})
	store.SetStock([]domain.StockRow{
		{ID: 100, Product: 10, Branch: 1, Quantity: 5, Price: 9990},
		{ID: 101, Product: 10, Branch: 2, Quantity: 0, Price: 9990},
		{ID: 102, Product: 11, Branch: 1, Quantity: 20, Price: 2490},
	})
	return store
}

func newCatalogRouter(store *catalog.Store, client backend.Client) *chi.Mux {
	logger := zap.NewNop()
	router := chi.NewRouter()
	NewCatalogHandler(store, client, logger).RegisterRoutes(router)
	return router
}

func TestListProducts_SearchFilter(t *testing.T) {
	router := newCatalogRouter(seededCatalog(), &mockBackendClient{})

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "empty term returns all", query: "", want: 3},
		{name: "matches name case-insensitively", query: "martillo", want: 1},
		{name: "matches brand", query: "makita", want: 1},
		{name: "matches code", query: "DEST", want: 1},
		{name: "no match returns empty", query: "taladro", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products?search="+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}

			var products []domain.Product
			if err := json.Unmarshal(w.Body.Bytes(), &products); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(products) != tt.want {
				t.Errorf("expected %d products, got %d", tt.want, len(products))
			}
		})
	}
}

func TestCreateProduct_AppendsOnSuccess(t *testing.T) {
	store := seededCatalog()
	client := &mockBackendClient{
		createProduct: func(ctx context.Context, req backend.CreateProductRequest) (*domain.Product, error) {
			return &domain.Product{ID: 13, Code: req.Code, Name: req.Name, Brand: req.Brand}, nil
		},
	}
	router := newCatalogRouter(store, client)

	body, _ := json.Marshal(CreateProductRequest{Code: "TALD-04", Name: "Taladro Percutor", Brand: "Bosch"})
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if _, ok := store.ProductByID(13); !ok {
		t.Error("expected the confirmed product to be appended to the catalog")
	}
}

func TestCreateProduct_DuplicateCode(t *testing.T) {
	client := &mockBackendClient{
		createProduct: func(ctx context.Context, req backend.CreateProductRequest) (*domain.Product, error) {
			return nil, &backend.FieldError{Field: "codigo", Message: "producto with this codigo already exists."}
		},
	}
	router := newCatalogRouter(seededCatalog(), client)

	body, _ := json.Marshal(CreateProductRequest{Code: "MART-01", Name: "Martillo", Brand: "Stanley"})
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	var resp struct {
		Error struct {
			Details map[string]interface{} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if _, ok := resp.Error.Details["codigo"]; !ok {
		t.Errorf("expected the error to be attributed to codigo, got %v", resp.Error.Details)
	}
}

func TestCreateProduct_ValidationFailure(t *testing.T) {
	router := newCatalogRouter(seededCatalog(), &mockBackendClient{})

	// Brand missing
	body := []byte(`{"codigo":"X-01","nombre":"Algo"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetStock_BothFilters(t *testing.T) {
	router := newCatalogRouter(seededCatalog(), &mockBackendClient{})

	t.Run("existing row", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stock?product=10&branch=1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var row domain.StockRow
		if err := json.Unmarshal(w.Body.Bytes(), &row); err != nil {
			t.Fatalf("failed to decode row: %v", err)
		}
		if row.Price != 9990 {
			t.Errorf("expected price 9990, got %v", row.Price)
		}
	})

	t.Run("zero quantity is still a row", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stock?product=10&branch=2", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for a zero-quantity row, got %d", w.Code)
		}
	})

	t.Run("missing row is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stock?product=12&branch=1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for a missing row, got %d", w.Code)
		}
	})
}

func TestGetStock_PartialFilter(t *testing.T) {
	router := newCatalogRouter(seededCatalog(), &mockBackendClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/stock?product=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var rows []domain.StockRow
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("failed to decode rows: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows for product 10, got %d", len(rows))
	}
}

func TestListBranches(t *testing.T) {
	router := newCatalogRouter(seededCatalog(), &mockBackendClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/branches", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var branches []domain.Branch
	if err := json.Unmarshal(w.Body.Bytes(), &branches); err != nil {
		t.Fatalf("failed to decode branches: %v", err)
	}
	if len(branches) != 2 {
		t.Errorf("expected 2 branches, got %d", len(branches))
	}
}
