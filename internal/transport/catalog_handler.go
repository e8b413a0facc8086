package transport

import (
	"errors"
	"net/http"
	"strconv"

	"ferre-pos/internal/backend"
	"ferre-pos/internal/catalog"
	"ferre-pos/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateProductRequest is the payload for registering a new product.
type CreateProductRequest struct {
	Code        string `json:"codigo" validate:"required"`
	Name        string `json:"nombre" validate:"required"`
	Brand       string `json:"marca" validate:"required"`
	Description string `json:"descripcion"`
}

// CatalogHandler serves branches, products and per-branch stock.
type CatalogHandler struct {
	store  *catalog.Store
	client backend.Client
	logger *zap.Logger
}

func NewCatalogHandler(store *catalog.Store, client backend.Client, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, client: client, logger: logger}
}

func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/branches", h.ListBranches)
	r.Get("/api/products", h.ListProducts)
	r.Post("/api/products", h.CreateProduct)
	r.Get("/api/stock", h.GetStock)
}

func (h *CatalogHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.store.Branches())
}

// ListProducts returns the product list, optionally narrowed by the
// "search" query parameter (case-insensitive match on name, code or
// brand).
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("search")
	middleware.RespondWithJSON(w, http.StatusOK, h.store.FilteredProducts(term))
}

// CreateProduct forwards the creation to the backend and, on success,
// appends the confirmed product to the in-memory list.
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.client.CreateProduct(r.Context(), backend.CreateProductRequest{
		Code:        req.Code,
		Name:        req.Name,
		Brand:       req.Brand,
		Description: req.Description,
	})
	if err != nil {
		var fieldErr *backend.FieldError
		if errors.As(err, &fieldErr) {
			// Duplicate codes come back attributed to the code field.
			middleware.RespondWithErrorDetails(w, http.StatusConflict, "product code already exists",
				map[string]interface{}{fieldErr.Field: fieldErr.Message})
			return
		}

		h.logger.Error("Product creation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "failed to create product")
		return
	}

	h.store.AppendProduct(*product)

	h.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("code", product.Code),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// GetStock returns stock rows, optionally filtered by product and
// branch. When both filters are present the unique row is returned, or a
// 404 that callers render as "not available", which is distinct from a
// row with zero quantity.
func (h *CatalogHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	productID := parseIDParam(r.URL.Query().Get("product"))
	branchID := parseIDParam(r.URL.Query().Get("branch"))

	if productID != 0 && branchID != 0 {
		row, ok := h.store.StockFor(productID, branchID)
		if !ok {
			middleware.RespondWithError(w, http.StatusNotFound, "stock not available for this product at the selected branch")
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, row)
		return
	}

	rows := h.store.Stock()
	if productID != 0 || branchID != 0 {
		filtered := rows[:0]
		for _, row := range rows {
			if (productID == 0 || row.Product == productID) &&
				(branchID == 0 || row.Branch == branchID) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	middleware.RespondWithJSON(w, http.StatusOK, rows)
}

func parseIDParam(raw string) int64 {
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
