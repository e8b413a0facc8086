package transport

import (
	"net/http"
	"strconv"

	"ferre-pos/internal/cart"
	"ferre-pos/internal/catalog"
	"ferre-pos/internal/currency"
	"ferre-pos/internal/domain"
	"ferre-pos/internal/fx"
	"ferre-pos/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddItemRequest puts a product in the cart. The captured price comes
// from the stock row for the selected branch, not from the client.
type AddItemRequest struct {
	ProductID int64 `json:"producto_id" validate:"required"`
	BranchID  int64 `json:"sucursal_id" validate:"required"`
	Quantity  int   `json:"cantidad"`
}

// UpdateItemRequest replaces a line's quantity.
type UpdateItemRequest struct {
	Quantity int `json:"cantidad"`
}

// CartView is the cart as rendered to the terminal.
type CartView struct {
	Items             []domain.CartLine `json:"items"`
	Subtotal          float64           `json:"subtotal"`
	SubtotalFormatted string            `json:"subtotal_formatted"`
	TotalUSD          string            `json:"total_usd,omitempty"`
}

// CartHandler serves the in-progress sale.
type CartHandler struct {
	cart          *cart.Cart
	catalog       *catalog.Store
	quotes        fx.Client
	baseCurrency  string
	quoteCurrency string
	logger        *zap.Logger
}

func NewCartHandler(c *cart.Cart, store *catalog.Store, quotes fx.Client, base, quote string, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:          c,
		catalog:       store,
		quotes:        quotes,
		baseCurrency:  base,
		quoteCurrency: quote,
		logger:        logger,
	}
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.View)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateItem)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Post("/convert", h.ConvertTotal)
	})
}

func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.view())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, ok := h.catalog.ProductByID(req.ProductID)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	row, ok := h.catalog.StockFor(req.ProductID, req.BranchID)
	if !ok {
		middleware.RespondWithError(w, http.StatusNotFound, "stock not available for this product at the selected branch")
		return
	}

	h.cart.Add(product, req.Quantity, row.Price)
	middleware.RespondWithJSON(w, http.StatusOK, h.view())
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdateItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		// An unparseable quantity corrects to 1 rather than failing the
		// edit, matching the quantity input's behavior.
		req.Quantity = 1
	}

	h.cart.UpdateQuantity(productID, req.Quantity)
	middleware.RespondWithJSON(w, http.StatusOK, h.view())
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	h.cart.Remove(productID)
	middleware.RespondWithJSON(w, http.StatusOK, h.view())
}

// ConvertTotal fetches the exchange rate and converts the subtotal. A
// failed quote clears any previous conversion so the display is never
// stale.
func (h *CartHandler) ConvertTotal(w http.ResponseWriter, r *http.Request) {
	rate, err := h.quotes.Quote(r.Context(), h.baseCurrency, h.quoteCurrency)
	if err != nil {
		h.logger.Warn("Exchange rate fetch failed", zap.Error(err))
		h.cart.ClearConvertedTotal()
		middleware.RespondWithError(w, http.StatusBadGateway, "could not fetch the exchange rate")
		return
	}

	total := h.cart.ConvertTotal(rate)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"rate":      rate.String(),
		"total_usd": total.StringFixed(2),
	})
}

func (h *CartHandler) view() CartView {
	subtotal := h.cart.Subtotal()
	view := CartView{
		Items:             h.cart.Lines(),
		Subtotal:          subtotal,
		SubtotalFormatted: currency.FormatCLP(subtotal),
	}
	if total, ok := h.cart.ConvertedTotal(); ok {
		view.TotalUSD = total.StringFixed(2)
	}
	return view
}
