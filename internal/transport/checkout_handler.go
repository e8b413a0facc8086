package transport

import (
	"errors"
	"fmt"
	"net/http"

	"ferre-pos/internal/cart"
	"ferre-pos/internal/catalog"
	"ferre-pos/internal/checkout"
	"ferre-pos/internal/domain"
	"ferre-pos/internal/middleware"
	"ferre-pos/internal/notification"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutRequest starts the checkout sequence for the current cart.
type CheckoutRequest struct {
	BranchID int64  `json:"sucursal_id"`
	Customer string `json:"cliente"`
}

// CheckoutResponse reports the workflow outcome.
type CheckoutResponse struct {
	State   string `json:"state"`
	OrderID int64  `json:"order_id,omitempty"`
	Message string `json:"message"`
}

// CheckoutHandler drives the checkout workflow from the terminal.
type CheckoutHandler struct {
	workflow      *checkout.Workflow
	cart          *cart.Cart
	catalog       *catalog.Store
	notifications *notification.Store
	logger        *zap.Logger
}

func NewCheckoutHandler(w *checkout.Workflow, c *cart.Cart, store *catalog.Store, n *notification.Store, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		workflow:      w,
		cart:          c,
		catalog:       store,
		notifications: n,
		logger:        logger,
	}
}

func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/checkout", h.Checkout)
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The workflow consumes a snapshot of the cart and branch taken now;
	// later mutations do not affect a checkout in flight.
	var branch *domain.Branch
	if b, ok := h.catalog.BranchByID(req.BranchID); ok {
		branch = &b
	}

	result, err := h.workflow.Run(r.Context(), checkout.Request{
		Branch:   branch,
		Customer: req.Customer,
		Lines:    h.cart.Lines(),
	})
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, checkout.ErrNoBranch),
			errors.Is(err, checkout.ErrEmptyCart),
			errors.Is(err, checkout.ErrNoCustomer):
			status = http.StatusBadRequest
		case errors.Is(err, checkout.ErrAlreadyRunning):
			status = http.StatusConflict
		}

		h.logger.Warn("Checkout failed",
			zap.String("state", string(result.State)),
			zap.Int64("order_id", result.OrderID),
			zap.Error(err),
		)
		middleware.RespondWithErrorDetails(w, status, result.Message, map[string]interface{}{
			"state":    string(result.State),
			"order_id": result.OrderID,
		})
		return
	}

	// The sale is on its way to the gateway; start the next one clean.
	h.cart.Clear()
	h.notifications.Add(
		fmt.Sprintf("Pedido #%d procesado exitosamente", result.OrderID),
		domain.CategoryOrder,
	)

	h.logger.Info("Checkout succeeded", zap.Int64("order_id", result.OrderID))
	middleware.RespondWithJSON(w, http.StatusOK, CheckoutResponse{
		State:   string(result.State),
		OrderID: result.OrderID,
		Message: result.Message,
	})
}
