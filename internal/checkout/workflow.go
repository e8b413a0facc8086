// Package checkout turns a cart snapshot into a server-side order, its
// line items, and a payment-gateway handoff. The steps are strictly
// sequential: each one's input depends on the previous one's output.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ferre-pos/internal/backend"
	"ferre-pos/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the workflow's position in the checkout sequence.
type State string

const (
	StateIdle              State = "idle"
	StateOrderCreating     State = "order_creating"
	StateLinesCreating     State = "lines_creating"
	StatePaymentInitiating State = "payment_initiating"
	StateRedirecting       State = "redirecting"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

// Validation failures, each resolved before any network call runs.
var (
	ErrNoBranch       = errors.New("select a branch before checking out")
	ErrEmptyCart      = errors.New("the cart is empty")
	ErrNoCustomer     = errors.New("enter the customer name")
	ErrAlreadyRunning = errors.New("a checkout is already in progress")
)

// Request is the snapshot the workflow consumes: the selected branch, the
// customer, and the cart lines as they stood at invocation time.
type Request struct {
	Branch   *domain.Branch
	Customer string
	Lines    []domain.CartLine
}

// Result reports where the workflow ended up.
type Result struct {
	State   State
	OrderID int64
	Message string
}

// Workflow runs the checkout sequence. One instance serves one terminal;
// Run refuses to overlap with itself and always releases the in-progress
// lock so a failed checkout can be retried from idle.
type Workflow struct {
	backend     backend.Client
	gateway     FormSubmitter
	logger      *zap.Logger
	stepTimeout time.Duration

	// CompensateOnLineFailure controls whether a mid-sequence line
	// failure rolls back the lines already created and cancels the
	// order. The system this replaces left the partial order orphaned;
	// turning this off reproduces that documented gap.
	CompensateOnLineFailure bool

	mu      sync.Mutex
	state   State
	running bool
}

// New creates a checkout workflow. stepTimeout bounds every network step;
// deadline expiry is that step's failure.
func New(client backend.Client, gateway FormSubmitter, stepTimeout time.Duration, logger *zap.Logger) *Workflow {
	if stepTimeout <= 0 {
		stepTimeout = 10 * time.Second
	}
	return &Workflow{
		backend:                 client,
		gateway:                 gateway,
		logger:                  logger,
		stepTimeout:             stepTimeout,
		CompensateOnLineFailure: true,
		state:                   StateIdle,
	}
}

// State returns the workflow's current position.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Run executes the full sequence for one request. It returns a Result in
// StateDone on success; every failure returns a Result in StateFailed
// with one human-readable, step-specific message, plus the underlying
// error.
func (w *Workflow) Run(ctx context.Context, req Request) (*Result, error) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return &Result{State: StateFailed, Message: "a checkout is already in progress"}, ErrAlreadyRunning
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	// Preconditions, checked before any network call.
	if err := validate(req); err != nil {
		w.setState(StateFailed)
		return &Result{State: StateFailed, Message: err.Error()}, err
	}

	// Step 1: create the order.
	w.setState(StateOrderCreating)
	order, err := w.createOrder(ctx, req)
	if err != nil {
		w.logger.Error("Order creation failed", zap.Error(err))
		w.setState(StateFailed)
		return &Result{State: StateFailed, Message: "order creation failed"}, err
	}

	w.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("branch_id", req.Branch.ID),
	)

	// Step 2: create the lines, sequentially, in cart order.
	w.setState(StateLinesCreating)
	created, err := w.createLines(ctx, order.ID, req.Lines)
	if err != nil {
		w.logger.Error("Order line creation failed",
			zap.Int64("order_id", order.ID),
			zap.Int("lines_created", len(created)),
			zap.Error(err),
		)
		message := "order line creation failed"
		if w.CompensateOnLineFailure {
			if cerr := w.compensate(order.ID, created); cerr != nil {
				message = "order line creation failed; manual cleanup required for order"
			}
		}
		w.setState(StateFailed)
		return &Result{State: StateFailed, OrderID: order.ID, Message: message}, err
	}

	// Step 3: initiate payment.
	w.setState(StatePaymentInitiating)
	fragment, err := w.initPayment(ctx, order.ID, subtotal(req.Lines))
	if err != nil {
		w.logger.Error("Payment initiation failed", zap.Int64("order_id", order.ID), zap.Error(err))
		w.setState(StateFailed)
		return &Result{State: StateFailed, OrderID: order.ID, Message: "payment initiation failed"}, err
	}

	// Step 4: hand off to the gateway. A payload without a form is a
	// failure, not a silent no-op.
	w.setState(StateRedirecting)
	form, err := ParseRedirectForm(fragment)
	if err != nil {
		w.setState(StateFailed)
		return &Result{State: StateFailed, OrderID: order.ID, Message: "payment processing could not be completed"}, err
	}

	stepCtx, cancel := context.WithTimeout(ctx, w.stepTimeout)
	defer cancel()
	if err := w.gateway.Submit(stepCtx, form); err != nil {
		w.setState(StateFailed)
		return &Result{State: StateFailed, OrderID: order.ID, Message: "payment processing could not be completed"}, err
	}

	w.setState(StateDone)
	w.logger.Info("Checkout completed", zap.Int64("order_id", order.ID))
	return &Result{State: StateDone, OrderID: order.ID, Message: "sale processed"}, nil
}

func validate(req Request) error {
	if req.Branch == nil {
		return ErrNoBranch
	}
	if len(req.Lines) == 0 {
		return ErrEmptyCart
	}
	if strings.TrimSpace(req.Customer) == "" {
		return ErrNoCustomer
	}
	return nil
}

func (w *Workflow) createOrder(ctx context.Context, req Request) (*domain.Order, error) {
	stepCtx, cancel := context.WithTimeout(ctx, w.stepTimeout)
	defer cancel()
	return w.backend.CreateOrder(stepCtx, req.Branch.ID, strings.TrimSpace(req.Customer), domain.OrderStatusPending)
}

func (w *Workflow) createLines(ctx context.Context, orderID int64, lines []domain.CartLine) ([]domain.OrderLine, error) {
	created := make([]domain.OrderLine, 0, len(lines))

	for _, line := range lines {
		stepCtx, cancel := context.WithTimeout(ctx, w.stepTimeout)
		ol, err := w.backend.CreateOrderLine(stepCtx, backend.OrderLineRequest{
			Order:     orderID,
			Product:   line.Product.ID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
		cancel()
		if err != nil {
			// The first failure aborts the remaining submissions.
			return created, err
		}
		created = append(created, *ol)
	}

	return created, nil
}

// compensate undoes a partially created order: delete the lines that made
// it in, then cancel the order itself. Runs on a fresh context so the
// failure that triggered it cannot cancel the cleanup.
func (w *Workflow) compensate(orderID int64, created []domain.OrderLine) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.stepTimeout)
	defer cancel()

	var failed error
	for _, line := range created {
		if err := w.backend.DeleteOrderLine(ctx, line.ID); err != nil {
			w.logger.Error("Compensation: failed to delete order line",
				zap.Int64("line_id", line.ID), zap.Error(err))
			failed = err
		}
	}

	if err := w.backend.CancelOrder(ctx, orderID); err != nil {
		w.logger.Error("Compensation: failed to cancel order",
			zap.Int64("order_id", orderID), zap.Error(err))
		failed = err
	}

	if failed != nil {
		return fmt.Errorf("compensation incomplete for order %d: %w", orderID, failed)
	}

	w.logger.Info("Compensated partial order", zap.Int64("order_id", orderID))
	return nil
}

func (w *Workflow) initPayment(ctx context.Context, orderID int64, amount float64) (string, error) {
	stepCtx, cancel := context.WithTimeout(ctx, w.stepTimeout)
	defer cancel()

	return w.backend.InitPayment(stepCtx, backend.PaymentRequest{
		BuyOrder:  fmt.Sprintf("orden-%d", orderID),
		SessionID: fmt.Sprintf("sesion-%s", uuid.NewString()),
		Amount:    amount,
	})
}

func subtotal(lines []domain.CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Total()
	}
	return sum
}
