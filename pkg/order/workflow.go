// Package order implements the placement workflow: it turns a mutable
// cart into an immutable, correctly priced order, decrements stock and
// clears the cart as one atomic unit. Prices are captured at placement
// time and never recomputed from the catalog afterwards.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/eshiroflex/pkg/catalog"
	"github.com/example/eshiroflex/pkg/models"
	"github.com/example/eshiroflex/pkg/pricing"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidRequest    = errors.New("invalid order request")
	ErrNotFound          = errors.New("order not found")
	ErrInvalidOrderState = errors.New("invalid order state")
	ErrPlacementFailed   = errors.New("order placement failed")

	// Catalog failures surface under their catalog identities so one
	// errors.Is check works on either side.
	ErrProductNotFound   = catalog.ErrProductNotFound
	ErrInsufficientStock = catalog.ErrInsufficientStock
)

// state tracks an in-flight placement. Rejected means the client sent
// something unservable; Aborted means infrastructure failed and the
// whole transaction was rolled back.
type state int

const (
	stateValidating state = iota
	statePricing
	stateCommitting
	stateCommitted
	stateRejected
	stateAborted
)

func (s state) String() string {
	switch s {
	case stateValidating:
		return "validating"
	case statePricing:
		return "pricing"
	case stateCommitting:
		return "committing"
	case stateCommitted:
		return "committed"
	case stateRejected:
		return "rejected"
	case stateAborted:
		return "aborted"
	}
	return "unknown"
}

// Store is the read surface plus the transaction runner. Everything
// mutated during commit goes through a Tx so partial effects are never
// visible.
type Store interface {
	CartLines(ctx context.Context, userID string) ([]models.CartItem, error)
	Product(ctx context.Context, id string) (*models.Product, error)
	Order(ctx context.Context, id string) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the mutation surface inside a single atomic transaction. Any
// error returned from the InTx callback rolls everything back.
type Tx interface {
	CreateOrder(o *models.Order) error
	CreateOrderItems(items []models.OrderItem) error
	// DecrementStock conditionally subtracts qty; it fails with
	// ErrInsufficientStock when stock would go negative and
	// ErrProductNotFound when the product is gone.
	DecrementStock(productID string, qty uint) error
	ClearCart(userID string) error
	Order(id string) (*models.Order, error)
	OrderItems(orderID string) ([]models.OrderItem, error)
	UpdateOrderTotal(orderID string, total decimal.Decimal) error
}

type Auditor interface {
	Record(ctx context.Context, action, entityID, userID string, data map[string]interface{}) error
}

// Notifier is told about committed orders, strictly after the
// transaction; a notification failure can never undo an order.
type Notifier interface {
	OrderPlaced(orderID, userID string, total decimal.Decimal, itemCount int)
}

// Line is one requested (product, quantity) pair for the direct
// placement path that bypasses the cart.
type Line struct {
	ProductID string
	Quantity  uint
}

type Workflow struct {
	store    Store
	audit    Auditor
	notifier Notifier
	logger   *zap.Logger
}

func NewWorkflow(store Store, audit Auditor, notifier Notifier, logger *zap.Logger) *Workflow {
	return &Workflow{store: store, audit: audit, notifier: notifier, logger: logger}
}

// PlaceOrder converts userID's cart into an order. The cart is cleared
// inside the same transaction that creates the order and decrements
// stock.
func (w *Workflow) PlaceOrder(ctx context.Context, userID string) (*models.Order, error) {
	cartLines, err := w.store.CartLines(ctx, userID)
	if err != nil {
		return nil, w.abort(userID, fmt.Errorf("failed to load cart: %w", err))
	}
	if len(cartLines) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]Line, len(cartLines))
	for i, cl := range cartLines {
		lines[i] = Line{ProductID: cl.ProductID, Quantity: cl.Quantity}
	}

	return w.place(ctx, userID, lines, true)
}

// ZipLines pairs the product-id and quantity lists of a direct
// placement request. The lists must be non-empty and of equal length.
func ZipLines(productIDs []string, quantities []uint) ([]Line, error) {
	if len(productIDs) == 0 || len(productIDs) != len(quantities) {
		return nil, fmt.Errorf("%w: product_ids and quantities must be non-empty and of equal length", ErrInvalidRequest)
	}
	lines := make([]Line, len(productIDs))
	for i := range productIDs {
		lines[i] = Line{ProductID: productIDs[i], Quantity: quantities[i]}
	}
	return lines, nil
}

// PlaceItems places an order from explicit lines, bypassing the cart.
// A product appearing twice stays two independent lines.
func (w *Workflow) PlaceItems(ctx context.Context, userID string, lines []Line) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no lines", ErrInvalidRequest)
	}
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, fmt.Errorf("%w: missing product id", ErrInvalidRequest)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidRequest)
		}
	}

	return w.place(ctx, userID, lines, false)
}

func (w *Workflow) place(ctx context.Context, userID string, lines []Line, clearCart bool) (*models.Order, error) {
	st := stateValidating
	w.logger.Debug("Order placement started",
		zap.String("user_id", userID),
		zap.Int("lines", len(lines)),
		zap.Stringer("state", st))

	products := make([]*models.Product, len(lines))
	for i, l := range lines {
		p, err := w.store.Product(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
			}
			return nil, w.abort(userID, err)
		}
		products[i] = p
	}

	st = statePricing
	w.logger.Debug("Order placement pricing", zap.String("user_id", userID), zap.Stringer("state", st))
	priceLines := make([]pricing.Line, len(lines))
	for i, l := range lines {
		priceLines[i] = pricing.Line{UnitPrice: products[i].Price, Quantity: l.Quantity}
	}
	lineTotals, total := pricing.Total(priceLines)

	st = stateCommitting
	w.logger.Debug("Order placement committing", zap.String("user_id", userID), zap.Stringer("state", st))
	now := time.Now()
	order := &models.Order{
		ID:         uuid.NewString(),
		UserID:     userID,
		TotalPrice: total,
		CreatedAt:  now,
	}
	items := make([]models.OrderItem, len(lines))
	for i, l := range lines {
		productID := l.ProductID
		items[i] = models.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: products[i].Name,
			Quantity:    l.Quantity,
			Price:       lineTotals[i],
			CreatedAt:   now,
		}
	}

	err := w.store.InTx(ctx, func(tx Tx) error {
		if err := tx.CreateOrder(order); err != nil {
			return err
		}
		for _, l := range lines {
			if err := tx.DecrementStock(l.ProductID, l.Quantity); err != nil {
				if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) {
					return fmt.Errorf("%w: %s", err, l.ProductID)
				}
				return err
			}
		}
		if err := tx.CreateOrderItems(items); err != nil {
			return err
		}
		if clearCart {
			return tx.ClearCart(userID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) {
			st = stateRejected
			w.logger.Info("Order placement rejected",
				zap.String("user_id", userID),
				zap.Stringer("state", st),
				zap.Error(err))
			return nil, err
		}
		return nil, w.abort(userID, err)
	}

	st = stateCommitted
	order.Items = items
	w.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("total_price", total.String()),
		zap.Stringer("state", st))

	go func() {
		if err := w.audit.Record(context.Background(), "order.place", order.ID, userID, map[string]interface{}{
			"total_price": total.String(),
			"items":       len(items),
		}); err != nil {
			w.logger.Warn("Failed to write order audit log",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	}()
	w.notifier.OrderPlaced(order.ID, userID, total, len(items))

	return order, nil
}

// abort logs the infrastructure failure with detail and surfaces only
// the generic placement error; the transaction has already rolled back
// so the caller may safely retry.
func (w *Workflow) abort(userID string, err error) error {
	w.logger.Error("Order placement aborted",
		zap.String("user_id", userID),
		zap.Stringer("state", stateAborted),
		zap.Error(err))
	return ErrPlacementFailed
}

// RecalculateTotal re-derives an order's total from its items' captured
// prices, inside one transaction. This is the only permitted mutation
// of an existing order, and it never consults the live catalog.
func (w *Workflow) RecalculateTotal(ctx context.Context, orderID string) (*models.Order, error) {
	var out *models.Order
	err := w.store.InTx(ctx, func(tx Tx) error {
		order, err := tx.Order(orderID)
		if err != nil {
			return err
		}
		items, err := tx.OrderItems(orderID)
		if err != nil {
			return err
		}

		prices := make([]decimal.Decimal, len(items))
		for i, it := range items {
			prices[i] = it.Price
		}
		total := pricing.Sum(prices)
		if !total.IsPositive() {
			return fmt.Errorf("%w: recomputed total %s", ErrInvalidOrderState, total)
		}

		if err := tx.UpdateOrderTotal(orderID, total); err != nil {
			return err
		}
		order.TotalPrice = total
		order.Items = items
		out = order
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidOrderState) {
			return nil, err
		}
		return nil, w.abort("", err)
	}
	return out, nil
}

func (w *Workflow) Get(ctx context.Context, id string) (*models.Order, error) {
	return w.store.Order(ctx, id)
}

func (w *Workflow) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return w.store.OrdersByUser(ctx, userID)
}
