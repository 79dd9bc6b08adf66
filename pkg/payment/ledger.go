// Package payment records payment attempts against orders and enforces
// the status state machine. There is no real gateway behind it; charges
// always succeed, but every status change still has to walk a legal
// edge.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/eshiroflex/pkg/models"
	"github.com/example/eshiroflex/pkg/order"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// transitions is the full edge set. pending -> completed | failed,
// completed -> refunded. failed and refunded are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusRefunded},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var (
	ErrNotFound          = errors.New("payment not found")
	ErrInvalidAmount     = errors.New("payment amount must be positive")
	ErrInvalidTransition = errors.New("invalid payment status transition")

	// The order lookup fails under the order package's identity so the
	// same errors.Is check works wherever the failure surfaces.
	ErrOrderNotFound = order.ErrNotFound
)

// Store is the persistence surface the ledger needs.
type Store interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	Payment(ctx context.Context, id string) (*models.Payment, error)
	PaymentsByUser(ctx context.Context, userID string) ([]models.Payment, error)
	// UpdatePaymentStatus performs a conditional write: the row must
	// still be in status from, else ErrInvalidTransition.
	UpdatePaymentStatus(ctx context.Context, id string, from, to Status) error
	Order(ctx context.Context, id string) (*models.Order, error)
}

// Auditor records payment events out of band.
type Auditor interface {
	Record(ctx context.Context, action, entityID, userID string, data map[string]interface{}) error
}

type Ledger struct {
	store  Store
	audit  Auditor
	logger *zap.Logger
}

func NewLedger(store Store, audit Auditor, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, audit: audit, logger: logger}
}

// Create records a payment for userID. The stub gateway always
// succeeds, so the payment is stored already completed, reached by
// walking pending -> completed; the edge check stays in place so the
// machine cannot be skipped if a real gateway lands here later.
func (l *Ledger) Create(ctx context.Context, userID string, orderID *string, amount decimal.Decimal, mode string) (*models.Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if orderID != nil {
		order, err := l.store.Order(ctx, *orderID)
		if err != nil {
			return nil, err
		}
		if !amount.Equal(order.TotalPrice) {
			l.logger.Warn("Payment amount differs from order total",
				zap.String("order_id", order.ID),
				zap.String("amount", amount.String()),
				zap.String("order_total", order.TotalPrice.String()))
		}
	}

	status := StatusPending
	if !CanTransition(status, StatusCompleted) {
		return nil, ErrInvalidTransition
	}
	status = StatusCompleted

	p := &models.Payment{
		ID:            uuid.NewString(),
		UserID:        userID,
		OrderID:       orderID,
		Amount:        amount,
		Status:        string(status),
		ModeOfPayment: mode,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	if err := l.store.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	go l.record("payment.create", p)

	return p, nil
}

// Refund moves a completed payment to refunded. Any other starting
// status fails with ErrInvalidTransition, so a payment can be refunded
// at most once.
func (l *Ledger) Refund(ctx context.Context, id string) (*models.Payment, error) {
	p, err := l.store.Payment(ctx, id)
	if err != nil {
		return nil, err
	}

	from := Status(p.Status)
	if !CanTransition(from, StatusRefunded) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StatusRefunded)
	}

	// Conditional write so a concurrent refund of the same payment
	// cannot apply twice.
	if err := l.store.UpdatePaymentStatus(ctx, id, from, StatusRefunded); err != nil {
		return nil, err
	}
	p.Status = string(StatusRefunded)

	go l.record("payment.refund", p)

	return p, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (*models.Payment, error) {
	return l.store.Payment(ctx, id)
}

func (l *Ledger) ListByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	return l.store.PaymentsByUser(ctx, userID)
}

func (l *Ledger) record(action string, p *models.Payment) {
	data := map[string]interface{}{
		"user_id": p.UserID,
		"amount":  p.Amount.String(),
		"status":  p.Status,
	}
	if p.OrderID != nil {
		data["order_id"] = *p.OrderID
	}
	if err := l.audit.Record(context.Background(), action, p.ID, p.UserID, data); err != nil {
		l.logger.Warn("Failed to write payment audit log",
			zap.String("payment_id", p.ID), zap.Error(err))
	}
}
