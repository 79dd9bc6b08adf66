// Package notify delivers order and payment confirmations through a
// local actor. Messages are sent fire-and-forget after the database
// transaction has committed, so a notification failure can never undo
// an order.
package notify

import (
	"fmt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Messages
type OrderPlaced struct {
	OrderID   string
	UserID    string
	Total     decimal.Decimal
	ItemCount int
}

type PaymentRefunded struct {
	PaymentID string
	UserID    string
	Amount    decimal.Decimal
}

// confirmationActor handles confirmation messages
type confirmationActor struct {
	logger *zap.Logger
}

func (a *confirmationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *OrderPlaced:
		a.logger.Info("Order confirmation queued",
			zap.String("order_id", msg.OrderID),
			zap.String("user_id", msg.UserID),
			zap.String("total_price", msg.Total.String()),
			zap.Int("items", msg.ItemCount))

	case *PaymentRefunded:
		a.logger.Info("Refund confirmation queued",
			zap.String("payment_id", msg.PaymentID),
			zap.String("user_id", msg.UserID),
			zap.String("amount", msg.Amount.String()))

	case *actor.Started:
		a.logger.Info("Confirmation actor started")

	case *actor.Stopping:
		a.logger.Info("Confirmation actor stopping")

	case *actor.Stopped:
		a.logger.Info("Confirmation actor stopped")
	}
}

type Notifier struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewNotifier(logger *zap.Logger) (*Notifier, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &confirmationActor{logger: logger.Named("confirmation-actor")}
	})
	pid, err := system.Root.SpawnNamed(props, "confirmation-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn confirmation actor: %w", err)
	}

	return &Notifier{system: system, pid: pid, logger: logger}, nil
}

func (n *Notifier) OrderPlaced(orderID, userID string, total decimal.Decimal, itemCount int) {
	n.system.Root.Send(n.pid, &OrderPlaced{
		OrderID:   orderID,
		UserID:    userID,
		Total:     total,
		ItemCount: itemCount,
	})
}

func (n *Notifier) PaymentRefunded(paymentID, userID string, amount decimal.Decimal) {
	n.system.Root.Send(n.pid, &PaymentRefunded{
		PaymentID: paymentID,
		UserID:    userID,
		Amount:    amount,
	})
}

func (n *Notifier) Close() {
	n.system.Root.Stop(n.pid)
}
