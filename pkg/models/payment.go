package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment.Amount is set once at creation. Status only moves along the
// edges enforced by the payment ledger.
type Payment struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	OrderID       *string         `gorm:"type:varchar(36);index" json:"order_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status        string          `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`
	ModeOfPayment string          `gorm:"type:varchar(255)" json:"mode_of_payment"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
