package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is immutable after placement except for re-deriving TotalPrice
// from its items' captured prices. TotalPrice always equals the sum of
// the item prices.
type Order struct {
	ID         string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string          `gorm:"type:varchar(36);not null;index" json:"user_id"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem.Price is the captured line total (unit price x quantity at
// the moment of purchase). It is never recomputed from the catalog.
// ProductID is nullable so the historical record survives product
// deletion; ProductName is snapshotted for the same reason.
type OrderItem struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID     string          `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID   *string         `gorm:"type:varchar(36)" json:"product_id,omitempty"`
	ProductName string          `gorm:"type:varchar(255)" json:"product_name"`
	Quantity    uint            `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
