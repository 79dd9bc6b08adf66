package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// Product stock is decremented only by the order workflow; it can never
// go below zero.
type Product struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       uint            `gorm:"not null;default:0" json:"stock"`
	ImageURL    string          `gorm:"type:varchar(500)" json:"image_url"`
	ProductSize string          `gorm:"type:varchar(50)" json:"product_size"`
	CategoryID  string          `gorm:"type:varchar(36);index" json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
