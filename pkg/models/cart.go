package models

import (
	"time"
)

// CartItem is one (user, product) line. The pair is unique: adding a
// product already in the cart increments the existing line.
type CartItem struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  uint      `gorm:"not null;default:1" json:"quantity"`
	AddedAt   time.Time `gorm:"autoCreateTime" json:"added_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type WishlistItem struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"`
	AddedAt   time.Time `gorm:"autoCreateTime" json:"added_at"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}
