package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/eshiroflex/pkg/catalog"
	"github.com/example/eshiroflex/pkg/models"
	"github.com/example/eshiroflex/pkg/order"
)

func (s *Store) Order(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *Store) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// InTx runs fn inside one database transaction. All mutations in fn
// become visible together or not at all. Product cache entries touched
// by stock decrements are invalidated only after a successful commit.
func (s *Store) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	t := &orderTx{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t.db = tx
		return fn(t)
	})
	if err != nil {
		return err
	}

	for _, productID := range t.touched {
		if cerr := s.cache.InvalidateProduct(ctx, productID); cerr != nil {
			s.logger.Warn("Failed to invalidate product cache",
				zap.String("product_id", productID), zap.Error(cerr))
		}
	}
	return nil
}

type orderTx struct {
	db      *gorm.DB
	touched []string
}

func (t *orderTx) CreateOrder(o *models.Order) error {
	// Items are created separately inside the same transaction.
	return t.db.Omit("Items").Create(o).Error
}

func (t *orderTx) CreateOrderItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return t.db.Create(&items).Error
}

// DecrementStock is a conditional write: the row must still hold at
// least qty units, so concurrent placements serialize on the database
// and stock can never go negative.
func (t *orderTx) DecrementStock(productID string, qty uint) error {
	res := t.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := t.db.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return catalog.ErrProductNotFound
		}
		return catalog.ErrInsufficientStock
	}
	t.touched = append(t.touched, productID)
	return nil
}

func (t *orderTx) ClearCart(userID string) error {
	return t.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

func (t *orderTx) Order(id string) (*models.Order, error) {
	var o models.Order
	if err := t.db.Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (t *orderTx) OrderItems(orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := t.db.Where("order_id = ?", orderID).Order("created_at").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (t *orderTx) UpdateOrderTotal(orderID string, total decimal.Decimal) error {
	res := t.db.Model(&models.Order{}).Where("id = ?", orderID).Update("total_price", total)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return order.ErrNotFound
	}
	return nil
}
