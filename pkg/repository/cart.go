package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/eshiroflex/pkg/cart"
	"github.com/example/eshiroflex/pkg/models"
)

func (s *Store) CartLine(ctx context.Context, userID, productID string) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cart.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CartLineByID(ctx context.Context, id string) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cart.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateCartLine(ctx context.Context, item *models.CartItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateCartLineQuantity(ctx context.Context, id string, quantity uint) error {
	res := s.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteCartLine(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return cart.ErrNotFound
	}
	return nil
}

func (s *Store) CartLines(ctx context.Context, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
