package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/eshiroflex/pkg/models"
	"github.com/example/eshiroflex/pkg/wishlist"
)

func (s *Store) WishlistItem(ctx context.Context, userID, productID string) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wishlist.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) WishlistItemByID(ctx context.Context, id string) (*models.WishlistItem, error) {
	var item models.WishlistItem
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wishlist.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateWishlistItem(ctx context.Context, item *models.WishlistItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) DeleteWishlistItem(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wishlist.ErrNotFound
	}
	return nil
}

func (s *Store) WishlistItems(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
