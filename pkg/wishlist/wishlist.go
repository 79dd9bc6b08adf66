// Package wishlist keeps a per-user set of saved products. Add is
// idempotent: saving a product already on the list returns the existing
// entry.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/eshiroflex/pkg/models"
)

var ErrNotFound = errors.New("wishlist item not found")

type Store interface {
	WishlistItem(ctx context.Context, userID, productID string) (*models.WishlistItem, error)
	WishlistItemByID(ctx context.Context, id string) (*models.WishlistItem, error)
	CreateWishlistItem(ctx context.Context, item *models.WishlistItem) error
	DeleteWishlistItem(ctx context.Context, id string) error
	WishlistItems(ctx context.Context, userID string) ([]models.WishlistItem, error)
}

type Catalog interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type Service struct {
	store   Store
	catalog Catalog
}

func NewService(store Store, cat Catalog) *Service {
	return &Service{store: store, catalog: cat}
}

// Add saves productID to userID's wishlist, get-or-create.
func (s *Service) Add(ctx context.Context, userID, productID string) (*models.WishlistItem, error) {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	existing, err := s.store.WishlistItem(ctx, userID, productID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to load wishlist item: %w", err)
	}

	item := &models.WishlistItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		AddedAt:   time.Now(),
	}
	if err := s.store.CreateWishlistItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create wishlist item: %w", err)
	}
	return item, nil
}

// Remove deletes an entry, scoped to the owning user.
func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	item, err := s.store.WishlistItemByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return ErrNotFound
	}
	return s.store.DeleteWishlistItem(ctx, itemID)
}

func (s *Service) List(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	return s.store.WishlistItems(ctx, userID)
}
