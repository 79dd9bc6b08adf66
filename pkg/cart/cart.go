// Package cart manages the per-user shopping cart. A (user, product)
// pair has at most one line; adding again merges by incrementing the
// quantity. The merged quantity may never exceed the product's current
// stock.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/eshiroflex/pkg/catalog"
	"github.com/example/eshiroflex/pkg/models"
	"github.com/example/eshiroflex/pkg/pricing"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNotFound        = errors.New("cart item not found")
)

// Store is the cart line persistence surface.
type Store interface {
	CartLine(ctx context.Context, userID, productID string) (*models.CartItem, error)
	CartLineByID(ctx context.Context, id string) (*models.CartItem, error)
	CreateCartLine(ctx context.Context, item *models.CartItem) error
	UpdateCartLineQuantity(ctx context.Context, id string, quantity uint) error
	DeleteCartLine(ctx context.Context, id string) error
	CartLines(ctx context.Context, userID string) ([]models.CartItem, error)
}

// Catalog resolves products for stock checks and display.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// Line is a cart line denormalized for display.
type Line struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	ImageURL     string          `json:"image_url"`
	Quantity     uint            `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type Service struct {
	store   Store
	catalog Catalog
	logger  *zap.Logger
}

func NewService(store Store, cat Catalog, logger *zap.Logger) *Service {
	return &Service{store: store, catalog: cat, logger: logger}
}

// AddItem puts quantity units of productID into userID's cart, merging
// with an existing line for the same product. The resulting line
// quantity must not exceed the product's current stock.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.CartLine(ctx, userID, productID)
	switch {
	case err == nil:
		merged := existing.Quantity + uint(quantity)
		if merged > product.Stock {
			return nil, fmt.Errorf("%w: %s", catalog.ErrInsufficientStock, productID)
		}
		if err := s.store.UpdateCartLineQuantity(ctx, existing.ID, merged); err != nil {
			return nil, fmt.Errorf("failed to update cart line: %w", err)
		}
		existing.Quantity = merged
		return existing, nil

	case errors.Is(err, ErrNotFound):
		if uint(quantity) > product.Stock {
			return nil, fmt.Errorf("%w: %s", catalog.ErrInsufficientStock, productID)
		}
		item := &models.CartItem{
			ID:        uuid.NewString(),
			UserID:    userID,
			ProductID: productID,
			Quantity:  uint(quantity),
			AddedAt:   time.Now(),
		}
		if err := s.store.CreateCartLine(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to create cart line: %w", err)
		}
		return item, nil

	default:
		return nil, fmt.Errorf("failed to load cart line: %w", err)
	}
}

// RemoveItem deletes a cart line. A line owned by another user is
// reported as not found rather than forbidden, so cart line ids are not
// probeable.
func (s *Service) RemoveItem(ctx context.Context, userID, lineID string) error {
	line, err := s.store.CartLineByID(ctx, lineID)
	if err != nil {
		return err
	}
	if line.UserID != userID {
		return ErrNotFound
	}
	return s.store.DeleteCartLine(ctx, lineID)
}

// ListItems returns userID's cart denormalized for display. Lines whose
// product has been removed from the catalog are skipped; placement
// would reject them anyway.
func (s *Service) ListItems(ctx context.Context, userID string) ([]Line, error) {
	items, err := s.store.CartLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		product, err := s.catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				s.logger.Warn("Cart references missing product",
					zap.String("user_id", userID),
					zap.String("product_id", it.ProductID))
				continue
			}
			return nil, err
		}
		lines = append(lines, Line{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  product.Name,
			ProductPrice: product.Price,
			ImageURL:     product.ImageURL,
			Quantity:     it.Quantity,
			Subtotal:     pricing.LineTotal(product.Price, it.Quantity),
		})
	}
	return lines, nil
}
