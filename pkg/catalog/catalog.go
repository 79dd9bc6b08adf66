// Package catalog manages products and categories. Reads go through a
// cache; every write invalidates it. Stock is only ever decremented by
// the order workflow, through the store's conditional write.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/eshiroflex/pkg/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidProduct    = errors.New("invalid product")
)

// Store is the persistence surface for catalog data.
type Store interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	Product(ctx context.Context, id string) (*models.Product, error)
	Products(ctx context.Context, categoryID string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteProduct(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, c *models.Category) error
	Categories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// Cache is the read-through product cache.
type Cache interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	SetProduct(ctx context.Context, p *models.Product) error
	InvalidateProduct(ctx context.Context, id string) error
}

type Service struct {
	store  Store
	cache  Cache
	logger *zap.Logger
}

func NewService(store Store, cache Cache, logger *zap.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

func (s *Service) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if p.Description == "" {
		p.Description = "No description available"
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// GetProduct tries the cache first and falls back to the store,
// refreshing the cache on the way out.
func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if cached, err := s.cache.GetProduct(ctx, id); err == nil {
		return cached, nil
	}

	p, err := s.store.Product(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetProduct(ctx, p); err != nil {
		s.logger.Warn("Failed to cache product", zap.String("product_id", id), zap.Error(err))
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context, categoryID string) ([]models.Product, error) {
	return s.store.Products(ctx, categoryID)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, updates map[string]interface{}) (*models.Product, error) {
	if price, ok := updates["price"]; ok {
		d, ok := price.(decimal.Decimal)
		if !ok || d.IsNegative() {
			return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
		}
	}

	if err := s.store.UpdateProduct(ctx, id, updates); err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.String("product_id", id), zap.Error(err))
	}
	return s.store.Product(ctx, id)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate product cache", zap.String("product_id", id), zap.Error(err))
	}
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidProduct)
	}
	c := &models.Category{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.Categories(ctx)
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.store.DeleteCategory(ctx, id)
}
