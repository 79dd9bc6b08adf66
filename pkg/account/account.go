// Package account manages users and their profiles. A profile is
// created together with its user in the same transaction; there is no
// implicit hook doing it on save.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/eshiroflex/pkg/models"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrInvalidUser = errors.New("invalid user")
)

type Store interface {
	// CreateUserWithProfile persists both rows in one transaction.
	CreateUserWithProfile(ctx context.Context, u *models.User, p *models.Profile) error
	User(ctx context.Context, id string) (*models.User, error)
	Users(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteUser(ctx context.Context, id string) error
}

type Cache interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetUser(ctx context.Context, u *models.User) error
	InvalidateUser(ctx context.Context, id string) error
}

type Service struct {
	store  Store
	cache  Cache
	logger *zap.Logger
}

func NewService(store Store, cache Cache, logger *zap.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

type CreateParams struct {
	Email           string
	FullName        string
	CompleteAddress string
	CellphoneNumber string
	ImageURL        string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*models.User, error) {
	if params.Email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidUser)
	}

	now := time.Now()
	user := &models.User{
		ID:              uuid.NewString(),
		Email:           params.Email,
		FullName:        params.FullName,
		CompleteAddress: params.CompleteAddress,
		CellphoneNumber: params.CellphoneNumber,
		ImageURL:        params.ImageURL,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	profile := &models.Profile{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateUserWithProfile(ctx, user, profile); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.cache.SetUser(ctx, user); err != nil {
		s.logger.Warn("Failed to cache user", zap.String("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}

// Get tries the cache first, then the store, refreshing the cache.
func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	if cached, err := s.cache.GetUser(ctx, id); err == nil {
		return cached, nil
	}

	user, err := s.store.User(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetUser(ctx, user); err != nil {
		s.logger.Warn("Failed to cache user", zap.String("user_id", id), zap.Error(err))
	}
	return user, nil
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	return s.store.Users(ctx)
}

func (s *Service) Update(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidUser)
	}
	updates["updated_at"] = time.Now()

	if err := s.store.UpdateUser(ctx, id, updates); err != nil {
		return nil, err
	}
	if err := s.cache.InvalidateUser(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate user cache", zap.String("user_id", id), zap.Error(err))
	}
	return s.store.User(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	if err := s.cache.InvalidateUser(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate user cache", zap.String("user_id", id), zap.Error(err))
	}
	return nil
}
