package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/eshiroflex/pkg/models"
	"github.com/example/eshiroflex/pkg/payment"
)

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) Payment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) PaymentsByUser(ctx context.Context, userID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// UpdatePaymentStatus only applies when the row is still in status
// from, so two concurrent transitions of the same payment cannot both
// succeed.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id string, from, to payment.Status) error {
	res := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return payment.ErrNotFound
		}
		return payment.ErrInvalidTransition
	}
	return nil
}
