package repository

import (
	"context"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SuppressionRepository stores decisions not to send. Append-only.
type SuppressionRepository interface {
	Append(ctx context.Context, s *domain.SuppressedNotification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.SuppressedNotification, error)
}

type suppressionRepository struct {
	db *gorm.DB
}

func NewSuppressionRepository(db *gorm.DB) SuppressionRepository {
	return &suppressionRepository{db: db}
}

func (r *suppressionRepository) Append(ctx context.Context, s *domain.SuppressedNotification) error {
	if s.UserID == "" {
		return &domain.ValidationError{Field: "user_id", Err: domain.ErrRequired}
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *suppressionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.SuppressedNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []*domain.SuppressedNotification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
