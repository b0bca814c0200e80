package repository

import (
	"context"

	"github.com/Payphone-Digital/tracker/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthEventRepository struct {
	db *gorm.DB
}

func NewAuthEventRepository(db *gorm.DB) *AuthEventRepository {
	return &AuthEventRepository{db: db}
}

func (r *AuthEventRepository) Create(ctx context.Context, event *model.AuthEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByUser returns the newest events of one account first
func (r *AuthEventRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error) {
	var events []model.AuthEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
