// Package notifications persists user notifications. Delivery is
// best-effort by contract: Notify logs and swallows failures so that no
// trade or bot sale is ever rolled back by a notification problem.
package notifications

import (
	"context"

	"vestoria-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Notify stores a notification for the user. Errors are logged, never
// returned.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, message string) {
	if s == nil || s.DB == nil {
		return
	}
	n := domain.Notification{UserID: userID, Message: message}
	if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("notification insert failed")
	}
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	var out []domain.Notification
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}
