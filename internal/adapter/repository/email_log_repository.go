package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

type emailLogRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewEmailLogRepository creates a new email log repository
func NewEmailLogRepository(db *gorm.DB, logger *zap.Logger) repository.EmailLogRepository {
	return &emailLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a sent-notification record
func (r *emailLogRepository) Create(ctx context.Context, log *model.EmailLog) error {
	if log.SentAt.IsZero() {
		log.SentAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		r.logger.Error("Failed to create email log",
			zap.String("user_id", log.UserID.String()),
			zap.String("email_type", string(log.EmailType)),
			zap.Error(err))
		return fmt.Errorf("failed to create email log: %w", err)
	}
	return nil
}

// ExistsSince reports whether an email of the given type was sent to the user at or after since
func (r *emailLogRepository) ExistsSince(ctx context.Context, userID uuid.UUID, emailType model.EmailType, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.EmailLog{}).
		Where("user_id = ? AND email_type = ? AND sent_at >= ?", userID, emailType, since).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email log: %w", err)
	}
	return count > 0, nil
}
