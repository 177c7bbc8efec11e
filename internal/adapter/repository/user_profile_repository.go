package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

type userProfileRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserProfileRepository creates a new user profile repository
func NewUserProfileRepository(db *gorm.DB, logger *zap.Logger) repository.UserProfileRepository {
	return &userProfileRepository{
		db:     db,
		logger: logger,
	}
}

// GetByEmail retrieves the profile saved for email
func (r *userProfileRepository) GetByEmail(ctx context.Context, email string) (*model.UserProfile, error) {
	var profile model.UserProfile

	err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get user profile",
			zap.String("email", email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	return &profile, nil
}

// Upsert writes the profile document keyed on email
func (r *userProfileRepository) Upsert(ctx context.Context, profile *model.UserProfile) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"profile", "updated_at"}),
		}).
		Create(profile).Error

	if err != nil {
		r.logger.Error("Failed to upsert user profile",
			zap.String("email", profile.Email),
			zap.Error(err))
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}
	return nil
}
