package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

type userRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, logger *zap.Logger) repository.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) first(ctx context.Context, field string, query string, args ...interface{}) (*model.User, error) {
	var user model.User

	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get user",
			zap.String("lookup", field),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get user by %s: %w", field, err)
	}

	return &user, nil
}

// GetByID retrieves a user by local ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.first(ctx, "id", "id = ?", id)
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email", "email = ?", email)
}

// GetByStripeCustomerID retrieves the user linked to a Stripe customer
func (r *userRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*model.User, error) {
	if customerID == "" {
		return nil, nil
	}
	return r.first(ctx, "stripe_customer_id", "stripe_customer_id = ?", customerID)
}

// Create inserts a new user
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.logger.Error("Failed to create user",
			zap.String("email", user.Email),
			zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// SetStripeCustomerID links the user to a Stripe customer
func (r *userRepository) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("stripe_customer_id", customerID)

	if result.Error != nil {
		r.logger.Error("Failed to set stripe customer ID",
			zap.String("user_id", id.String()),
			zap.String("customer_id", customerID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to set stripe customer id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// Search lists users newest first, optionally filtered by email or name
func (r *userRepository) Search(ctx context.Context, search string, offset, limit int) ([]*model.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.User{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("email ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		r.logger.Error("Failed to count users", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []*model.User
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// Count returns the number of users
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

// ListRecent returns the newest users
func (r *userRepository) ListRecent(ctx context.Context, limit int) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}
	return users, nil
}
