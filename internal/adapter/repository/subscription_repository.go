package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertByStripeID inserts the subscription or overwrites the mirrored
// Stripe state of the existing row in one INSERT ... ON CONFLICT statement.
func (r *subscriptionRepository) UpsertByStripeID(ctx context.Context, sub *model.Subscription) error {
	updates := clause.AssignmentColumns([]string{
		"status",
		"current_period_start",
		"current_period_end",
		"cancel_at_period_end",
		"updated_at",
	})
	// a missing price on the incoming object keeps the stored one
	updates = append(updates, clause.Assignment{
		Column: clause.Column{Name: "stripe_price_id"},
		Value:  gorm.Expr("COALESCE(NULLIF(EXCLUDED.stripe_price_id, ''), subscriptions.stripe_price_id)"),
	})

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
			DoUpdates: updates,
		}).
		Create(sub).Error

	if err != nil {
		r.logger.Error("Failed to upsert subscription",
			zap.String("stripe_subscription_id", sub.StripeSubscriptionID),
			zap.String("user_id", sub.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) first(ctx context.Context, query string, args ...interface{}) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).Where(query, args...).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// GetByStripeID retrieves a subscription by Stripe subscription ID
func (r *subscriptionRepository) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error) {
	sub, err := r.first(ctx, "stripe_subscription_id = ?", stripeSubscriptionID)
	if err != nil {
		r.logger.Error("Failed to get subscription by stripe ID",
			zap.String("stripe_subscription_id", stripeSubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// GetByID retrieves a subscription by local ID
func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	sub, err := r.first(ctx, "id = ?", id)
	if err != nil {
		r.logger.Error("Failed to get subscription by ID",
			zap.String("subscription_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

func (r *subscriptionRepository) update(ctx context.Context, query string, arg interface{}, values map[string]interface{}) (int64, error) {
	values["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where(query, arg).
		Updates(values)

	if result.Error != nil {
		r.logger.Error("Failed to update subscription",
			zap.Any("key", arg),
			zap.Error(result.Error))
		return 0, fmt.Errorf("failed to update subscription: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RefreshPeriod updates the status and billing period of a subscription
func (r *subscriptionRepository) RefreshPeriod(ctx context.Context, id uuid.UUID, status model.SubscriptionStatus, start, end time.Time) error {
	_, err := r.update(ctx, "id = ?", id, map[string]interface{}{
		"status":               status,
		"current_period_start": start,
		"current_period_end":   end,
	})
	return err
}

// MarkCanceledByStripeID cancels the row for a Stripe subscription if one exists
func (r *subscriptionRepository) MarkCanceledByStripeID(ctx context.Context, stripeSubscriptionID string, at time.Time) (bool, error) {
	affected, err := r.update(ctx, "stripe_subscription_id = ?", stripeSubscriptionID, map[string]interface{}{
		"status":      model.SubscriptionStatusCanceled,
		"canceled_at": at,
	})
	return affected > 0, err
}

// MarkCanceled cancels a subscription by local ID
func (r *subscriptionRepository) MarkCanceled(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.update(ctx, "id = ?", id, map[string]interface{}{
		"status":      model.SubscriptionStatusCanceled,
		"canceled_at": at,
	})
	return err
}

// SetCancelAtPeriodEnd sets the cancel-at-period-end flag
func (r *subscriptionRepository) SetCancelAtPeriodEnd(ctx context.Context, id uuid.UUID, cancel bool) error {
	_, err := r.update(ctx, "id = ?", id, map[string]interface{}{
		"cancel_at_period_end": cancel,
	})
	return err
}

// FindLatestEntitledForUser returns the most recently created active or trialing subscription
func (r *subscriptionRepository) FindLatestEntitledForUser(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []model.SubscriptionStatus{
			model.SubscriptionStatusActive,
			model.SubscriptionStatusTrialing,
		}).
		Order("created_at DESC").
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to find entitled subscription",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}

	return &sub, nil
}

// ListRenewingBetween returns active subscriptions renewing within [from, to]
func (r *subscriptionRepository) ListRenewingBetween(ctx context.Context, from, to time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ? AND cancel_at_period_end = ?", model.SubscriptionStatusActive, false).
		Where("current_period_end BETWEEN ? AND ?", from, to).
		Order("current_period_end ASC").
		Find(&subs).Error

	if err != nil {
		r.logger.Error("Failed to list renewing subscriptions", zap.Error(err))
		return nil, fmt.Errorf("failed to list renewing subscriptions: %w", err)
	}
	return subs, nil
}

// List returns subscriptions newest first with their users, optionally filtered by status
func (r *subscriptionRepository) List(ctx context.Context, status string, offset, limit int) ([]*model.Subscription, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Subscription{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var subs []*model.Subscription
	err := query.
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		r.logger.Error("Failed to list subscriptions", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subs, total, nil
}

// ListByUser returns all subscriptions of a user, newest first
func (r *subscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user subscriptions: %w", err)
	}
	return subs, nil
}

// ListActiveByUserIDs returns the active subscriptions of the given users
func (r *subscriptionRepository) ListActiveByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]*model.Subscription, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var subs []*model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND status = ?", userIDs, model.SubscriptionStatusActive).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}
	return subs, nil
}

// CountByStatus counts subscriptions in the given status
func (r *subscriptionRepository) CountByStatus(ctx context.Context, status model.SubscriptionStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("status = ?", status).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return total, nil
}
