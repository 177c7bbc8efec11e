package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook event ledger repository
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) repository.WebhookEventRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

// RecordAttempt saves a delivery attempt, counting redeliveries of the same event
func (r *webhookRepository) RecordAttempt(ctx context.Context, evt *model.StripeWebhookEvent) error {
	evt.Status = model.WebhookStatusProcessing
	evt.ProcessingAttempts = 1

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_event_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":              model.WebhookStatusProcessing,
				"processing_attempts": gorm.Expr("stripe_webhook_events.processing_attempts + 1"),
			}),
		}).
		Create(evt).Error

	if err != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("event_id", evt.StripeEventID),
			zap.String("event_type", evt.EventType),
			zap.Error(err))
		return fmt.Errorf("failed to save webhook event: %w", err)
	}

	return nil
}

// MarkStatus records the outcome of processing an event
func (r *webhookRepository) MarkStatus(ctx context.Context, stripeEventID string, status model.WebhookStatus, lastError string) error {
	values := map[string]interface{}{
		"status":       status,
		"processed_at": time.Now(),
		"last_error":   nil,
	}
	if lastError != "" {
		values["last_error"] = lastError
	}

	result := r.db.WithContext(ctx).
		Model(&model.StripeWebhookEvent{}).
		Where("stripe_event_id = ?", stripeEventID).
		Updates(values)

	if result.Error != nil {
		r.logger.Error("Failed to update webhook event status",
			zap.String("event_id", stripeEventID),
			zap.String("status", string(status)),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update webhook event: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s", stripeEventID)
	}

	return nil
}
