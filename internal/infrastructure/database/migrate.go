package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	// gen_random_uuid() is built in from PostgreSQL 13; the extension covers older servers
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.User{},
		&model.Subscription{},
		&model.Payment{},
		&model.Refund{},
		&model.EmailLog{},
		&model.StripeWebhookEvent{},
		&model.UserProfile{},
		&model.TestResult{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates indexes that GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// Reminder scan
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_subscriptions_renewal ON subscriptions (current_period_end) WHERE status = 'active' AND cancel_at_period_end = false`).Error; err != nil {
		return err
	}

	// Failed deliveries for manual reconciliation
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_webhook_events_failed ON stripe_webhook_events (created_at) WHERE status = 'failed'`).Error; err != nil {
		return err
	}

	return nil
}
