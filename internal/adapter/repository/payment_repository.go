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

type paymentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB, logger *zap.Logger) repository.PaymentRepository {
	return &paymentRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertByInvoiceID records the outcome of an invoice in one INSERT ... ON CONFLICT statement
func (r *paymentRepository) UpsertByInvoiceID(ctx context.Context, payment *model.Payment) error {
	updates := clause.AssignmentColumns([]string{"status", "amount", "currency", "updated_at"})
	updates = append(updates,
		clause.Assignment{
			Column: clause.Column{Name: "paid_at"},
			Value:  gorm.Expr("COALESCE(EXCLUDED.paid_at, payments.paid_at)"),
		},
		clause.Assignment{
			Column: clause.Column{Name: "stripe_payment_intent"},
			Value:  gorm.Expr("COALESCE(NULLIF(EXCLUDED.stripe_payment_intent, ''), payments.stripe_payment_intent)"),
		},
		clause.Assignment{
			Column: clause.Column{Name: "subscription_id"},
			Value:  gorm.Expr("COALESCE(EXCLUDED.subscription_id, payments.subscription_id)"),
		},
	)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_invoice_id"}},
			DoUpdates: updates,
		}).
		Create(payment).Error

	if err != nil {
		r.logger.Error("Failed to upsert payment",
			zap.String("stripe_invoice_id", payment.StripeInvoiceID),
			zap.String("status", string(payment.Status)),
			zap.Error(err))
		return fmt.Errorf("failed to upsert payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment with its user
func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&payment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get payment",
			zap.String("payment_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &payment, nil
}

// SetPaymentIntent backfills the Stripe payment intent of a payment
func (r *paymentRepository) SetPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stripe_payment_intent": paymentIntentID,
			"updated_at":            time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("Failed to set payment intent",
			zap.String("payment_id", id.String()),
			zap.String("payment_intent", paymentIntentID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to set payment intent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("payment not found: %s", id)
	}
	return nil
}

// ListByUser returns the newest payments of a user
func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user payments: %w", err)
	}
	return payments, nil
}

// ListRecent returns the newest payments with their users
func (r *paymentRepository) ListRecent(ctx context.Context, limit int) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent payments: %w", err)
	}
	return payments, nil
}

// CountByStatus counts payments in the given status
func (r *paymentRepository) CountByStatus(ctx context.Context, status model.PaymentStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("status = ?", status).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return total, nil
}

// SumAmountByStatus sums payment amounts in minor units
func (r *paymentRepository) SumAmountByStatus(ctx context.Context, status model.PaymentStatus) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", status).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	return sum, nil
}
