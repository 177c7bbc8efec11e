package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

type refundRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRefundRepository creates a new refund repository
func NewRefundRepository(db *gorm.DB, logger *zap.Logger) repository.RefundRepository {
	return &refundRepository{
		db:     db,
		logger: logger,
	}
}

// Record inserts a refund once per Stripe refund id. A refund Stripe replayed
// for the same idempotency key loads the stored row into refund and reports
// created as false.
func (r *refundRepository) Record(ctx context.Context, refund *model.Refund) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_refund_id"}},
			DoNothing: true,
		}).
		Create(refund)
	if result.Error != nil {
		r.logger.Error("Failed to create refund",
			zap.String("payment_id", refund.PaymentID.String()),
			zap.String("stripe_refund_id", refund.StripeRefundID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to create refund: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	var stored model.Refund
	if err := r.db.WithContext(ctx).Where("stripe_refund_id = ?", refund.StripeRefundID).First(&stored).Error; err != nil {
		return false, fmt.Errorf("failed to load refund %s: %w", refund.StripeRefundID, err)
	}
	*refund = stored
	return false, nil
}

// List returns refunds newest first with their payment and user
func (r *refundRepository) List(ctx context.Context, offset, limit int) ([]*model.Refund, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Refund{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count refunds: %w", err)
	}

	var refunds []*model.Refund
	err := r.db.WithContext(ctx).
		Preload("Payment.User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&refunds).Error
	if err != nil {
		r.logger.Error("Failed to list refunds", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list refunds: %w", err)
	}

	return refunds, total, nil
}

// ListByPaymentIDs returns the refunds issued against the given payments
func (r *refundRepository) ListByPaymentIDs(ctx context.Context, paymentIDs []uuid.UUID) ([]*model.Refund, error) {
	if len(paymentIDs) == 0 {
		return nil, nil
	}

	var refunds []*model.Refund
	err := r.db.WithContext(ctx).
		Where("payment_id IN ?", paymentIDs).
		Order("created_at DESC").
		Find(&refunds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	return refunds, nil
}

// Count returns the number of refunds
func (r *refundRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Refund{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count refunds: %w", err)
	}
	return total, nil
}

// SumAmount sums refunded amounts in minor units
func (r *refundRepository) SumAmount(ctx context.Context) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&model.Refund{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum refunds: %w", err)
	}
	return sum, nil
}
