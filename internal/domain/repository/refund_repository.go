package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
)

type RefundRepository interface {
	// Record is idempotent on StripeRefundID; created is false for a replay
	Record(ctx context.Context, refund *model.Refund) (created bool, err error)
	List(ctx context.Context, offset, limit int) ([]*model.Refund, int64, error)
	ListByPaymentIDs(ctx context.Context, paymentIDs []uuid.UUID) ([]*model.Refund, error)
	Count(ctx context.Context) (int64, error)
	SumAmount(ctx context.Context) (int64, error)
}
