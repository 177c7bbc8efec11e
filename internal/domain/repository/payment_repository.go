package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
)

type PaymentRepository interface {
	// UpsertByInvoiceID inserts or updates the row keyed by StripeInvoiceID
	// in a single statement. A nil payment intent or subscription never
	// clears a stored value.
	UpsertByInvoiceID(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	SetPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) error

	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Payment, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Payment, error)
	CountByStatus(ctx context.Context, status model.PaymentStatus) (int64, error)
	SumAmountByStatus(ctx context.Context, status model.PaymentStatus) (int64, error)
}
