package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
)

type SubscriptionRepository interface {
	// UpsertByStripeID inserts or overwrites the row keyed by
	// StripeSubscriptionID in a single statement. The owning user of an
	// existing row is never changed.
	UpsertByStripeID(ctx context.Context, sub *model.Subscription) error
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*model.Subscription, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error)

	// RefreshPeriod updates status and billing period only.
	RefreshPeriod(ctx context.Context, id uuid.UUID, status model.SubscriptionStatus, start, end time.Time) error

	// MarkCanceledByStripeID never creates a row; it reports whether one was updated.
	MarkCanceledByStripeID(ctx context.Context, stripeSubscriptionID string, at time.Time) (bool, error)
	MarkCanceled(ctx context.Context, id uuid.UUID, at time.Time) error
	SetCancelAtPeriodEnd(ctx context.Context, id uuid.UUID, cancel bool) error

	// FindLatestEntitledForUser returns the newest active or trialing subscription.
	FindLatestEntitledForUser(ctx context.Context, userID uuid.UUID) (*model.Subscription, error)

	// ListRenewingBetween returns active subscriptions not set to cancel whose
	// period ends within [from, to], with User preloaded.
	ListRenewingBetween(ctx context.Context, from, to time.Time) ([]*model.Subscription, error)

	List(ctx context.Context, status string, offset, limit int) ([]*model.Subscription, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Subscription, error)
	ListActiveByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]*model.Subscription, error)
	CountByStatus(ctx context.Context, status model.SubscriptionStatus) (int64, error)
}
