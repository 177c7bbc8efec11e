package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/entity"
	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/notification"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/provider"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
	"github.com/vihaglobalsystems-prog/selt-backend/pkg/messaging"
)

// SubscriptionService answers entitlement queries and cancels subscriptions
type SubscriptionService struct {
	processor     provider.PaymentProcessor
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
	publisher     messaging.Publisher
	notifier      notification.Dispatcher
	logger        *zap.Logger
	now           func() time.Time
}

// NewSubscriptionService creates a new subscription service instance
func NewSubscriptionService(
	processor provider.PaymentProcessor,
	repos *repository.Repositories,
	publisher messaging.Publisher,
	notifier notification.Dispatcher,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		processor:     processor,
		users:         repos.User,
		subscriptions: repos.Subscription,
		publisher:     publisher,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

// Status reports the newest active or trialing subscription of userID.
// Users without one, including unknown or malformed ids, get the canonical
// "none" status rather than an error.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*entity.SubscriptionStatus, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return entity.NoSubscription(), nil
	}

	sub, err := s.subscriptions.FindLatestEntitledForUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription status: %w", err)
	}
	if sub == nil {
		return entity.NoSubscription(), nil
	}

	periodEnd := sub.CurrentPeriodEnd
	return &entity.SubscriptionStatus{
		HasActiveSubscription: true,
		Status:                string(sub.Status),
		CurrentPeriodEnd:      &periodEnd,
		CancelAtPeriodEnd:     sub.CancelAtPeriodEnd,
	}, nil
}

// Cancel ends a subscription now or schedules it for the end of the current period
func (s *SubscriptionService) Cancel(ctx context.Context, subscriptionID uuid.UUID, immediate bool) (*model.Subscription, error) {
	sub, err := s.subscriptions.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, domainErrors.ErrSubscriptionNotFound
	}
	if sub.Status == model.SubscriptionStatusCanceled {
		return nil, domainErrors.ErrAlreadyCanceled
	}

	channel := messaging.ChannelSubscriptionUpdated
	if immediate {
		if _, err := s.processor.CancelSubscription(ctx, sub.StripeSubscriptionID); err != nil {
			return nil, err
		}
		canceledAt := s.now()
		if err := s.subscriptions.MarkCanceled(ctx, sub.ID, canceledAt); err != nil {
			return nil, err
		}
		sub.Status = model.SubscriptionStatusCanceled
		sub.CanceledAt = &canceledAt
		channel = messaging.ChannelSubscriptionCanceled
	} else {
		if _, err := s.processor.SetCancelAtPeriodEnd(ctx, sub.StripeSubscriptionID, true); err != nil {
			return nil, err
		}
		if err := s.subscriptions.SetCancelAtPeriodEnd(ctx, sub.ID, true); err != nil {
			return nil, err
		}
		sub.CancelAtPeriodEnd = true
	}

	s.logger.Info("Subscription canceled",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("stripe_subscription_id", sub.StripeSubscriptionID),
		zap.Bool("immediate", immediate))

	s.publishCancel(ctx, channel, sub)
	s.notifyCancel(ctx, sub, immediate)

	return sub, nil
}

func (s *SubscriptionService) publishCancel(ctx context.Context, channel string, sub *model.Subscription) {
	end := sub.CurrentPeriodEnd
	msg := SubscriptionMessage{
		UserID:               sub.UserID,
		StripeSubscriptionID: sub.StripeSubscriptionID,
		Status:               string(sub.Status),
		CurrentPeriodEnd:     &end,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if err := s.publisher.Publish(ctx, channel, msg); err != nil {
		s.logger.Warn("Failed to publish subscription change",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("channel", channel),
			zap.Error(err))
	}
}

func (s *SubscriptionService) notifyCancel(ctx context.Context, sub *model.Subscription, immediate bool) {
	user, err := s.users.GetByID(ctx, sub.UserID)
	if err != nil || user == nil {
		s.logger.Warn("Skipping cancellation email, user not loaded",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("user_id", sub.UserID.String()),
			zap.Error(err))
		return
	}

	params := notification.Params{
		notification.ParamImmediate: immediate,
		notification.ParamPeriodEnd: notification.FormatDate(sub.CurrentPeriodEnd),
	}
	recipient := notification.Recipient{UserID: user.ID, Email: user.Email, Name: user.Name}
	if err := s.notifier.Send(ctx, recipient, model.EmailTypeCancelConfirmation, params); err != nil {
		s.logger.Warn("Failed to send cancellation email",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err))
	}
}
