package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/notification"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

const (
	reminderLookahead   = 7 * 24 * time.Hour
	reminderSuppression = 8 * 24 * time.Hour
)

// ReminderConfig holds the renewal reminder settings
type ReminderConfig struct {
	AmountMinor int64
	Currency    string
	// RatePerSecond caps provider requests; zero or less means unlimited
	RatePerSecond float64
}

// ReminderResult summarizes one reminder run
type ReminderResult struct {
	Processed int
	Sent      int
}

// Message is the cron response text
func (r *ReminderResult) Message() string {
	return fmt.Sprintf("Processed %d expiring, sent %d reminders", r.Processed, r.Sent)
}

// ReminderService emails users whose subscription renews within a week
type ReminderService struct {
	subscriptions repository.SubscriptionRepository
	emailLogs     repository.EmailLogRepository
	notifier      notification.Dispatcher
	limiter       *rate.Limiter
	config        ReminderConfig
	metrics       *Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewReminderService creates a new reminder service
func NewReminderService(
	repos *repository.Repositories,
	notifier notification.Dispatcher,
	cfg ReminderConfig,
	metrics *Metrics,
	logger *zap.Logger,
) *ReminderService {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &ReminderService{
		subscriptions: repos.Subscription,
		emailLogs:     repos.EmailLog,
		notifier:      notifier,
		limiter:       rate.NewLimiter(limit, 1),
		config:        cfg,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// SendRenewalReminders reminds every user with an active subscription renewing
// in the next seven days, unless they were reminded in the last eight.
// A failed send is logged and skipped.
func (s *ReminderService) SendRenewalReminders(ctx context.Context) (*ReminderResult, error) {
	now := s.now()

	subs, err := s.subscriptions.ListRenewingBetween(ctx, now, now.Add(reminderLookahead))
	if err != nil {
		return nil, err
	}

	result := &ReminderResult{Processed: len(subs)}
	for _, sub := range subs {
		if sub.User == nil {
			continue
		}

		reminded, err := s.emailLogs.ExistsSince(ctx, sub.UserID, model.EmailTypeBillingReminder, now.Add(-reminderSuppression))
		if err != nil {
			s.logger.Warn("Failed to check reminder history",
				zap.String("user_id", sub.UserID.String()),
				zap.Error(err))
			continue
		}
		if reminded {
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("reminder run interrupted: %w", err)
		}

		recipient := notification.Recipient{UserID: sub.User.ID, Email: sub.User.Email, Name: sub.User.Name}
		params := notification.Params{
			notification.ParamRenewalDate: notification.FormatDate(sub.CurrentPeriodEnd),
			notification.ParamAmount:      s.config.AmountMinor,
			notification.ParamCurrency:    s.config.Currency,
		}
		if err := s.notifier.Send(ctx, recipient, model.EmailTypeBillingReminder, params); err != nil {
			s.logger.Warn("Failed to send renewal reminder",
				zap.String("user_id", sub.UserID.String()),
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			continue
		}

		result.Sent++
		s.metrics.remindersSent.Inc()
	}

	s.logger.Info("Renewal reminders processed",
		zap.Int("processed", result.Processed),
		zap.Int("sent", result.Sent))

	return result, nil
}
