package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/event"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/notification"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/provider"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
	pkgErrors "github.com/vihaglobalsystems-prog/selt-backend/pkg/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/pkg/messaging"
)

// Outcome describes how a verified event was handled
type Outcome struct {
	EventID   string
	EventType string
	Kind      event.Kind
	// Applied is false when the event was a safe no-op
	Applied bool
}

// WebhookService reconciles local billing state with Stripe events.
// Events are at-least-once and unordered; every write is an upsert keyed by
// the Stripe object id, so redelivery converges to one row.
type WebhookService struct {
	processor     provider.PaymentProcessor
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
	payments      repository.PaymentRepository
	webhookEvents repository.WebhookEventRepository
	publisher     messaging.Publisher
	notifier      notification.Dispatcher
	metrics       *Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewWebhookService creates a new webhook reconciler
func NewWebhookService(
	processor provider.PaymentProcessor,
	repos *repository.Repositories,
	publisher messaging.Publisher,
	notifier notification.Dispatcher,
	metrics *Metrics,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		processor:     processor,
		users:         repos.User,
		subscriptions: repos.Subscription,
		payments:      repos.Payment,
		webhookEvents: repos.Webhook,
		publisher:     publisher,
		notifier:      notifier,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// Process verifies payload, then applies the event it carries. Nothing is
// read or written before the signature is checked.
func (s *WebhookService) Process(ctx context.Context, payload []byte, signature string) (*Outcome, error) {
	evt, err := s.processor.VerifyEvent(payload, signature)
	if err != nil {
		s.metrics.webhookEvents.WithLabelValues(event.Unknown.String(), outcomeRejected).Inc()
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.String("event_id", evt.ID),
		zap.String("event_type", evt.Type),
	}
	s.logger.Info("Webhook event received", fields...)

	s.recordAttempt(ctx, evt)

	start := time.Now()
	applied, err := s.dispatch(ctx, evt)
	s.metrics.webhookDuration.WithLabelValues(evt.Kind.String()).Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.webhookEvents.WithLabelValues(evt.Kind.String(), outcomeFailed).Inc()
		s.markStatus(ctx, evt, model.WebhookStatusFailed, err.Error())
		pkgErrors.LogError(s.logger, err, "Webhook event processing failed", fields...)
		return nil, fmt.Errorf("process %s %s: %w", evt.Type, evt.ID, err)
	}

	status, outcome := model.WebhookStatusCompleted, outcomeApplied
	if !applied {
		status, outcome = model.WebhookStatusIgnored, outcomeIgnored
	}
	s.metrics.webhookEvents.WithLabelValues(evt.Kind.String(), outcome).Inc()
	s.markStatus(ctx, evt, status, "")

	return &Outcome{
		EventID:   evt.ID,
		EventType: evt.Type,
		Kind:      evt.Kind,
		Applied:   applied,
	}, nil
}

func (s *WebhookService) dispatch(ctx context.Context, evt *provider.Event) (bool, error) {
	switch evt.Kind {
	case event.CheckoutCompleted:
		if evt.CheckoutSession == nil {
			return false, fmt.Errorf("event has no checkout session")
		}
		return s.handleCheckoutCompleted(ctx, evt)
	case event.InvoicePaid:
		if evt.Invoice == nil {
			return false, fmt.Errorf("event has no invoice")
		}
		return s.handleInvoicePaid(ctx, evt)
	case event.InvoicePaymentFailed:
		if evt.Invoice == nil {
			return false, fmt.Errorf("event has no invoice")
		}
		return s.handleInvoicePaymentFailed(ctx, evt)
	case event.SubscriptionUpdated:
		if evt.Subscription == nil {
			return false, fmt.Errorf("event has no subscription")
		}
		return s.handleSubscriptionUpdated(ctx, evt)
	case event.SubscriptionDeleted:
		if evt.Subscription == nil {
			return false, fmt.Errorf("event has no subscription")
		}
		return s.handleSubscriptionDeleted(ctx, evt)
	case event.Unknown:
		s.logger.Info("Unhandled webhook event type",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type))
		return false, nil
	default:
		return false, fmt.Errorf("no handler for event kind %s", evt.Kind)
	}
}

func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, evt *provider.Event) (bool, error) {
	session := evt.CheckoutSession
	if session.SubscriptionID == "" {
		s.logger.Info("Checkout session has no subscription",
			zap.String("event_id", evt.ID),
			zap.String("session_id", session.ID),
			zap.String("mode", session.Mode))
		return false, nil
	}

	user, err := s.resolveUser(ctx, evt, session.CustomerID)
	if err != nil || user == nil {
		return false, err
	}

	// the session payload is not trusted for subscription detail
	sub, err := s.processor.GetSubscription(ctx, session.SubscriptionID)
	if err != nil {
		return false, err
	}

	stored, err := s.upsertSubscription(ctx, user.ID, sub)
	if err != nil {
		return false, err
	}

	s.logger.Info("Subscription created from checkout",
		zap.String("event_id", evt.ID),
		zap.String("user_id", user.ID.String()),
		zap.String("stripe_subscription_id", sub.ID),
		zap.String("status", sub.Status))

	s.publish(ctx, evt, messaging.ChannelSubscriptionUpdated, subscriptionMessage(evt.ID, stored))
	return true, nil
}

func (s *WebhookService) handleInvoicePaid(ctx context.Context, evt *provider.Event) (bool, error) {
	invoice := evt.Invoice

	user, err := s.resolveUser(ctx, evt, invoice.CustomerID)
	if err != nil || user == nil {
		return false, err
	}

	localSub, err := s.localSubscription(ctx, invoice)
	if err != nil {
		return false, err
	}

	paidAt := s.now()
	payment := newPayment(user.ID, localSub, invoice)
	payment.Amount = invoice.AmountPaid
	payment.Status = model.PaymentStatusPaid
	payment.PaidAt = &paidAt

	if err := s.payments.UpsertByInvoiceID(ctx, payment); err != nil {
		return false, err
	}

	if localSub != nil {
		remote, err := s.processor.GetSubscription(ctx, invoice.SubscriptionID)
		if err != nil {
			return false, err
		}
		err = s.subscriptions.RefreshPeriod(ctx, localSub.ID,
			model.SubscriptionStatus(remote.Status), remote.CurrentPeriodStart, remote.CurrentPeriodEnd)
		if err != nil {
			return false, err
		}
	}

	s.logger.Info("Invoice paid",
		zap.String("event_id", evt.ID),
		zap.String("user_id", user.ID.String()),
		zap.String("stripe_invoice_id", invoice.ID),
		zap.Int64("amount", invoice.AmountPaid),
		zap.String("currency", invoice.Currency))

	s.publish(ctx, evt, messaging.ChannelPaymentPaid, paymentMessage(evt.ID, payment))
	return true, nil
}

func (s *WebhookService) handleInvoicePaymentFailed(ctx context.Context, evt *provider.Event) (bool, error) {
	invoice := evt.Invoice

	user, err := s.resolveUser(ctx, evt, invoice.CustomerID)
	if err != nil || user == nil {
		return false, err
	}

	localSub, err := s.localSubscription(ctx, invoice)
	if err != nil {
		return false, err
	}

	payment := newPayment(user.ID, localSub, invoice)
	payment.Amount = invoice.AmountDue
	payment.Status = model.PaymentStatusFailed

	if err := s.payments.UpsertByInvoiceID(ctx, payment); err != nil {
		return false, err
	}

	s.logger.Warn("Invoice payment failed",
		zap.String("event_id", evt.ID),
		zap.String("user_id", user.ID.String()),
		zap.String("stripe_invoice_id", invoice.ID),
		zap.Int64("amount_due", invoice.AmountDue))

	s.publish(ctx, evt, messaging.ChannelPaymentFailed, paymentMessage(evt.ID, payment))
	s.notify(ctx, evt, user, model.EmailTypePaymentFailed, notification.Params{
		notification.ParamAmount:   invoice.AmountDue,
		notification.ParamCurrency: invoice.Currency,
	})
	return true, nil
}

func (s *WebhookService) handleSubscriptionUpdated(ctx context.Context, evt *provider.Event) (bool, error) {
	sub := evt.Subscription

	user, err := s.resolveUser(ctx, evt, sub.CustomerID)
	if err != nil || user == nil {
		return false, err
	}

	stored, err := s.upsertSubscription(ctx, user.ID, sub)
	if err != nil {
		return false, err
	}

	s.publish(ctx, evt, messaging.ChannelSubscriptionUpdated, subscriptionMessage(evt.ID, stored))
	return true, nil
}

func (s *WebhookService) handleSubscriptionDeleted(ctx context.Context, evt *provider.Event) (bool, error) {
	sub := evt.Subscription

	updated, err := s.subscriptions.MarkCanceledByStripeID(ctx, sub.ID, s.now())
	if err != nil {
		return false, err
	}
	if !updated {
		s.logger.Info("Deleted subscription is not tracked locally",
			zap.String("event_id", evt.ID),
			zap.String("stripe_subscription_id", sub.ID))
		return false, nil
	}

	s.publish(ctx, evt, messaging.ChannelSubscriptionCanceled, SubscriptionMessage{
		EventID:              evt.ID,
		StripeSubscriptionID: sub.ID,
		Status:               string(model.SubscriptionStatusCanceled),
	})
	return true, nil
}

// resolveUser returns nil, nil when the customer has no local user; the
// event is then a benign no-op.
func (s *WebhookService) resolveUser(ctx context.Context, evt *provider.Event, customerID string) (*model.User, error) {
	if customerID == "" {
		s.logger.Info("Event carries no customer",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type))
		return nil, nil
	}

	user, err := s.users.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve customer %s: %w", customerID, err)
	}
	if user == nil {
		s.logger.Warn("No local user for Stripe customer",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type),
			zap.String("customer_id", customerID))
	}
	return user, nil
}

func (s *WebhookService) localSubscription(ctx context.Context, invoice *provider.Invoice) (*model.Subscription, error) {
	if invoice.SubscriptionID == "" {
		return nil, nil
	}
	sub, err := s.subscriptions.GetByStripeID(ctx, invoice.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscription %s: %w", invoice.SubscriptionID, err)
	}
	return sub, nil
}

// upsertSubscription overwrites the mirrored state unconditionally; the last
// delivered event wins.
func (s *WebhookService) upsertSubscription(ctx context.Context, userID uuid.UUID, sub *provider.Subscription) (*model.Subscription, error) {
	row := &model.Subscription{
		UserID:               userID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        sub.PriceID,
		Status:               model.SubscriptionStatus(sub.Status),
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		UpdatedAt:            s.now(),
	}
	if err := s.subscriptions.UpsertByStripeID(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func newPayment(userID uuid.UUID, localSub *model.Subscription, invoice *provider.Invoice) *model.Payment {
	payment := &model.Payment{
		UserID:          userID,
		StripeInvoiceID: invoice.ID,
		Currency:        invoice.Currency,
	}
	if localSub != nil {
		payment.SubscriptionID = &localSub.ID
	}
	if invoice.PaymentIntentID != "" {
		pi := invoice.PaymentIntentID
		payment.StripePaymentIntent = &pi
	}
	return payment
}

func paymentMessage(eventID string, p *model.Payment) PaymentMessage {
	return PaymentMessage{
		EventID:         eventID,
		UserID:          p.UserID,
		StripeInvoiceID: p.StripeInvoiceID,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          string(p.Status),
	}
}

func subscriptionMessage(eventID string, sub *model.Subscription) SubscriptionMessage {
	end := sub.CurrentPeriodEnd
	return SubscriptionMessage{
		EventID:              eventID,
		UserID:               sub.UserID,
		StripeSubscriptionID: sub.StripeSubscriptionID,
		Status:               string(sub.Status),
		CurrentPeriodEnd:     &end,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
}

func (s *WebhookService) publish(ctx context.Context, evt *provider.Event, channel string, message interface{}) {
	if err := s.publisher.Publish(ctx, channel, message); err != nil {
		s.logger.Warn("Failed to publish billing event",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type),
			zap.String("channel", channel),
			zap.Error(err))
	}
}

func (s *WebhookService) notify(ctx context.Context, evt *provider.Event, user *model.User, kind model.EmailType, params notification.Params) {
	recipient := notification.Recipient{UserID: user.ID, Email: user.Email, Name: user.Name}
	if err := s.notifier.Send(ctx, recipient, kind, params); err != nil {
		s.logger.Warn("Failed to send billing email",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type),
			zap.String("email_type", string(kind)),
			zap.Error(err))
	}
}

func (s *WebhookService) recordAttempt(ctx context.Context, evt *provider.Event) {
	created := evt.Created
	entry := &model.StripeWebhookEvent{
		StripeEventID:   evt.ID,
		EventType:       evt.Type,
		StripeCreatedAt: &created,
	}
	if evt.APIVersion != "" {
		version := evt.APIVersion
		entry.APIVersion = &version
	}

	if err := s.webhookEvents.RecordAttempt(ctx, entry); err != nil {
		s.logger.Warn("Failed to record webhook attempt",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type),
			zap.Error(err))
	}
}

func (s *WebhookService) markStatus(ctx context.Context, evt *provider.Event, status model.WebhookStatus, lastError string) {
	if err := s.webhookEvents.MarkStatus(ctx, evt.ID, status, lastError); err != nil {
		s.logger.Warn("Failed to update webhook ledger",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}
