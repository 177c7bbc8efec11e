package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/notification"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/provider"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
	"github.com/vihaglobalsystems-prog/selt-backend/pkg/messaging"
)

const (
	defaultCustomerRefundReason = "Customer requested"
	defaultAdminRefundReason    = "Admin initiated refund"

	initiatorCustomer = "customer"
	initiatorAdmin    = "admin"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// RefundRequest describes a refund. Exactly one of UserID and AdminEmail is set.
type RefundRequest struct {
	PaymentID uuid.UUID
	// UserID restricts the refund to payments owned by this user
	UserID     string
	AdminEmail string
	// Amount is in major units; nil refunds the whole payment. Admin only.
	Amount *decimal.Decimal
	Reason string
}

// RefundService issues Stripe refunds and records them
type RefundService struct {
	processor provider.PaymentProcessor
	payments  repository.PaymentRepository
	refunds   repository.RefundRepository
	publisher messaging.Publisher
	notifier  notification.Dispatcher
	metrics   *Metrics
	logger    *zap.Logger
}

// NewRefundService creates a new refund service
func NewRefundService(
	processor provider.PaymentProcessor,
	repos *repository.Repositories,
	publisher messaging.Publisher,
	notifier notification.Dispatcher,
	metrics *Metrics,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		processor: processor,
		payments:  repos.Payment,
		refunds:   repos.Refund,
		publisher: publisher,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
	}
}

// Refund refunds a payment. A payment stored without its payment intent is
// repaired from the Stripe invoice before refunding.
func (s *RefundService) Refund(ctx context.Context, req RefundRequest) (*model.Refund, error) {
	payment, err := s.payments.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, domainErrors.ErrPaymentNotFound
	}

	initiator, initiatedBy := initiatorAdmin, req.AdminEmail
	if req.AdminEmail == "" {
		initiator, initiatedBy = initiatorCustomer, req.UserID
		if payment.UserID.String() != req.UserID {
			s.logger.Warn("Refund requested for another user's payment",
				zap.String("payment_id", payment.ID.String()),
				zap.String("user_id", req.UserID))
			return nil, domainErrors.ErrForbidden
		}
	}

	if payment.Status != model.PaymentStatusPaid {
		return nil, domainErrors.InvalidArgument("Only paid payments can be refunded")
	}

	amount, err := refundAmount(req.Amount, payment.Amount)
	if err != nil {
		return nil, err
	}

	paymentIntent, err := s.ensurePaymentIntent(ctx, payment)
	if err != nil {
		return nil, err
	}

	reason := req.Reason
	if reason == "" {
		reason = defaultCustomerRefundReason
		if initiator == initiatorAdmin {
			reason = defaultAdminRefundReason
		}
	}

	stripeRefund, err := s.processor.CreateRefund(ctx, &provider.RefundRequest{
		PaymentIntentID: paymentIntent,
		Amount:          amount,
		Reason:          reason,
		IdempotencyKey:  refundIdempotencyKey(payment.ID, amount),
	})
	if err != nil {
		return nil, err
	}

	refund := &model.Refund{
		PaymentID:      payment.ID,
		StripeRefundID: stripeRefund.ID,
		Amount:         stripeRefund.Amount,
		Reason:         reason,
		Status:         stripeRefund.Status,
	}
	created, err := s.refunds.Record(ctx, refund)
	if err != nil {
		return nil, err
	}
	if !created {
		s.logger.Info("Refund already recorded",
			zap.String("payment_id", payment.ID.String()),
			zap.String("stripe_refund_id", refund.StripeRefundID))
		return refund, nil
	}

	s.metrics.refunds.WithLabelValues(initiator).Inc()
	s.logger.Info("Refund processed",
		zap.String("payment_id", payment.ID.String()),
		zap.String("stripe_refund_id", refund.StripeRefundID),
		zap.Int64("amount", refund.Amount),
		zap.String("initiator", initiator))

	s.afterRefund(ctx, payment, refund, initiatedBy)
	return refund, nil
}

// ensurePaymentIntent returns the payment intent of payment, fetching and
// persisting it from the invoice when it was never stored.
func (s *RefundService) ensurePaymentIntent(ctx context.Context, payment *model.Payment) (string, error) {
	if payment.HasPaymentIntent() {
		return *payment.StripePaymentIntent, nil
	}

	invoice, err := s.processor.GetInvoice(ctx, payment.StripeInvoiceID)
	if err != nil {
		s.logger.Warn("Could not fetch invoice to recover payment intent",
			zap.String("payment_id", payment.ID.String()),
			zap.String("stripe_invoice_id", payment.StripeInvoiceID),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", domainErrors.ErrMissingPaymentReference, err)
	}
	if invoice.PaymentIntentID == "" {
		return "", domainErrors.ErrMissingPaymentReference
	}

	if err := s.payments.SetPaymentIntent(ctx, payment.ID, invoice.PaymentIntentID); err != nil {
		return "", err
	}
	s.logger.Info("Recovered payment intent from invoice",
		zap.String("payment_id", payment.ID.String()),
		zap.String("stripe_invoice_id", payment.StripeInvoiceID),
		zap.String("payment_intent", invoice.PaymentIntentID))

	pi := invoice.PaymentIntentID
	payment.StripePaymentIntent = &pi
	return pi, nil
}

func (s *RefundService) afterRefund(ctx context.Context, payment *model.Payment, refund *model.Refund, initiatedBy string) {
	msg := RefundMessage{
		RefundID:       refund.ID,
		PaymentID:      payment.ID,
		StripeRefundID: refund.StripeRefundID,
		Amount:         refund.Amount,
		InitiatedBy:    initiatedBy,
	}
	if err := s.publisher.Publish(ctx, messaging.ChannelRefundCreated, msg); err != nil {
		s.logger.Warn("Failed to publish refund",
			zap.String("stripe_refund_id", refund.StripeRefundID),
			zap.Error(err))
	}

	if payment.User == nil {
		return
	}
	recipient := notification.Recipient{UserID: payment.User.ID, Email: payment.User.Email, Name: payment.User.Name}
	params := notification.Params{
		notification.ParamAmount:   refund.Amount,
		notification.ParamCurrency: payment.Currency,
	}
	if err := s.notifier.Send(ctx, recipient, model.EmailTypeRefundConfirmation, params); err != nil {
		s.logger.Warn("Failed to send refund confirmation",
			zap.String("stripe_refund_id", refund.StripeRefundID),
			zap.Error(err))
	}
}

// refundAmount converts a major-unit amount to minor units, rounding half away from zero
func refundAmount(major *decimal.Decimal, paid int64) (*int64, error) {
	if major == nil {
		return nil, nil
	}
	minor := major.Mul(minorUnitsPerMajor).Round(0).IntPart()
	if minor <= 0 {
		return nil, domainErrors.InvalidArgument("Refund amount must be positive")
	}
	if minor > paid {
		return nil, domainErrors.InvalidArgument("Refund amount exceeds the payment amount")
	}
	return &minor, nil
}

// refundIdempotencyKey makes a resubmitted refund of the same payment and
// amount return the original Stripe refund.
func refundIdempotencyKey(paymentID uuid.UUID, amount *int64) string {
	if amount == nil {
		return fmt.Sprintf("refund-%s-full", paymentID)
	}
	return fmt.Sprintf("refund-%s-%d", paymentID, *amount)
}
