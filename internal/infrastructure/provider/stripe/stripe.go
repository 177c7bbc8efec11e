// Package stripe adapts the Stripe API client to provider.PaymentProcessor.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/event"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/provider"
)

// Config configures the Stripe processor
type Config struct {
	SecretKey     string
	WebhookSecret string

	// Backend overrides the API backend; nil uses api.stripe.com
	Backend stripeapi.Backend
}

// Processor implements provider.PaymentProcessor on top of stripe-go
type Processor struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

var _ provider.PaymentProcessor = (*Processor)(nil)

// NewProcessor creates a Stripe processor with its own client instead of the package-level key
func NewProcessor(cfg Config, logger *zap.Logger) *Processor {
	var backends *stripeapi.Backends
	if cfg.Backend != nil {
		backends = &stripeapi.Backends{
			API:     cfg.Backend,
			Connect: cfg.Backend,
			Uploads: cfg.Backend,
		}
	}

	return &Processor{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
}

// VerifyEvent checks the Stripe-Signature header before decoding anything
func (p *Processor) VerifyEvent(payload []byte, signature string) (*provider.Event, error) {
	if signature == "" {
		return nil, fmt.Errorf("missing signature header: %w", domainErrors.ErrUnauthenticatedEvent)
	}

	evt, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		p.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrUnauthenticatedEvent, err)
	}

	out := &provider.Event{
		ID:         evt.ID,
		Type:       string(evt.Type),
		Kind:       event.Classify(string(evt.Type)),
		APIVersion: evt.APIVersion,
		Created:    time.Unix(evt.Created, 0).UTC(),
	}

	var raw json.RawMessage
	if evt.Data != nil {
		raw = evt.Data.Raw
	}

	switch out.Kind {
	case event.CheckoutCompleted:
		var session stripeapi.CheckoutSession
		if err := decodeObject(raw, &session); err != nil {
			return nil, err
		}
		out.CheckoutSession = toCheckoutSession(&session)
	case event.InvoicePaid, event.InvoicePaymentFailed:
		var invoice stripeapi.Invoice
		if err := decodeObject(raw, &invoice); err != nil {
			return nil, err
		}
		out.Invoice = toInvoice(&invoice)
	case event.SubscriptionUpdated, event.SubscriptionDeleted:
		var sub stripeapi.Subscription
		if err := decodeObject(raw, &sub); err != nil {
			return nil, err
		}
		out.Subscription = toSubscription(&sub)
	case event.Unknown:
	}

	return out, nil
}

func decodeObject(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("event has no data object: %w", domainErrors.ErrUnauthenticatedEvent)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: malformed event object: %v", domainErrors.ErrUnauthenticatedEvent, err)
	}
	return nil
}

// GetSubscription retrieves a subscription with its items
func (p *Processor) GetSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	params := &stripeapi.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, domainErrors.Upstream("get subscription "+subscriptionID, err)
	}
	return toSubscription(sub), nil
}

// GetInvoice retrieves an invoice
func (p *Processor) GetInvoice(ctx context.Context, invoiceID string) (*provider.Invoice, error) {
	params := &stripeapi.InvoiceParams{}
	params.Context = ctx

	invoice, err := p.api.Invoices.Get(invoiceID, params)
	if err != nil {
		return nil, domainErrors.Upstream("get invoice "+invoiceID, err)
	}
	return toInvoice(invoice), nil
}

// CreateRefund refunds a payment intent, fully or partially
func (p *Processor) CreateRefund(ctx context.Context, req *provider.RefundRequest) (*provider.Refund, error) {
	params := &stripeapi.RefundParams{
		PaymentIntent: stripeapi.String(req.PaymentIntentID),
		Reason:        stripeapi.String(string(stripeapi.RefundReasonRequestedByCustomer)),
	}
	if req.Amount != nil {
		params.Amount = stripeapi.Int64(*req.Amount)
	}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	refund, err := p.api.Refunds.New(params)
	if err != nil {
		return nil, domainErrors.Upstream("create refund for "+req.PaymentIntentID, err)
	}

	p.logger.Info("Stripe refund created",
		zap.String("refund_id", refund.ID),
		zap.String("payment_intent", req.PaymentIntentID),
		zap.Int64("amount", refund.Amount))

	return &provider.Refund{
		ID:     refund.ID,
		Amount: refund.Amount,
		Status: string(refund.Status),
	}, nil
}

// CancelSubscription cancels a subscription immediately
func (p *Processor) CancelSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	params := &stripeapi.SubscriptionCancelParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Cancel(subscriptionID, params)
	if err != nil {
		return nil, domainErrors.Upstream("cancel subscription "+subscriptionID, err)
	}
	return toSubscription(sub), nil
}

// SetCancelAtPeriodEnd schedules or unschedules cancellation at the end of the current period
func (p *Processor) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*provider.Subscription, error) {
	params := &stripeapi.SubscriptionParams{
		CancelAtPeriodEnd: stripeapi.Bool(cancel),
	}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, domainErrors.Upstream("update subscription "+subscriptionID, err)
	}
	return toSubscription(sub), nil
}

// CreateCustomer creates a customer tagged with the local user ID
func (p *Processor) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (*provider.Customer, error) {
	params := &stripeapi.CustomerParams{
		Email: stripeapi.String(req.Email),
		Name:  stripeapi.String(req.Name),
	}
	params.AddMetadata("user_id", req.UserID)
	params.Context = ctx

	customer, err := p.api.Customers.New(params)
	if err != nil {
		return nil, domainErrors.Upstream("create customer", err)
	}
	return &provider.Customer{ID: customer.ID}, nil
}

// CreateCheckoutSession starts a hosted checkout for one unit of the given price
func (p *Processor) CreateCheckoutSession(ctx context.Context, req *provider.CheckoutSessionRequest) (*provider.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{
		Customer:           stripeapi.String(req.CustomerID),
		Mode:               stripeapi.String(string(stripeapi.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripeapi.StringSlice([]string{"card"}),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Price:    stripeapi.String(req.PriceID),
				Quantity: stripeapi.Int64(1),
			},
		},
		SuccessURL: stripeapi.String(req.SuccessURL),
		CancelURL:  stripeapi.String(req.CancelURL),
	}
	params.AddMetadata("user_id", req.UserID)
	params.Context = ctx

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, domainErrors.Upstream("create checkout session", err)
	}
	return toCheckoutSession(session), nil
}

func toSubscription(s *stripeapi.Subscription) *provider.Subscription {
	out := &provider.Subscription{
		ID:                 s.ID,
		Status:             string(s.Status),
		CurrentPeriodStart: time.Unix(s.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(s.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PriceID = s.Items.Data[0].Price.ID
	}
	return out
}

func toInvoice(in *stripeapi.Invoice) *provider.Invoice {
	out := &provider.Invoice{
		ID:         in.ID,
		AmountPaid: in.AmountPaid,
		AmountDue:  in.AmountDue,
		Currency:   string(in.Currency),
	}
	if in.Customer != nil {
		out.CustomerID = in.Customer.ID
	}
	if in.Subscription != nil {
		out.SubscriptionID = in.Subscription.ID
	}
	if in.PaymentIntent != nil {
		out.PaymentIntentID = in.PaymentIntent.ID
	}
	return out
}

func toCheckoutSession(s *stripeapi.CheckoutSession) *provider.CheckoutSession {
	out := &provider.CheckoutSession{
		ID:   s.ID,
		Mode: string(s.Mode),
		URL:  s.URL,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	return out
}
