package provider

import (
	"context"
	"time"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/event"
)

// PaymentProcessor is the subset of the payment processor API the billing
// service depends on. Implementations return errors that match
// errors.ErrUpstream for failed remote calls.
type PaymentProcessor interface {
	// VerifyEvent authenticates a raw webhook payload and decodes the object
	// carried by the event. It performs no network I/O.
	VerifyEvent(payload []byte, signature string) (*Event, error)

	GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
	CreateRefund(ctx context.Context, req *RefundRequest) (*Refund, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*Subscription, error)
	CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*CheckoutSession, error)
}

// Event is a verified webhook event. Exactly one of the object fields is
// set for known kinds; none are set for event.Unknown.
type Event struct {
	ID         string
	Type       string
	Kind       event.Kind
	APIVersion string
	Created    time.Time

	CheckoutSession *CheckoutSession
	Invoice         *Invoice
	Subscription    *Subscription
}

// Subscription is the processor's view of a subscription
type Subscription struct {
	ID                 string
	CustomerID         string
	PriceID            string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
}

// Invoice is the processor's view of an invoice. Amounts are in minor units.
type Invoice struct {
	ID              string
	CustomerID      string
	SubscriptionID  string
	PaymentIntentID string
	AmountPaid      int64
	AmountDue       int64
	Currency        string
}

type CheckoutSession struct {
	ID             string
	CustomerID     string
	SubscriptionID string
	Mode           string
	URL            string
}

type RefundRequest struct {
	PaymentIntentID string
	// Amount in minor units; nil refunds the full charge
	Amount         *int64
	Reason         string
	IdempotencyKey string
}

type Refund struct {
	ID     string
	Amount int64
	Status string
}

type CreateCustomerRequest struct {
	Email  string
	Name   string
	UserID string
}

type Customer struct {
	ID string
}

type CheckoutSessionRequest struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	UserID     string
}
