package usecase

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMessage is published on the payment channels
type PaymentMessage struct {
	EventID         string    `json:"event_id"`
	UserID          uuid.UUID `json:"user_id"`
	StripeInvoiceID string    `json:"stripe_invoice_id"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
}

// SubscriptionMessage is published on the subscription channels
type SubscriptionMessage struct {
	EventID              string     `json:"event_id,omitempty"`
	UserID               uuid.UUID  `json:"user_id"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
	Status               string     `json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
}

// RefundMessage is published when a refund is created
type RefundMessage struct {
	RefundID       uuid.UUID `json:"refund_id"`
	PaymentID      uuid.UUID `json:"payment_id"`
	StripeRefundID string    `json:"stripe_refund_id"`
	Amount         int64     `json:"amount"`
	InitiatedBy    string    `json:"initiated_by"`
}
