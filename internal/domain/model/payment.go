package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the outcome of one invoice payment attempt
type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
)

// Payment is one row per Stripe invoice. Amount is in minor currency units.
type Payment struct {
	ID                  uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID              uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	SubscriptionID      *uuid.UUID    `gorm:"type:uuid;index" json:"subscription_id,omitempty"`
	StripeInvoiceID     string        `gorm:"uniqueIndex;not null;size:100" json:"stripe_invoice_id"`
	StripePaymentIntent *string       `gorm:"size:100" json:"stripe_payment_intent,omitempty"`
	Amount              int64         `gorm:"not null" json:"amount"`
	Currency            string        `gorm:"size:3;not null" json:"currency"`
	Status              PaymentStatus `gorm:"size:20;not null;index" json:"status"`
	PaidAt              *time.Time    `json:"paid_at,omitempty"`
	CreatedAt           time.Time     `gorm:"default:now()" json:"created_at"`
	UpdatedAt           time.Time     `gorm:"default:now()" json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// HasPaymentIntent reports whether the Stripe payment intent reference is known.
func (p *Payment) HasPaymentIntent() bool {
	return p.StripePaymentIntent != nil && *p.StripePaymentIntent != ""
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}
