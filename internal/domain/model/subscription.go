package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus mirrors the Stripe subscription status
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// IsEntitled reports whether the status grants premium access.
func (s SubscriptionStatus) IsEntitled() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusIncomplete
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Subscription mirrors one Stripe subscription. At most one row exists per
// StripeSubscriptionID.
type Subscription struct {
	ID                   uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID               uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	StripeSubscriptionID string             `gorm:"uniqueIndex;not null;size:100" json:"stripe_subscription_id"`
	StripePriceID        string             `gorm:"size:100" json:"stripe_price_id"`
	Status               SubscriptionStatus `gorm:"size:32;not null;index" json:"status"`
	CurrentPeriodStart   time.Time          `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd     time.Time          `gorm:"not null;index" json:"current_period_end"`
	CancelAtPeriodEnd    bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt           *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt            time.Time          `gorm:"default:now()" json:"created_at"`
	UpdatedAt            time.Time          `gorm:"default:now()" json:"updated_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}
