package model

import (
	"time"

	"github.com/google/uuid"
)

// Refund mirrors one Stripe refund against a Payment
type Refund struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PaymentID      uuid.UUID `gorm:"type:uuid;not null;index" json:"payment_id"`
	StripeRefundID string    `gorm:"uniqueIndex;not null;size:100" json:"stripe_refund_id"`
	Amount         int64     `gorm:"not null" json:"amount"`
	Reason         string    `gorm:"size:500" json:"reason"`
	Status         string    `gorm:"size:32;not null" json:"status"`
	CreatedAt      time.Time `gorm:"default:now()" json:"created_at"`

	// Relations
	Payment *Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
}

// TableName specifies the table name for GORM
func (Refund) TableName() string {
	return "refunds"
}
