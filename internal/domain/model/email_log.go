package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EmailType identifies the template a notification was rendered from
type EmailType string

const (
	EmailTypeBillingReminder    EmailType = "billing_reminder"
	EmailTypeRefundConfirmation EmailType = "refund_confirmation"
	EmailTypeCancelConfirmation EmailType = "cancellation_confirmation"
	EmailTypePaymentFailed      EmailType = "payment_failed"
)

// EmailLog is an append-only record of a sent notification
type EmailLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_email_logs_user_type_sent,priority:1" json:"user_id"`
	EmailType EmailType      `gorm:"size:50;not null;index:idx_email_logs_user_type_sent,priority:2" json:"email_type"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	SentAt    time.Time      `gorm:"not null;default:now();index:idx_email_logs_user_type_sent,priority:3" json:"sent_at"`
}

// TableName specifies the table name for GORM
func (EmailLog) TableName() string {
	return "email_logs"
}
