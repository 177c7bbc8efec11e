package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
)

// Recipient is the user a notification is addressed to
type Recipient struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// Params are the template values of a notification. They are also stored as the
// EmailLog metadata, so values must be JSON-serializable.
type Params map[string]interface{}

// Parameter keys understood by the templates
const (
	ParamRenewalDate = "renewalDate"
	ParamAmount      = "amount"
	ParamCurrency    = "currency"
	ParamImmediate   = "immediate"
	ParamPeriodEnd   = "periodEnd"
)

// Dispatcher renders and sends a notification, then records it in the email log
type Dispatcher interface {
	Send(ctx context.Context, recipient Recipient, kind model.EmailType, params Params) error
}

// FormatDate renders a date the way customer-facing emails show it, e.g. "Monday, 3 March 2025"
func FormatDate(t time.Time) string {
	return t.Format("Monday, 2 January 2006")
}
