package repository

import (
	"context"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
)

// WebhookEventRepository maintains the delivery ledger. It is never
// consulted to decide whether an event should be applied.
type WebhookEventRepository interface {
	// RecordAttempt inserts the event or, on redelivery, increments its
	// attempt counter and resets it to processing.
	RecordAttempt(ctx context.Context, evt *model.StripeWebhookEvent) error
	MarkStatus(ctx context.Context, stripeEventID string, status model.WebhookStatus, lastError string) error
}
