package email

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/notification"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

// Dispatcher implements notification.Dispatcher
type Dispatcher struct {
	transport Transport
	emailLogs repository.EmailLogRepository
	renderer  *renderer
	logger    *zap.Logger
	now       func() time.Time
}

var _ notification.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher; accountURL is linked from every email
func NewDispatcher(transport Transport, emailLogs repository.EmailLogRepository, accountURL string, logger *zap.Logger) (*Dispatcher, error) {
	r, err := newRenderer(accountURL)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		transport: transport,
		emailLogs: emailLogs,
		renderer:  r,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Send renders kind, delivers it and appends an email log entry with params as metadata.
// A message that was delivered but could not be logged is reported as an error.
func (d *Dispatcher) Send(ctx context.Context, recipient notification.Recipient, kind model.EmailType, params notification.Params) error {
	if recipient.Email == "" {
		return fmt.Errorf("recipient %s has no email address", recipient.UserID)
	}

	subject, html, err := d.renderer.render(recipient, kind, params)
	if err != nil {
		return err
	}

	metadata, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal email metadata: %w", err)
	}

	msg := &Message{
		To:      recipient.Email,
		Subject: subject,
		HTML:    html,
		Type:    string(kind),
	}
	if err := d.transport.Send(ctx, msg); err != nil {
		d.logger.Error("Failed to send email",
			zap.String("user_id", recipient.UserID.String()),
			zap.String("to", recipient.Email),
			zap.String("email_type", string(kind)),
			zap.Error(err))
		return fmt.Errorf("send %s email: %w", kind, err)
	}

	entry := &model.EmailLog{
		UserID:    recipient.UserID,
		EmailType: kind,
		Metadata:  datatypes.JSON(metadata),
		SentAt:    d.now(),
	}
	if err := d.emailLogs.Create(ctx, entry); err != nil {
		return fmt.Errorf("%s email sent but not logged: %w", kind, err)
	}

	d.logger.Info("Email sent",
		zap.String("user_id", recipient.UserID.String()),
		zap.String("to", recipient.Email),
		zap.String("email_type", string(kind)))
	return nil
}
