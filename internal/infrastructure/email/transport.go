// Package email sends transactional notifications through Resend or SMTP and
// records every delivered message in the email log.
package email

import (
	"context"
	"fmt"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/config"
)

// Message is a rendered email ready for delivery
type Message struct {
	To      string
	Subject string
	HTML    string
	// Type is attached as a provider tag where supported
	Type string
}

// Transport delivers a rendered message
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// NewTransport builds the transport selected by cfg.Provider
func NewTransport(cfg config.EmailConfig) (Transport, error) {
	switch cfg.Provider {
	case config.EmailProviderResend:
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend api key is required")
		}
		return NewResendTransport(cfg.ResendAPIKey, cfg.From, cfg.FromName), nil
	case config.EmailProviderSMTP:
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("smtp host is required")
		}
		return NewSMTPTransport(cfg.SMTP, cfg.From, cfg.FromName), nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Provider)
	}
}

func formatFrom(from, fromName string) string {
	if fromName == "" {
		return from
	}
	return fmt.Sprintf("%s <%s>", fromName, from)
}
