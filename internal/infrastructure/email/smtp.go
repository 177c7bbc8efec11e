package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/config"
)

// SMTPTransport sends through an SMTP relay with gomail
type SMTPTransport struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// NewSMTPTransport creates an SMTP transport; TLS is negotiated by the dialer
func NewSMTPTransport(cfg config.SMTPConfig, from, fromName string) *SMTPTransport {
	return &SMTPTransport{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     from,
		fromName: fromName,
	}
}

// Send opens a connection per message. gomail has no context support, so ctx is
// only checked before dialing.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.dialer.DialAndSend(t.newMessage(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func (t *SMTPTransport) newMessage(msg *Message) *gomail.Message {
	m := gomail.NewMessage()
	if t.fromName != "" {
		m.SetHeader("From", m.FormatAddress(t.from, t.fromName))
	} else {
		m.SetHeader("From", t.from)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.Type != "" {
		m.SetHeader("X-Email-Type", msg.Type)
	}
	m.SetBody("text/html", msg.HTML)
	return m
}
