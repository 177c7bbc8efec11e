package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendTransport sends through the Resend HTTP API
type ResendTransport struct {
	client *resend.Client
	from   string
}

// NewResendTransport creates a Resend transport
func NewResendTransport(apiKey, from, fromName string) *ResendTransport {
	return newResendTransport(resend.NewClient(apiKey), formatFrom(from, fromName))
}

func newResendTransport(client *resend.Client, from string) *ResendTransport {
	return &ResendTransport{
		client: client,
		from:   from,
	}
}

// Send delivers msg and discards the returned message id
func (t *ResendTransport) Send(ctx context.Context, msg *Message) error {
	params := &resend.SendEmailRequest{
		From:    t.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	if msg.Type != "" {
		params.Tags = []resend.Tag{{Name: "email_type", Value: msg.Type}}
	}

	if _, err := t.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send to %s: %w", msg.To, err)
	}
	return nil
}
