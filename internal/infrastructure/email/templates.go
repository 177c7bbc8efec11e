package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/notification"
)

const layout = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #1e40af;">{{.Heading}}</h2>
  <p>Hi {{.Name}},</p>
  {{template "body" .}}
  <p>If you wish to manage your subscription or update your payment method,
  please visit <a href="{{.AccountURL}}">your account</a>.</p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 24px 0;">
  <p style="color: #6b7280; font-size: 12px;">SELT Mock Test</p>
</div>`

type emailTemplate struct {
	subject string
	heading string
	body    string
}

var emailTemplates = map[model.EmailType]emailTemplate{
	model.EmailTypeBillingReminder: {
		subject: "SELT Mock Test - Your subscription renews soon",
		heading: "Subscription Renewal Reminder",
		body: `<p>This is a friendly reminder that your <strong>SELT Premium</strong> subscription
  will automatically renew on <strong>{{.RenewalDate}}</strong>.</p>
  <p>Your card on file will be charged <strong>{{.Amount}}</strong>.</p>`,
	},
	model.EmailTypeRefundConfirmation: {
		subject: "SELT Mock Test - Your refund has been processed",
		heading: "Refund Processed",
		body: `<p>We have refunded <strong>{{.Amount}}</strong> to your original payment method.</p>
  <p>It can take 5 to 10 business days for the refund to appear on your statement.</p>`,
	},
	model.EmailTypeCancelConfirmation: {
		subject: "SELT Mock Test - Your subscription has been canceled",
		heading: "Subscription Canceled",
		body: `{{if .Immediate}}<p>Your <strong>SELT Premium</strong> subscription has been canceled and your access has ended.</p>
  {{else}}<p>Your <strong>SELT Premium</strong> subscription will not renew. You keep access until <strong>{{.PeriodEnd}}</strong>.</p>
  {{end}}`,
	},
	model.EmailTypePaymentFailed: {
		subject: "SELT Mock Test - Your payment failed",
		heading: "Payment Failed",
		body: `<p>We could not collect your payment of <strong>{{.Amount}}</strong> for <strong>SELT Premium</strong>.</p>
  <p>Please update your payment method to keep your access.</p>`,
	},
}

type templateData struct {
	Heading     string
	Name        string
	AccountURL  string
	Amount      string
	RenewalDate string
	PeriodEnd   string
	Immediate   bool
}

type renderer struct {
	accountURL string
	templates  map[model.EmailType]*template.Template
}

func newRenderer(accountURL string) (*renderer, error) {
	r := &renderer{
		accountURL: accountURL,
		templates:  make(map[model.EmailType]*template.Template, len(emailTemplates)),
	}
	for kind, et := range emailTemplates {
		tmpl, err := template.New(string(kind)).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("parse layout for %s: %w", kind, err)
		}
		if _, err := tmpl.New("body").Parse(et.body); err != nil {
			return nil, fmt.Errorf("parse body for %s: %w", kind, err)
		}
		r.templates[kind] = tmpl
	}
	return r, nil
}

// render returns the subject and HTML body for kind
func (r *renderer) render(recipient notification.Recipient, kind model.EmailType, params notification.Params) (string, string, error) {
	tmpl, ok := r.templates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown email type %q", kind)
	}

	data := templateData{
		Heading:     emailTemplates[kind].heading,
		Name:        displayName(recipient),
		AccountURL:  r.accountURL,
		RenewalDate: stringParam(params, notification.ParamRenewalDate),
		PeriodEnd:   stringParam(params, notification.ParamPeriodEnd),
	}
	if immediate, ok := params[notification.ParamImmediate].(bool); ok {
		data.Immediate = immediate
	}
	if amount, ok := minorParam(params, notification.ParamAmount); ok {
		data.Amount = FormatAmount(amount, stringParam(params, notification.ParamCurrency))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}
	return emailTemplates[kind].subject, buf.String(), nil
}

var currencySymbols = map[string]string{
	"gbp": "£",
	"usd": "$",
	"eur": "€",
}

// FormatAmount renders a minor-unit amount in major units, e.g. 1299 gbp as £12.99
func FormatAmount(minor int64, currency string) string {
	major := decimal.New(minor, -2).StringFixed(2)
	currency = strings.ToLower(currency)
	if symbol, ok := currencySymbols[currency]; ok {
		return symbol + major
	}
	if currency == "" {
		return major
	}
	return strings.ToUpper(currency) + " " + major
}

func displayName(recipient notification.Recipient) string {
	if recipient.Name != "" {
		return recipient.Name
	}
	if at := strings.Index(recipient.Email, "@"); at > 0 {
		return recipient.Email[:at]
	}
	return "there"
}

func stringParam(params notification.Params, key string) string {
	s, _ := params[key].(string)
	return s
}

func minorParam(params notification.Params, key string) (int64, bool) {
	switch v := params[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
