package config

import "strings"

type ServiceConfig struct {
	Name        string   `yaml:"name"`
	Environment string   `yaml:"environment"`
	Version     string   `yaml:"version"`
	ClientURL   string   `yaml:"client_url" env:"CLIENT_URL"`
	AdminEmails []string `yaml:"admin_emails" env:"ADMIN_EMAILS" env-separator:","`
	CronSecret  string   `yaml:"cron_secret" env:"CRON_SECRET"`
}

// IsAdmin reports whether email is on the admin allowlist, ignoring case.
func (c ServiceConfig) IsAdmin(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, allowed := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(allowed), email) {
			return true
		}
	}
	return false
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	PriceID       string `yaml:"price_id" env:"STRIPE_PRICE_ID"`
}
