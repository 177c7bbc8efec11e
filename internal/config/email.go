package config

const (
	EmailProviderResend = "resend"
	EmailProviderSMTP   = "smtp"
)

type EmailConfig struct {
	Provider     string     `yaml:"provider"`
	ResendAPIKey string     `yaml:"resend_api_key" env:"RESEND_API_KEY"`
	From         string     `yaml:"from" env:"EMAIL_FROM"`
	FromName     string     `yaml:"from_name"`
	SMTP         SMTPConfig `yaml:"smtp"`

	// Upper bound on sends per second for bulk jobs such as reminders
	RatePerSecond float64 `yaml:"rate_per_second"`

	// Renewal amount quoted in reminder emails
	ReminderAmountMinor int64  `yaml:"reminder_amount_minor"`
	ReminderCurrency    string `yaml:"reminder_currency"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}
