package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vihaglobalsystems-prog/selt-backend/pkg/logger"
	"github.com/vihaglobalsystems-prog/selt-backend/pkg/messaging"
)

const defaultConfigPath = "./configs/billing.yaml"

type Config struct {
	Service  ServiceConfig         `yaml:"service"`
	Stripe   StripeConfig          `yaml:"stripe"`
	Database DatabaseConfig        `yaml:"database"`
	Server   ServerConfig          `yaml:"server"`
	Log      logger.Config         `yaml:"log"`
	Email    EmailConfig           `yaml:"email"`
	Redis    messaging.RedisConfig `yaml:"redis"`
}

// LoadConfig reads .env (if present), the YAML file at CONFIG_PATH and then
// applies environment overrides for secrets.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	return LoadFile(configPath)
}

// LoadFile parses the given YAML file and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	// Ensure absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = "selt-billing"
	}
	if c.Server.HTTP.Port == 0 {
		c.Server.HTTP.Port = 8080
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Email.Provider == "" {
		c.Email.Provider = EmailProviderResend
	}
	if c.Email.RatePerSecond <= 0 {
		c.Email.RatePerSecond = 2
	}
	if c.Email.ReminderCurrency == "" {
		c.Email.ReminderCurrency = "gbp"
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Stripe.SecretKey == "" {
		return fmt.Errorf("stripe.secret_key is required")
	}
	if c.Stripe.WebhookSecret == "" {
		return fmt.Errorf("stripe.webhook_secret is required")
	}
	switch c.Email.Provider {
	case EmailProviderResend, EmailProviderSMTP:
	default:
		return fmt.Errorf("unsupported email provider %q", c.Email.Provider)
	}
	return nil
}
