package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port                string   `env:"PORT" envDefault:"8080"`
	StripeSecretKey     string   `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string   `env:"STRIPE_WEBHOOK_SECRET"`
	GHLWebhookURL       string   `env:"GHL_WEBHOOK_URL"`
	BackupDir           string   `env:"BACKUP_DIR" envDefault:"order-backups"`
	StorefrontBaseURL   string   `env:"STOREFRONT_BASE_URL" envDefault:"https://www.brisclothing.com"`
	AllowedOrigins      []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://www.brisclothing.com"`
	CheckoutLineItems   string   `env:"CHECKOUT_LINE_ITEM_MODE" envDefault:"aggregate"` // aggregate or per_item
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
