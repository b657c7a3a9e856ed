package config

import (
	"log/slog"
	"net/url"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first env file found among envFilePath (searching parent
// directories), then the process environment, and validates the result.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	for _, path := range envFilePath {
		logger.Debug("Looking for environment file", "path", path)
		foundPath, err := FindEnvTest(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}

		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		return loadFromEnv()
	}

	logger.Info("No valid environment files found, using process environment")
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &domain.ConfigError{Field: "env", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mp := cfg.PaymentProviders.MercadoPago
	st := cfg.PaymentProviders.Stripe
	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"db", maskValue(cfg.DB.Url),
		"redis", maskValue(cfg.Redis.URL),
		"kafka_brokers", cfg.Kafka.Brokers,
		"mercadopago_base_url", mp.BaseURL,
		"mercadopago_access_token", maskValue(mp.AccessToken),
		"mercadopago_webhook_secret", maskValue(mp.WebhookSecret),
		"mercadopago_timeout", mp.HTTPTimeout,
		"stripe_api_key", maskValue(st.ApiKey),
		"pix_expiration_minutes", cfg.Pix.ExpirationMinutes,
	)
	return &cfg, nil
}

// Validate checks credentials and cross-field rules. Every failure is a
// *domain.ConfigError and is fatal at startup.
func (a *App) Validate() error {
	mp := a.PaymentProviders.MercadoPago
	if mp == nil || mp.AccessToken == "" {
		return &domain.ConfigError{
			Field:  "PAYMENT_PROVIDER_MERCADOPAGO_ACCESS_TOKEN",
			Reason: "is required",
		}
	}
	if _, err := url.ParseRequestURI(mp.BaseURL); err != nil {
		return &domain.ConfigError{
			Field:  "PAYMENT_PROVIDER_MERCADOPAGO_BASE_URL",
			Reason: "must be an absolute URL",
		}
	}
	if mp.HTTPTimeout <= 0 {
		return &domain.ConfigError{
			Field:  "PAYMENT_PROVIDER_MERCADOPAGO_HTTP_TIMEOUT",
			Reason: "must be positive",
		}
	}
	if a.IsProduction() && mp.WebhookSecret == "" {
		return &domain.ConfigError{
			Field:  "PAYMENT_PROVIDER_MERCADOPAGO_WEBHOOK_SECRET",
			Reason: "is required in production",
		}
	}

	st := a.PaymentProviders.Stripe
	if st == nil || st.ApiKey == "" {
		return &domain.ConfigError{
			Field:  "PAYMENT_PROVIDER_STRIPE_API_KEY",
			Reason: "is required",
		}
	}
	if a.IsProduction() && st.SigningSecret == "" {
		return &domain.ConfigError{
			Field:  "PAYMENT_PROVIDER_STRIPE_SIGNING_SECRET",
			Reason: "is required in production",
		}
	}

	if a.Pix.ExpirationMinutes <= 0 {
		return &domain.ConfigError{Field: "PIX_EXPIRATION_MINUTES", Reason: "must be positive"}
	}
	if a.Pix.PollInterval <= 0 || a.Pix.PollCeiling < a.Pix.PollInterval {
		return &domain.ConfigError{
			Field:  "PIX_POLL_INTERVAL",
			Reason: "must be positive and not exceed PIX_POLL_CEILING",
		}
	}
	return nil
}

func maskValue(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
