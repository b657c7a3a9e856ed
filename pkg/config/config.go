package config

import (
	"time"
)

type DB struct {
	Url           string `envconfig:"URL"`
	MigrateOnBoot bool   `envconfig:"MIGRATE_ON_BOOT" default:"true"`
}

type Redis struct {
	URL          string        `envconfig:"URL"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"paygate:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
	Stream       string        `envconfig:"STREAM" default:"paygate.payments"`
}

type Kafka struct {
	Brokers string `envconfig:"BROKERS"`
	Topic   string `envconfig:"TOPIC" default:"paygate.payments"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Idempotency struct {
	TTL time.Duration `envconfig:"TTL" default:"720h"`
}

type Admin struct {
	JwtSecret string `envconfig:"JWT_SECRET"`
}

//revive:disable
type MercadoPago struct {
	AccessToken        string        `envconfig:"ACCESS_TOKEN"`
	PublicKey          string        `envconfig:"PUBLIC_KEY"`
	BaseURL            string        `envconfig:"BASE_URL" default:"https://api.mercadopago.com"`
	WebhookSecret      string        `envconfig:"WEBHOOK_SECRET"`
	SignatureTolerance time.Duration `envconfig:"SIGNATURE_TOLERANCE" default:"0s"`
	HTTPTimeout        time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	NotificationURL    string        `envconfig:"NOTIFICATION_URL"`
}

type Stripe struct {
	ApiKey        string `envconfig:"API_KEY"`
	SigningSecret string `envconfig:"SIGNING_SECRET"`
	SuccessURL    string `envconfig:"SUCCESS_URL" default:"http://localhost:3000/checkout/success"`
	CancelURL     string `envconfig:"CANCEL_URL" default:"http://localhost:3000/checkout/cancel"`
	BaseURL       string `envconfig:"BASE_URL"`
}

//revive:enable
type PaymentProviders struct {
	MercadoPago *MercadoPago `envconfig:"MERCADOPAGO"`
	Stripe      *Stripe      `envconfig:"STRIPE"`
}

type Pix struct {
	ExpirationMinutes int           `envconfig:"EXPIRATION_MINUTES" default:"30"`
	PollInterval      time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	PollCeiling       time.Duration `envconfig:"POLL_CEILING" default:"30m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[paygate]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env              string            `envconfig:"APP_ENV" default:"development"`
	Server           *Server           `envconfig:"SERVER"`
	Log              *Log              `envconfig:"LOG"`
	DB               *DB               `envconfig:"DATABASE"`
	Redis            *Redis            `envconfig:"REDIS"`
	Kafka            *Kafka            `envconfig:"KAFKA"`
	RateLimit        *RateLimit        `envconfig:"RATE_LIMIT"`
	Idempotency      *Idempotency      `envconfig:"IDEMPOTENCY"`
	Admin            *Admin            `envconfig:"ADMIN"`
	PaymentProviders *PaymentProviders `envconfig:"PAYMENT_PROVIDER"`
	Pix              *Pix              `envconfig:"PIX"`
}

// IsProduction reports whether signature failures must be rejected.
func (a *App) IsProduction() bool {
	return a.Env == "production"
}
