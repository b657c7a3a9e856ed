// Package testutils builds fully wired test applications backed by
// in-memory fakes, plus a Postgres-backed end-to-end suite.
package testutils

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/paygate/infra/eventbus"
	infraidem "github.com/amirasaad/paygate/infra/idempotency"
	"github.com/amirasaad/paygate/infra/metrics"
	"github.com/amirasaad/paygate/pkg/app"
	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/webapi"
	"github.com/gofiber/fiber/v2"
)

// TestSecret signs test webhooks and admin tokens.
const TestSecret = "test-secret"

// TestConfig returns a development configuration with webhook signing
// enabled and a generous rate limit.
func TestConfig() *config.App {
	return &config.App{
		Env:         "development",
		Log:         &config.Log{Format: "text"},
		RateLimit:   &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
		Idempotency: &config.Idempotency{TTL: time.Hour},
		Admin:       &config.Admin{JwtSecret: TestSecret},
		Pix: &config.Pix{
			ExpirationMinutes: 30,
			PollInterval:      5 * time.Second,
			PollCeiling:       30 * time.Minute,
		},
		PaymentProviders: &config.PaymentProviders{
			MercadoPago: &config.MercadoPago{WebhookSecret: TestSecret},
			Stripe: &config.Stripe{
				SuccessURL: "https://shop.example.com/success",
				CancelURL:  "https://shop.example.com/cancel",
			},
		},
	}
}

// Env is a wired test application and its fakes.
type Env struct {
	App         *app.App
	Fiber       *fiber.App
	MercadoPago *FakeMercadoPago
	Stripe      *FakeStripe
	Bus         *infraeventbus.MemoryEventBus
	Metrics     *metrics.Metrics
}

// Option adjusts deps or config before the app is built.
type Option func(*app.Deps, *config.App)

// NewEnv wires an application over fakes and memory infrastructure.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := TestConfig()
	e := &Env{
		MercadoPago: NewFakeMercadoPago(),
		Stripe:      &FakeStripe{},
		Bus:         infraeventbus.NewWithMemory(logger),
		Metrics:     metrics.New("paygate_test"),
	}
	deps := &app.Deps{
		MercadoPago: e.MercadoPago,
		Stripe:      e.Stripe,
		EventBus:    e.Bus,
		Idempotency: infraidem.NewMemoryStore(),
		Metrics:     e.Metrics,
		Logger:      logger,
	}
	for _, opt := range opts {
		opt(deps, cfg)
	}
	e.App = app.New(deps, cfg)
	e.Fiber = webapi.SetupApp(e.App)
	t.Cleanup(func() { _ = e.App.Close() })
	return e
}

// MakeRequest sends a request through the fiber app. A non-empty body is
// sent as JSON; a non-empty token is sent as a bearer credential.
func (e *Env) MakeRequest(
	t *testing.T,
	method, path, body, token string,
	headers ...map[string]string,
) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, h := range headers {
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}
	resp, err := e.Fiber.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	return resp
}
