package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/amirasaad/paygate/pkg/cardtoken"
	"github.com/amirasaad/paygate/pkg/checkout"
	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/eventbus"
	"github.com/amirasaad/paygate/pkg/idempotency"
	"github.com/amirasaad/paygate/pkg/installments"
	"github.com/amirasaad/paygate/pkg/pix"
	"github.com/amirasaad/paygate/pkg/provider"
	"github.com/amirasaad/paygate/pkg/repository"
	"github.com/amirasaad/paygate/pkg/signature"
	"github.com/amirasaad/paygate/pkg/webhook"
)

// MercadoPago is everything paygate uses from the PIX and card processor.
type MercadoPago interface {
	provider.PaymentFetcher
	provider.PixProvider
	provider.InstallmentsProvider
	provider.CardPaymentProvider
}

// StripeGateway issues hosted checkouts and consumes their webhooks.
type StripeGateway interface {
	provider.CheckoutSessionCreator
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Metrics is the instrumentation surface used by the app and its routes.
type Metrics interface {
	webhook.Metrics
	WebhookReceived(provider, outcome string)
	PixChargeCreated()
	CheckoutSession(ok bool)
	Handler() http.Handler
}

// Deps contains the infrastructure the application is built from.
type Deps struct {
	MercadoPago MercadoPago
	Stripe      StripeGateway
	EventBus    eventbus.Bus
	Idempotency idempotency.Store
	// Payments is nil when no database is configured; the persist side
	// effect is then skipped.
	Payments repository.PaymentRepository
	Metrics  Metrics
	Logger   *slog.Logger
	// Closers release infrastructure in reverse order on shutdown.
	Closers []func() error
}

// App wires the payment flows on top of Deps.
type App struct {
	Deps         *Deps
	Config       *config.App
	Verifier     *signature.Verifier
	Dispatcher   *webhook.Dispatcher
	Processor    *webhook.Processor
	Pix          *pix.Generator
	Installments *installments.Resolver
}

// New builds the application services.
func New(deps *Deps, cfg *config.App) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	a := &App{Deps: deps, Config: cfg}

	mp := cfg.PaymentProviders.MercadoPago
	a.Verifier = signature.New(mp.WebhookSecret, deps.Logger, signature.WithTolerance(mp.SignatureTolerance))

	dispatchOpts := []webhook.DispatcherOption{webhook.WithMetrics(deps.Metrics)}
	if deps.Payments != nil {
		dispatchOpts = append(dispatchOpts, webhook.WithStatusLookup(a.storedStatus))
	}
	a.Dispatcher = webhook.NewDispatcher(a.statusHandlers(), deps.Logger, dispatchOpts...)
	a.Processor = webhook.NewProcessor(deps.MercadoPago, a.Dispatcher, deps.Logger)
	a.Pix = pix.NewGenerator(
		deps.MercadoPago,
		deps.Logger,
		pix.WithDefaultExpiration(cfg.Pix.ExpirationMinutes),
	)
	a.Installments = installments.NewResolver(deps.MercadoPago, deps.Logger)

	a.setupEventBus()
	return a
}

// Close runs every closer, newest first, and joins their errors.
func (a *App) Close() error {
	var errs []error
	for i := len(a.Deps.Closers) - 1; i >= 0; i-- {
		if err := a.Deps.Closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewCheckout starts a checkout builder preloaded with the configured
// return URLs.
func (a *App) NewCheckout() *checkout.Builder {
	s := a.Config.PaymentProviders.Stripe
	return checkout.NewBuilder(a.Deps.Stripe).
		SuccessURL(s.SuccessURL).
		CancelURL(s.CancelURL)
}

// Tokenizer returns a card tokenizer over fields.
func (a *App) Tokenizer(fields cardtoken.SecureFields) *cardtoken.Tokenizer {
	return cardtoken.New(fields, a.Deps.Logger)
}

type nopMetrics struct{}

func (nopMetrics) Dispatched(domain.Status)       {}
func (nopMetrics) EffectFailed(string)            {}
func (nopMetrics) WebhookReceived(string, string) {}
func (nopMetrics) PixChargeCreated()              {}
func (nopMetrics) CheckoutSession(bool)           {}
func (nopMetrics) Handler() http.Handler          { return http.NotFoundHandler() }
