// Package stripepayment adapts Stripe hosted checkout: it creates checkout
// sessions and turns signed checkout webhooks into lifecycle events.
package stripepayment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/eventbus"
	"github.com/amirasaad/paygate/pkg/provider"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// ProviderName identifies Stripe in events and errors.
const ProviderName = "stripe"

// StripePaymentProvider creates checkout sessions and handles Stripe webhooks.
type StripePaymentProvider struct {
	client          *stripe.Client
	bus             eventbus.Bus
	cfg             *config.Stripe
	logger          *slog.Logger
	webhookHandlers map[stripe.EventType]webhookHandler
}

type webhookHandler func(context.Context, stripe.Event, *slog.Logger) error

// New creates a StripePaymentProvider. A non-empty cfg.BaseURL points the
// client at another API host, such as stripe-mock.
func New(bus eventbus.Bus, cfg *config.Stripe, logger *slog.Logger) *StripePaymentProvider {
	if logger == nil {
		logger = slog.Default()
	}
	var opts []stripe.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, stripe.WithBackends(stripe.NewBackendsWithConfig(&stripe.BackendConfig{
			URL: stripe.String(strings.TrimRight(cfg.BaseURL, "/")),
		})))
	}

	p := &StripePaymentProvider{
		client: stripe.NewClient(cfg.ApiKey, opts...),
		bus:    bus,
		cfg:    cfg,
		logger: logger.With("provider", ProviderName),
	}
	p.webhookHandlers = map[stripe.EventType]webhookHandler{
		stripe.EventTypeCheckoutSessionCompleted:             p.handleCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded: p.handleCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionExpired:               p.handleCheckoutSessionExpired,
	}
	return p
}

var _ provider.CheckoutSessionCreator = (*StripePaymentProvider)(nil)

// CreateCheckoutSession issues a hosted checkout for one price line item.
func (s *StripePaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	params *provider.CheckoutSessionParams,
) (*domain.CheckoutSession, error) {
	const op = "stripe.CreateCheckoutSession"

	sp := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			Price:    stripe.String(params.PriceRef),
			Quantity: stripe.Int64(params.Quantity),
		}},
		Metadata: params.Metadata,
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: params.Metadata,
		},
	}
	if params.CustomerEmail != "" {
		sp.CustomerEmail = stripe.String(params.CustomerEmail)
	}
	if len(params.PaymentMethods) > 0 {
		sp.PaymentMethodTypes = stripe.StringSlice(params.PaymentMethods)
	}
	if params.AllowPromotionCodes {
		sp.AllowPromotionCodes = stripe.Bool(true)
	}
	if !params.ExpiresAt.IsZero() {
		sp.ExpiresAt = stripe.Int64(params.ExpiresAt.Unix())
	}

	session, err := s.client.V1CheckoutSessions.Create(ctx, sp)
	if err != nil {
		s.logger.Error("failed to create checkout session", "error", err, "price", params.PriceRef)
		return nil, mapError(op, err)
	}

	s.logger.Info("🛒 Checkout session created", "checkout_session_id", session.ID)
	out := &domain.CheckoutSession{
		SessionID: session.ID,
		HostedURL: session.URL,
		Metadata:  session.Metadata,
	}
	if session.ExpiresAt > 0 {
		out.ExpiresAt = time.Unix(session.ExpiresAt, 0).UTC()
	}
	return out, nil
}

func mapError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == 0 {
			return &domain.NetworkError{Op: op, Err: err}
		}
		return &domain.ProviderAPIError{
			Provider:   ProviderName,
			StatusCode: stripeErr.HTTPStatusCode,
			TraceID:    stripeErr.RequestID,
			Code:       string(stripeErr.Code),
			Message:    stripeErr.Msg,
		}
	}
	return &domain.NetworkError{Op: op, Err: err}
}

// HandleWebhook verifies a Stripe-signed payload and publishes checkout
// lifecycle events. Unhandled event types are acknowledged and ignored.
func (s *StripePaymentProvider) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	log := s.logger.With("method", "HandleWebhook")

	event, err := s.constructEvent(payload, signature)
	if err != nil {
		log.Error("Failed to verify webhook signature", "error", err)
		return err
	}
	log = log.With("event_id", event.ID, "type", event.Type)

	handler, ok := s.webhookHandlers[event.Type]
	if !ok {
		log.Debug("No handler for event type")
		return nil
	}
	return handler(ctx, event, log)
}

func (s *StripePaymentProvider) constructEvent(payload []byte, signature string) (stripe.Event, error) {
	var event stripe.Event
	if s.cfg.SigningSecret == "" {
		s.logger.Warn("Stripe signing secret is empty; skipping webhook signature verification (degraded mode)")
		if err := json.Unmarshal(payload, &event); err != nil {
			return event, &domain.ValidationError{Field: "body", Message: "invalid JSON"}
		}
		return event, nil
	}
	if strings.TrimSpace(signature) == "" {
		return event, domain.NewSignatureError(domain.ErrSignatureMissing, "Stripe-Signature header is absent")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.SigningSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		kind := domain.ErrSignatureMismatch
		if errors.Is(err, webhook.ErrNotSigned) || errors.Is(err, webhook.ErrInvalidHeader) {
			kind = domain.ErrSignatureMalformed
		}
		return event, domain.NewSignatureError(kind, err.Error())
	}
	return event, nil
}

func (s *StripePaymentProvider) handleCheckoutSessionCompleted(
	ctx context.Context,
	event stripe.Event,
	log *slog.Logger,
) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Error("parsing checkout.session.completed", "error", err)
		return fmt.Errorf("error parsing checkout.session.completed: %w", err)
	}
	status := domain.StatusPending
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
		status = domain.StatusApproved
	}
	return s.emit(ctx, log, eventbus.TypeCheckoutComplete, &session, status)
}

func (s *StripePaymentProvider) handleCheckoutSessionExpired(
	ctx context.Context,
	event stripe.Event,
	log *slog.Logger,
) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Error("parsing checkout.session.expired", "error", err)
		return fmt.Errorf("error parsing checkout.session.expired: %w", err)
	}
	return s.emit(ctx, log, eventbus.TypeCheckoutExpired, &session, domain.StatusCancelled)
}

func (s *StripePaymentProvider) emit(
	ctx context.Context,
	log *slog.Logger,
	eventType string,
	session *stripe.CheckoutSession,
	status domain.Status,
) error {
	paymentID := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		paymentID = session.PaymentIntent.ID
	}
	metadata := map[string]string{"checkout_session_id": session.ID}
	for k, v := range session.Metadata {
		metadata[k] = v
	}

	evt := eventbus.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Provider:   ProviderName,
		PaymentID:  paymentID,
		Status:     status,
		Amount:     decimal.New(session.AmountTotal, -2),
		Currency:   strings.ToUpper(string(session.Currency)),
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		log.Error("error emitting checkout event", "error", err)
		return fmt.Errorf("error emitting checkout event: %w", err)
	}
	log.Info("✅ Checkout event emitted",
		"checkout_session_id", session.ID,
		"payment_id", paymentID,
		"status", status,
	)
	return nil
}
