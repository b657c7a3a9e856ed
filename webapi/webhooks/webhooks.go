// Package webhooks exposes the processor notification endpoints.
package webhooks

import (
	"errors"

	"github.com/amirasaad/paygate/infra/metrics"
	"github.com/amirasaad/paygate/pkg/app"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/webhook"
	"github.com/amirasaad/paygate/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Header names sent by the processors.
const (
	HeaderSignature       = "X-Signature"
	HeaderRequestID       = "X-Request-Id"
	HeaderStripeSignature = "Stripe-Signature"
)

const (
	providerMercadoPago = "mercadopago"
	providerStripe      = "stripe"
)

// Routes registers the webhook endpoints. They are exempt from rate limiting.
func Routes(r fiber.Router, a *app.App) {
	r.Post("/webhooks/mercadopago", MercadoPago(a))
	r.Post("/webhooks/stripe", Stripe(a))
}

type ack struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
}

// MercadoPago verifies the notification signature, re-fetches the payment
// and dispatches it. Only a signature failure in production is answered
// with a non-2xx status; every other outcome is acknowledged so the
// processor stops retrying.
func MercadoPago(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := a.Deps.Logger.With("handler", "MercadoPagoWebhook")
		m := a.Deps.Metrics
		requestID := c.Get(HeaderRequestID)

		body := append([]byte(nil), c.Body()...)
		n, err := webhook.ParseNotification(body, c.Queries())
		if err != nil {
			logger.Warn("⚠️ unparseable notification", "error", err, "request_id", requestID)
			m.WebhookReceived(providerMercadoPago, metrics.OutcomeInvalidBody)
			if a.Config.IsProduction() {
				return common.ProblemDetailsJSON(c, "Invalid signature",
					domain.NewSignatureError(domain.ErrSignatureMalformed, "body is not a notification"),
					fiber.StatusBadRequest)
			}
			return c.JSON(ack{Received: true, Outcome: metrics.OutcomeInvalidBody})
		}

		if n.Type != domain.NotificationTypePayment {
			logger.Info("ignoring notification", "type", n.Type, "action", n.Action)
			m.WebhookReceived(providerMercadoPago, metrics.OutcomeIgnored)
			return c.JSON(ack{Received: true, Outcome: metrics.OutcomeIgnored})
		}

		if err := a.Verifier.VerifyResource(n.ResourceID, c.Get(HeaderSignature), requestID); err != nil {
			m.WebhookReceived(providerMercadoPago, metrics.OutcomeInvalidSignature)
			if a.Config.IsProduction() {
				logger.Error("❌ webhook signature rejected", "error", err, "request_id", requestID)
				return common.ProblemDetailsJSON(c, "Invalid signature", err, fiber.StatusBadRequest)
			}
			logger.Warn("⚠️ webhook signature invalid, accepted outside production",
				"error", err, "request_id", requestID)
		}

		if err := a.Processor.Handle(c.UserContext(), n); err != nil {
			var verr *domain.ValidationError
			outcome := metrics.OutcomeFetchFailed
			if errors.As(err, &verr) {
				outcome = metrics.OutcomeInvalidBody
			}
			logger.Error("❌ webhook processing failed", "error", err, "payment_id", n.ResourceID)
			m.WebhookReceived(providerMercadoPago, outcome)
			return c.JSON(ack{Received: true, Outcome: outcome})
		}

		m.WebhookReceived(providerMercadoPago, metrics.OutcomeProcessed)
		return c.JSON(ack{Received: true, Outcome: metrics.OutcomeProcessed})
	}
}

// Stripe verifies a Stripe-signed payload and publishes checkout events.
func Stripe(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := a.Deps.Logger.With("handler", "StripeWebhook")
		m := a.Deps.Metrics

		payload := append([]byte(nil), c.Body()...)
		if len(payload) == 0 {
			m.WebhookReceived(providerStripe, metrics.OutcomeInvalidBody)
			return common.ProblemDetailsJSON(c, "Empty request body", nil, fiber.StatusBadRequest)
		}

		err := a.Deps.Stripe.HandleWebhook(c.UserContext(), payload, c.Get(HeaderStripeSignature))
		var sigErr *domain.SignatureError
		switch {
		case errors.As(err, &sigErr):
			m.WebhookReceived(providerStripe, metrics.OutcomeInvalidSignature)
			return common.ProblemDetailsJSON(c, "Invalid signature", err, fiber.StatusBadRequest)
		case errors.Is(err, domain.ErrValidation):
			m.WebhookReceived(providerStripe, metrics.OutcomeInvalidBody)
			return common.ProblemDetailsJSON(c, "Invalid webhook payload", err, fiber.StatusBadRequest)
		case err != nil:
			logger.Error("❌ stripe webhook processing failed", "error", err)
			m.WebhookReceived(providerStripe, metrics.OutcomeFetchFailed)
			return common.ProblemDetailsJSON(c, "Webhook processing failed", err, fiber.StatusInternalServerError)
		}

		m.WebhookReceived(providerStripe, metrics.OutcomeProcessed)
		return c.JSON(ack{Received: true, Outcome: metrics.OutcomeProcessed})
	}
}
