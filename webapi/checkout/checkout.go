// Package checkout exposes hosted checkout session creation.
package checkout

import (
	"time"

	"github.com/amirasaad/paygate/pkg/app"
	"github.com/amirasaad/paygate/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// CreateSessionRequest is the body of POST /checkout/sessions. Empty return
// URLs fall back to the configured defaults.
type CreateSessionRequest struct {
	PriceRef            string            `json:"priceRef" validate:"required"`
	Quantity            int64             `json:"quantity" validate:"omitempty,gte=1"`
	CustomerEmail       string            `json:"customerEmail" validate:"omitempty,email"`
	SuccessURL          string            `json:"successUrl" validate:"omitempty,url"`
	CancelURL           string            `json:"cancelUrl" validate:"omitempty,url"`
	Metadata            map[string]string `json:"metadata"`
	PaymentMethods      []string          `json:"paymentMethods"`
	AllowPromotionCodes bool              `json:"allowPromotionCodes"`
	ExpiresInMinutes    int               `json:"expiresInMinutes" validate:"omitempty,gte=30,lte=1440"`
}

// Routes registers the checkout endpoints.
//
// Routes:
//   - POST /checkout/sessions : Create a hosted checkout session.
func Routes(r fiber.Router, a *app.App) {
	r.Post("/checkout/sessions", CreateSession(a))
}

// CreateSession builds and issues a hosted checkout session.
func CreateSession(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := a.Deps.Logger.With("handler", "CreateCheckoutSession")
		input, err := common.BindAndValidate[CreateSessionRequest](c)
		if input == nil {
			return err
		}

		b := a.NewCheckout().
			Price(input.PriceRef).
			CustomerEmail(input.CustomerEmail).
			Metadata(input.Metadata).
			PaymentMethods(input.PaymentMethods...).
			AllowPromotionCodes(input.AllowPromotionCodes)
		if input.Quantity > 0 {
			b.Quantity(input.Quantity)
		}
		if input.SuccessURL != "" {
			b.SuccessURL(input.SuccessURL)
		}
		if input.CancelURL != "" {
			b.CancelURL(input.CancelURL)
		}
		if input.ExpiresInMinutes > 0 {
			b.ExpiresIn(time.Duration(input.ExpiresInMinutes) * time.Minute)
		}

		session, err := b.Build(c.UserContext())
		if err != nil {
			a.Deps.Metrics.CheckoutSession(false)
			logger.Error("❌ checkout session failed", "error", err)
			return common.ProblemDetailsJSON(c, "Failed to create checkout session", err)
		}
		a.Deps.Metrics.CheckoutSession(true)
		logger.Info("🛒 checkout session created", "session_id", session.SessionID)
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Checkout session created", session)
	}
}
