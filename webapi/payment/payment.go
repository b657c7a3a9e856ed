// Package payment exposes the PIX, installments and card payment endpoints.
package payment

import (
	"errors"
	"time"

	"github.com/amirasaad/paygate/pkg/app"
	"github.com/amirasaad/paygate/pkg/cardtoken"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/pix"
	"github.com/amirasaad/paygate/pkg/provider"
	"github.com/amirasaad/paygate/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Routes registers the payment endpoints.
//
// Routes:
//   - POST /payments/pix          : Create a PIX charge.
//   - GET  /payments/pix/:id      : Read a PIX charge.
//   - GET  /payments/installments : Installment plans for a BIN and amount.
//   - GET  /payments/card/config  : Public key for the browser secure fields.
//   - POST /payments/card         : Charge a card token.
func Routes(r fiber.Router, a *app.App) {
	r.Post("/payments/pix", CreatePixCharge(a))
	r.Get("/payments/pix/:id", GetPixCharge(a))
	r.Get("/payments/installments", GetInstallments(a))
	r.Get("/payments/card/config", GetCardConfig(a))
	r.Post("/payments/card", CreateCardPayment(a))
}

// CardConfigResponse carries what the browser needs to mount secure fields.
type CardConfigResponse struct {
	PublicKey string `json:"publicKey"`
}

// GetCardConfig exposes the processor public key. The access token never
// leaves the server.
func GetCardConfig(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := a.Config.PaymentProviders.MercadoPago.PublicKey
		if key == "" {
			return common.ProblemDetailsJSON(c, "Card payments not configured", nil,
				"MERCADOPAGO_PUBLIC_KEY is not set", fiber.StatusServiceUnavailable)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Card config", CardConfigResponse{PublicKey: key})
	}
}

// PixChargeResponse adds the expiry state computed by the server clock.
type PixChargeResponse struct {
	*domain.PixCharge
	Expired bool `json:"expired"`
}

// CreatePixCharge creates a PIX charge. The expiration is always computed
// on the server.
func CreatePixCharge(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := a.Deps.Logger.With("handler", "CreatePixCharge")
		var req pix.ChargeRequest
		if err := c.BodyParser(&req); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid request body", nil, err.Error(), fiber.StatusBadRequest)
		}
		charge, err := a.Pix.CreateCharge(c.UserContext(), req)
		if err != nil {
			logger.Error("❌ pix charge failed", "error", err)
			return common.ProblemDetailsJSON(c, "Failed to create PIX charge", err)
		}
		a.Deps.Metrics.PixChargeCreated()
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "PIX charge created", PixChargeResponse{PixCharge: charge})
	}
}

// GetPixCharge reads the current state of a PIX charge.
func GetPixCharge(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		charge, err := a.Pix.GetCharge(c.UserContext(), c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to read PIX charge", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "PIX charge", PixChargeResponse{
			PixCharge: charge,
			Expired:   charge.Expired(time.Now()),
		})
	}
}

// GetInstallments lists installment plans. It always answers 200; any
// invalid input or processor failure yields an empty list.
func GetInstallments(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := []domain.InstallmentOption{}
		amount, err := decimal.NewFromString(c.Query("amount"))
		if err == nil {
			opts = a.Installments.GetInstallments(
				c.UserContext(),
				amount,
				c.Query("bin"),
				c.Query("payment_method_id"),
			)
		}
		return c.JSON(opts)
	}
}

// CardTokenDTO is the secure-fields token posted by the browser.
type CardTokenDTO struct {
	ID              string `json:"id"`
	PaymentMethodID string `json:"paymentMethodId"`
	FirstSix        string `json:"firstSix"`
	LastFour        string `json:"lastFour"`
}

// CardholderDTO identifies the card holder.
type CardholderDTO struct {
	Name                 string `json:"name"`
	IdentificationType   string `json:"identificationType"`
	IdentificationNumber string `json:"identificationNumber"`
}

// CardPaymentRequest is the body of POST /payments/card. ErrorCodes carries
// the processor codes reported by secure fields when tokenization failed.
type CardPaymentRequest struct {
	Token        CardTokenDTO      `json:"token"`
	ErrorCodes   []string          `json:"errorCodes"`
	Cardholder   CardholderDTO     `json:"cardholder"`
	Amount       decimal.Decimal   `json:"amount"`
	Installments int               `json:"installments" validate:"omitempty,gte=1,lte=24"`
	Description  string            `json:"description" validate:"required"`
	Email        string            `json:"email" validate:"required,email"`
	Metadata     map[string]string `json:"metadata"`
}

// CardPaymentResponse is the charged payment plus a payer-facing message
// when the processor declined it.
type CardPaymentResponse struct {
	*domain.Payment
	Message string `json:"message,omitempty"`
}

// CreateCardPayment tokenizes the submitted card and charges it.
func CreateCardPayment(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logger := a.Deps.Logger.With("handler", "CreateCardPayment")
		input, err := common.BindAndValidate[CardPaymentRequest](c)
		if input == nil {
			return err
		}
		if !input.Amount.IsPositive() {
			return common.ProblemDetailsJSON(c, "Validation failed",
				&domain.ValidationError{Field: "amount", Message: "must be greater than zero"})
		}

		fields := cardtoken.Submitted{
			Token: domain.CardToken{
				TokenID:         input.Token.ID,
				PaymentMethodID: input.Token.PaymentMethodID,
				FirstSixDigits:  input.Token.FirstSix,
				LastFourDigits:  input.Token.LastFour,
			},
			ErrorCodes: input.ErrorCodes,
		}
		holder, err := cardtoken.Validate(cardtoken.CardholderData{
			Name:                 input.Cardholder.Name,
			IdentificationType:   input.Cardholder.IdentificationType,
			IdentificationNumber: input.Cardholder.IdentificationNumber,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Validation failed", err)
		}
		token, err := a.Tokenizer(fields).Tokenize(c.UserContext(), holder)
		var tokErr *cardtoken.TokenizationError
		if errors.As(err, &tokErr) {
			return common.ProblemDetailsJSON(c, "Card could not be tokenized", err, tokErr.Message)
		}
		if err != nil {
			return common.ProblemDetailsJSON(c, "Card could not be tokenized", err)
		}

		installments := input.Installments
		if installments == 0 {
			installments = 1
		}
		payment, err := a.Deps.MercadoPago.CreateCardPayment(c.UserContext(), &provider.CardPaymentParams{
			Token:                token.TokenID,
			PaymentMethodID:      token.PaymentMethodID,
			Installments:         installments,
			Amount:               input.Amount.Round(2),
			Description:          input.Description,
			Email:                input.Email,
			IdentificationType:   holder.IdentificationType,
			IdentificationNumber: holder.IdentificationNumber,
			Metadata:             input.Metadata,
		})
		if err != nil {
			logger.Error("❌ card payment failed", "error", err)
			return common.ProblemDetailsJSON(c, "Failed to create card payment", err)
		}

		resp := CardPaymentResponse{Payment: payment}
		if payment.Status == domain.StatusRejected {
			resp.Message = cardtoken.Message(payment.StatusDetail)
			logger.Warn("💳 card payment rejected", "payment_id", payment.ID, "status_detail", payment.StatusDetail)
		} else {
			logger.Info("💳 card payment created", "payment_id", payment.ID, "status", payment.Status)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Card payment created", resp)
	}
}
