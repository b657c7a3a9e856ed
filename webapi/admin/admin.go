// Package admin exposes operator endpoints guarded by a bearer JWT.
package admin

import (
	"github.com/amirasaad/paygate/pkg/app"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/middleware"
	"github.com/amirasaad/paygate/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the admin endpoints. Nothing is mounted when no JWT
// secret is configured.
//
// Routes:
//   - POST /admin/payments/:id/refresh : Re-fetch and re-dispatch a payment.
//   - GET  /admin/payments             : List stored payments by ?status= (and ?limit=).
//   - GET  /admin/payments/:id         : Read the stored payment projection.
func Routes(r fiber.Router, a *app.App) {
	secret := a.Config.Admin.JwtSecret
	if secret == "" {
		a.Deps.Logger.Warn("⚠️ ADMIN_JWT_SECRET not set, admin routes disabled")
		return
	}
	g := r.Group("/admin", middleware.JwtProtected(secret))
	g.Post("/payments/:id/refresh", RefreshPayment(a))
	g.Get("/payments", ListPayments(a))
	g.Get("/payments/:id", GetPayment(a))
}

// MaxListLimit caps the page size of ListPayments.
const MaxListLimit = 200

// ListPayments returns the newest stored payments in one status.
func ListPayments(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if a.Deps.Payments == nil {
			return common.ProblemDetailsJSON(c, "Payment store not configured", nil,
				"DATABASE_URL is not set", fiber.StatusServiceUnavailable)
		}
		status, err := domain.ParseStatus(c.Query("status"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Validation failed", &domain.ValidationError{
				Field:   "status",
				Message: "must be one of pending, approved, rejected, cancelled, refunded",
			})
		}
		limit := c.QueryInt("limit", 50)
		if limit < 1 || limit > MaxListLimit {
			return common.ProblemDetailsJSON(c, "Validation failed", &domain.ValidationError{
				Field:   "limit",
				Message: "must be between 1 and 200",
			})
		}

		payments, err := a.Deps.Payments.ListByStatus(c.UserContext(), status, limit)
		if err != nil {
			a.Deps.Logger.Error("❌ failed to list payments", "handler", "ListPayments", "status", status, "error", err)
			return common.ProblemDetailsJSON(c, "Failed to list payments", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payments", payments)
	}
}

// RefreshPayment reconciles a payment as if a webhook had been received
// for it. Side effects stay idempotent.
func RefreshPayment(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		logger := a.Deps.Logger.With("handler", "RefreshPayment", "payment_id", id)
		payment, err := a.Processor.Reconcile(c.UserContext(), id)
		if err != nil && payment == nil {
			logger.Error("❌ payment refresh failed", "error", err)
			return common.ProblemDetailsJSON(c, "Failed to refresh payment", err)
		}
		if payment == nil {
			return common.ProblemDetailsJSON(c, "Payment status not supported",
				domain.ErrUnknownStatus, fiber.StatusUnprocessableEntity)
		}
		if err != nil {
			logger.Warn("⚠️ payment refreshed with failing side effects", "error", err)
		}
		logger.Info("🔁 payment refreshed", "status", payment.Status)
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payment refreshed", payment)
	}
}

// GetPayment returns the stored projection, or the live processor record
// when no database is configured.
func GetPayment(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var (
			payment *domain.Payment
			err     error
		)
		if a.Deps.Payments != nil {
			payment, err = a.Deps.Payments.Get(c.UserContext(), id)
		} else {
			payment, err = a.Deps.MercadoPago.FetchPayment(c.UserContext(), id)
		}
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payment", payment)
	}
}
