// Package webapi provides the HTTP surface of paygate.
// It is organized into sub-packages per flow:
// - webhooks: processor notifications
// - payment: PIX, installments and card payments
// - checkout: hosted checkout sessions
// - admin: operator endpoints
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/paygate/pkg/app"
	adminweb "github.com/amirasaad/paygate/webapi/admin"
	checkoutweb "github.com/amirasaad/paygate/webapi/checkout"
	"github.com/amirasaad/paygate/webapi/common"
	paymentweb "github.com/amirasaad/paygate/webapi/payment"
	webhookweb "github.com/amirasaad/paygate/webapi/webhooks"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// WebhookPrefix is exempt from rate limiting; processors retry on 429.
const WebhookPrefix = "/webhooks/"

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		AppName: "paygate",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	fiberApp.Use(requestid.New())

	// Configure rate limiting middleware
	// Uses X-Forwarded-For header when behind a proxy
	// Falls back to X-Real-IP or direct IP if needed
	fiberApp.Use(limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), WebhookPrefix)
		},
		Max:        a.Config.RateLimit.MaxRequests,
		Expiration: a.Config.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				// Take the first IP in the chain
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("paygate is running! 🚀")
	})
	fiberApp.Get("/metrics", adaptor.HTTPHandler(a.Deps.Metrics.Handler()))

	// Debug endpoint to list all routes
	fiberApp.Get("/debug/routes", func(c *fiber.Ctx) error {
		var routeList []map[string]any
		for _, route := range fiberApp.GetRoutes(true) {
			routeList = append(routeList, map[string]any{
				"method": route.Method,
				"path":   route.Path,
			})
		}
		return c.JSON(routeList)
	})

	webhookweb.Routes(fiberApp, a)
	paymentweb.Routes(fiberApp, a)
	checkoutweb.Routes(fiberApp, a)
	adminweb.Routes(fiberApp, a)
	return fiberApp
}
