// Package common holds the response helpers shared by every route group.
package common

import (
	"errors"
	"reflect"
	"strings"

	"github.com/amirasaad/paygate/pkg/cardtoken"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// SuccessResponseJSON writes a Response envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ProblemDetailsJSON writes an RFC 9457 problem. The optional args are a
// string detail and/or an int status; without a status one is derived
// from err. Validation errors are listed under "errors".
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, args ...any) error {
	status := fiber.StatusBadRequest
	if err != nil {
		status = ErrorToStatusCode(err)
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Detail = err.Error()
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case int:
			status = v
		case string:
			pd.Detail = v
		}
	}
	pd.Status = status

	var verrs domain.ValidationErrors
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verrs):
		pd.Errors = verrs
	case errors.As(err, &verr):
		pd.Errors = []*domain.ValidationError{verr}
	}

	return c.Status(status).JSON(pd, "application/problem+json")
}

// ErrorToStatusCode maps domain errors to HTTP status codes.
func ErrorToStatusCode(err error) int {
	var (
		apiErr  *domain.ProviderAPIError
		netErr  *domain.NetworkError
		sigErr  *domain.SignatureError
		tokErr  *cardtoken.TokenizationError
		coErr   *domain.CheckoutError
		fiberEr *fiber.Error
	)
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &sigErr):
		return fiber.StatusBadRequest
	case errors.As(err, &tokErr):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == fiber.StatusNotFound {
			return fiber.StatusNotFound
		}
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return fiber.StatusUnprocessableEntity
		}
		return fiber.StatusBadGateway
	case errors.As(err, &netErr):
		return fiber.StatusBadGateway
	case errors.As(err, &coErr):
		return fiber.StatusBadGateway
	case errors.As(err, &fiberEr):
		return fiberEr.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// On failure it writes the problem response and returns a nil input along
// with the write error, which handlers return unchanged.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body", nil, err.Error(), fiber.StatusBadRequest)
	}
	if err := validate.Struct(input); err != nil {
		return nil, ProblemDetailsJSON(c, "Validation failed", toValidationErrors(err))
	}
	return &input, nil
}

func toValidationErrors(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &domain.ValidationError{Field: "body", Message: err.Error()}
	}
	var out domain.ValidationErrors
	for _, fe := range fieldErrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		out.Add(field, describeTag(fe))
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be an absolute http(s) URL"
	case "gt", "gte", "min":
		return "must be at least " + fe.Param()
	case "lt", "lte", "max":
		return "must be at most " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
