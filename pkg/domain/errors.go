package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrUnknownStatus is returned for processor statuses outside the lifecycle
	ErrUnknownStatus = errors.New("unknown payment status")
	// ErrSignatureMissing is returned when the signature header is absent
	ErrSignatureMissing = errors.New("signature missing")
	// ErrSignatureMalformed is returned when the header lacks ts or v1
	ErrSignatureMalformed = errors.New("signature malformed")
	// ErrSignatureMismatch is returned when the digest does not match
	ErrSignatureMismatch = errors.New("signature mismatch")
	// ErrStaleTransition is returned when a stored payment may not move to
	// the observed status (e.g. refunded back to approved)
	ErrStaleTransition = errors.New("payment status transition not allowed")
)

// ConfigError reports missing or invalid process configuration.
// It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// SignatureError wraps one of the ErrSignature* sentinels with detail.
type SignatureError struct {
	Kind   error
	Detail string
}

func (e *SignatureError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *SignatureError) Unwrap() error { return e.Kind }

// NewSignatureError builds a SignatureError of the given kind.
func NewSignatureError(kind error, detail string) *SignatureError {
	return &SignatureError{Kind: kind, Detail: detail}
}

// ValidationError describes a single invalid input field. Message is
// user-facing and actionable.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrors collects every failing field of one request.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) Is(target error) bool { return target == ErrValidation }

// Add appends a field failure.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, &ValidationError{Field: field, Message: message})
}

// Err returns nil when no failure was recorded.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ProviderAPIError is a non-success response from a payment processor.
type ProviderAPIError struct {
	Provider   string
	StatusCode int
	TraceID    string
	Code       string
	Message    string
}

func (e *ProviderAPIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: api error status=%d", e.Provider, e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, " message=%q", e.Message)
	}
	if e.TraceID != "" {
		fmt.Fprintf(&b, " trace_id=%s", e.TraceID)
	}
	return b.String()
}

// NetworkError is a transport failure talking to a processor.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// CheckoutError wraps any network or API failure raised while creating a
// hosted checkout session.
type CheckoutError struct {
	Cause error
}

func (e *CheckoutError) Error() string {
	return "checkout session creation failed: " + e.Cause.Error()
}

func (e *CheckoutError) Unwrap() error { return e.Cause }
