// Package pix creates instant-payment charges and follows them until they
// settle.
package pix

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/provider"
	"github.com/shopspring/decimal"
)

// DefaultExpirationMinutes applies when a request leaves ExpirationMinutes
// at zero.
const DefaultExpirationMinutes = 30

// Payer identifies who pays a PIX charge.
type Payer struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	CPF      string `json:"cpf"`
}

// ChargeRequest is the input of CreateCharge.
type ChargeRequest struct {
	Amount            decimal.Decimal   `json:"amount"`
	Description       string            `json:"description"`
	Payer             Payer             `json:"payer"`
	ExpirationMinutes int               `json:"expirationMinutes"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Generator validates PIX requests and creates charges with a
// server-authoritative expiration.
type Generator struct {
	provider          provider.PixProvider
	defaultExpiration int
	now               func() time.Time
	logger            *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// WithDefaultExpiration sets the expiration used when a request has none.
func WithDefaultExpiration(minutes int) GeneratorOption {
	return func(g *Generator) {
		if minutes > 0 {
			g.defaultExpiration = minutes
		}
	}
}

// NewGenerator creates a Generator.
func NewGenerator(p provider.PixProvider, logger *slog.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		provider:          p,
		defaultExpiration: DefaultExpirationMinutes,
		now:               time.Now,
		logger:            logger.With("component", "pix"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CreateCharge validates req and creates the charge. Nothing is sent to the
// processor when validation fails.
func (g *Generator) CreateCharge(ctx context.Context, req ChargeRequest) (*domain.PixCharge, error) {
	params, err := g.prepare(req)
	if err != nil {
		return nil, err
	}

	charge, err := g.provider.CreatePixCharge(ctx, params)
	if err != nil {
		g.logger.Error("❌ PIX charge creation failed", "error", err)
		return nil, fmt.Errorf("create pix charge: %w", err)
	}
	g.logger.Info("🔳 PIX charge ready",
		"charge_id", charge.ID,
		"amount", params.Amount.StringFixed(2),
		"expires_at", charge.ExpiresAt,
	)
	return charge, nil
}

// GetCharge reads the current state of a charge.
func (g *Generator) GetCharge(ctx context.Context, chargeID string) (*domain.PixCharge, error) {
	if strings.TrimSpace(chargeID) == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "charge id is required"}
	}
	return g.provider.GetPixCharge(ctx, chargeID)
}

func (g *Generator) prepare(req ChargeRequest) (*provider.PixParams, error) {
	var errs domain.ValidationErrors

	if !req.Amount.IsPositive() {
		errs.Add("amount", "amount must be greater than zero")
	}
	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) < 3 {
		errs.Add("description", "description must have at least 3 characters")
	}

	fullName := strings.Join(strings.Fields(req.Payer.FullName), " ")
	first, last := SplitName(fullName)
	if utf8.RuneCountInString(fullName) < 3 || last == "" {
		errs.Add("payer.fullName", "full name must include first and last name")
	}
	email := strings.TrimSpace(req.Payer.Email)
	if !strings.Contains(email, "@") {
		errs.Add("payer.email", "email must be a valid address")
	}
	cpf, ok := NormalizeCPF(req.Payer.CPF)
	if !ok {
		errs.Add("payer.cpf", "CPF must have 11 digits")
	}

	minutes := req.ExpirationMinutes
	if minutes < 0 {
		errs.Add("expirationMinutes", "expiration must not be negative")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if minutes == 0 {
		minutes = g.defaultExpiration
	}

	return &provider.PixParams{
		Amount:      req.Amount.Round(2),
		Description: description,
		Email:       email,
		FirstName:   first,
		LastName:    last,
		CPF:         cpf,
		ExpiresAt:   g.now().Add(time.Duration(minutes) * time.Minute),
		Metadata:    req.Metadata,
	}, nil
}

// SplitName returns the first token and the remainder of a full name.
func SplitName(fullName string) (first, last string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// NormalizeCPF strips punctuation from a CPF and checks its length.
func NormalizeCPF(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	return out, len(out) == 11
}
