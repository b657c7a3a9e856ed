// Package installments resolves installment plans for a card BIN.
package installments

import (
	"context"
	"log/slog"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/provider"
	"github.com/shopspring/decimal"
)

// BINLength is the number of leading card digits used for lookups.
const BINLength = 6

// Resolver fetches installment plans. It never returns an error: a failed
// lookup degrades to an empty list so checkout is never blocked.
type Resolver struct {
	provider provider.InstallmentsProvider
	logger   *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(p provider.InstallmentsProvider, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{provider: p, logger: logger.With("component", "installments")}
}

// GetInstallments returns the plans for amount and the first six digits of
// bin. Fewer than six digits, a non-positive amount or an upstream failure
// all yield an empty, non-nil slice.
func (r *Resolver) GetInstallments(
	ctx context.Context,
	amount decimal.Decimal,
	bin string,
	paymentMethodID string,
) []domain.InstallmentOption {
	bin, ok := NormalizeBIN(bin)
	if !ok || !amount.IsPositive() {
		return []domain.InstallmentOption{}
	}

	opts, err := r.provider.Installments(ctx, amount, bin, paymentMethodID)
	if err != nil {
		if ctx.Err() != nil {
			r.logger.Debug("installments lookup superseded", "bin", bin)
		} else {
			r.logger.Warn("⚠️ installments lookup failed", "bin", bin, "amount", amount.StringFixed(2), "error", err)
		}
		return []domain.InstallmentOption{}
	}
	if opts == nil {
		return []domain.InstallmentOption{}
	}
	return opts
}

// NormalizeBIN keeps the digits of s and returns the first six of them.
func NormalizeBIN(s string) (string, bool) {
	digits := make([]byte, 0, BINLength)
	for i := 0; i < len(s) && len(digits) < BINLength; i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) < BINLength {
		return "", false
	}
	return string(digits), true
}
