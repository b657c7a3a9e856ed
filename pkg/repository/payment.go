package repository

import (
	"context"

	"github.com/amirasaad/paygate/pkg/domain"
)

// PaymentRepository stores the local projection of processor payments,
// keyed by the processor's payment id.
type PaymentRepository interface {
	// Upsert inserts p or refreshes the stored status of an existing record.
	Upsert(ctx context.Context, provider string, p *domain.Payment) error

	// Get returns the stored payment or domain.ErrNotFound.
	Get(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListByStatus returns up to limit payments in status, newest first.
	ListByStatus(ctx context.Context, status domain.Status, limit int) ([]*domain.Payment, error)
}
