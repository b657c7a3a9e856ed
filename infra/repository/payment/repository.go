package payment

import (
	"context"

	infrarepo "github.com/amirasaad/paygate/infra/repository"
	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertColumns are refreshed when a payment id is seen again.
var upsertColumns = []string{
	"status",
	"status_detail",
	"amount",
	"currency",
	"metadata",
	"approved_at",
	"updated_at",
}

type paymentRepository struct {
	db *gorm.DB
}

// New creates a gorm-backed payment repository.
func New(db *gorm.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

// Upsert implements repository.PaymentRepository. An existing row is only
// updated when its stored status may move to p.Status; otherwise the row is
// left untouched and domain.ErrStaleTransition is returned.
func (r *paymentRepository) Upsert(ctx context.Context, provider string, p *domain.Payment) error {
	m := toModel(provider, p)
	prior := make([]string, 0, len(domain.Statuses))
	for _, s := range domain.PriorStatuses(p.Status) {
		prior = append(prior, string(s))
	}

	var affected int64
	err := infrarepo.WrapError(func() error {
		res := r.db.WithContext(
			ctx,
		).Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "payment_id"}},
				DoUpdates: clause.AssignmentColumns(upsertColumns),
				Where: clause.Where{Exprs: []clause.Expression{
					clause.Expr{SQL: `"payments"."status" IN ?`, Vars: []any{prior}},
				}},
			},
		).Create(&m)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrStaleTransition
	}
	return nil
}

// Get implements repository.PaymentRepository.
func (r *paymentRepository) Get(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var m Payment
	if err := infrarepo.WrapError(func() error {
		return r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&m).Error
	}); err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

// ListByStatus implements repository.PaymentRepository.
func (r *paymentRepository) ListByStatus(
	ctx context.Context,
	status domain.Status,
	limit int,
) ([]*domain.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []Payment
	if err := infrarepo.WrapError(func() error {
		return r.db.WithContext(
			ctx,
		).Where(
			"status = ?",
			string(status),
		).Order(
			"updated_at DESC",
		).Limit(
			limit,
		).Find(
			&rows,
		).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*domain.Payment, 0, len(rows))
	for i := range rows {
		out = append(out, toDomain(&rows[i]))
	}
	return out, nil
}

func toModel(provider string, p *domain.Payment) Payment {
	return Payment{
		ID:                 uuid.New(),
		Provider:           provider,
		PaymentID:          p.ID,
		Status:             string(p.Status),
		StatusDetail:       p.StatusDetail,
		Amount:             p.Amount,
		Currency:           p.Currency,
		MethodID:           p.MethodID,
		PayerEmail:         p.PayerIdentity.Email,
		PayerFirstName:     p.PayerIdentity.FirstName,
		PayerLastName:      p.PayerIdentity.LastName,
		Metadata:           p.Metadata,
		ProcessorCreatedAt: p.CreatedAt,
		ApprovedAt:         p.ApprovedAt,
	}
}

func toDomain(m *Payment) *domain.Payment {
	return &domain.Payment{
		ID:           m.PaymentID,
		Status:       domain.Status(m.Status),
		StatusDetail: m.StatusDetail,
		Amount:       m.Amount,
		Currency:     m.Currency,
		PayerIdentity: domain.PayerIdentity{
			Email:     m.PayerEmail,
			FirstName: m.PayerFirstName,
			LastName:  m.PayerLastName,
		},
		Metadata:   m.Metadata,
		MethodID:   m.MethodID,
		CreatedAt:  m.ProcessorCreatedAt,
		ApprovedAt: m.ApprovedAt,
	}
}
