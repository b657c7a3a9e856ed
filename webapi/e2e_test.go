package webapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/amirasaad/paygate/pkg/signature"
	"github.com/amirasaad/paygate/webapi/testutils"
	"github.com/amirasaad/paygate/webapi/webhooks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type E2EFlowsTestSuite struct {
	testutils.E2ETestSuite
}

func (s *E2EFlowsTestSuite) deliver(paymentID string) {
	body := `{"action":"payment.updated","type":"payment","data":{"id":"` + paymentID + `"}}`
	resp := s.Env.MakeRequest(s.T(), http.MethodPost, "/webhooks/mercadopago", body, "", map[string]string{
		webhooks.HeaderSignature: signature.Sign(testutils.TestSecret, paymentID, "req-1", "1704908010"),
		webhooks.HeaderRequestID: "req-1",
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
}

func (s *E2EFlowsTestSuite) TestWebhookPersistsPaymentProjection() {
	approvedAt := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	s.Env.MercadoPago.SetPayment(&domain.Payment{
		ID:       "9001",
		Status:   domain.StatusPending,
		Amount:   decimal.RequireFromString("397.00"),
		Currency: "BRL",
		MethodID: "pix",
		PayerIdentity: domain.PayerIdentity{
			Email: "maria@example.com", FirstName: "Maria", LastName: "da Silva",
		},
		Metadata: map[string]string{"order": "42"},
	})

	s.deliver("9001")
	s.deliver("9001")

	stored, err := s.Payments.Get(context.Background(), "9001")
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, stored.Status)
	s.True(stored.Amount.Equal(decimal.RequireFromString("397.00")))
	s.Equal("42", stored.Metadata["order"])

	s.Env.MercadoPago.SetPayment(&domain.Payment{
		ID:         "9001",
		Status:     domain.StatusApproved,
		Amount:     decimal.RequireFromString("397.00"),
		Currency:   "BRL",
		MethodID:   "pix",
		ApprovedAt: &approvedAt,
	})
	s.deliver("9001")

	stored, err = s.Payments.Get(context.Background(), "9001")
	s.Require().NoError(err)
	s.Equal(domain.StatusApproved, stored.Status)
	s.Require().NotNil(stored.ApprovedAt)
	s.True(approvedAt.Equal(*stored.ApprovedAt))

	var count int64
	s.Require().NoError(s.DB.Table("payments").Where("payment_id = ?", "9001").Count(&count).Error)
	s.Equal(int64(1), count)
	s.Len(s.Env.Bus.Published(), 2)
}

func (s *E2EFlowsTestSuite) TestStoredStatusNeverMovesBackwards() {
	ctx := context.Background()
	p := &domain.Payment{ID: "9002", Status: domain.StatusRefunded, Amount: decimal.NewFromInt(10), Currency: "BRL"}
	s.Require().NoError(s.Payments.Upsert(ctx, "mercadopago", p))

	late := *p
	late.Status = domain.StatusApproved
	s.ErrorIs(s.Payments.Upsert(ctx, "mercadopago", &late), domain.ErrStaleTransition)

	stored, err := s.Payments.Get(ctx, "9002")
	s.Require().NoError(err)
	s.Equal(domain.StatusRefunded, stored.Status)

	refunded, err := s.Payments.ListByStatus(ctx, domain.StatusRefunded, 10)
	s.Require().NoError(err)
	s.Require().Len(refunded, 1)
	s.Equal("9002", refunded[0].ID)
}

func TestE2EFlowsTestSuite(t *testing.T) {
	suite.Run(t, new(E2EFlowsTestSuite))
}
