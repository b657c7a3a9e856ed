package mercadopago

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/shopspring/decimal"
)

// dateLayout is the timestamp format the API expects for date_of_expiration.
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

type identification struct {
	Type   string `json:"type,omitempty"`
	Number string `json:"number,omitempty"`
}

type payer struct {
	Email          string          `json:"email,omitempty"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Identification *identification `json:"identification,omitempty"`
}

type transactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	TicketURL    string `json:"ticket_url"`
}

type pointOfInteraction struct {
	Type            string          `json:"type"`
	TransactionData transactionData `json:"transaction_data"`
}

// paymentResponse is the subset of GET/POST /v1/payments we read.
type paymentResponse struct {
	ID                 int64               `json:"id"`
	Status             string              `json:"status"`
	StatusDetail       string              `json:"status_detail"`
	TransactionAmount  decimal.Decimal     `json:"transaction_amount"`
	CurrencyID         string              `json:"currency_id"`
	PaymentMethodID    string              `json:"payment_method_id"`
	DateCreated        string              `json:"date_created"`
	DateApproved       string              `json:"date_approved"`
	DateOfExpiration   string              `json:"date_of_expiration"`
	ExternalReference  string              `json:"external_reference"`
	Metadata           map[string]any      `json:"metadata"`
	Payer              payer               `json:"payer"`
	PointOfInteraction *pointOfInteraction `json:"point_of_interaction"`
}

type pixRequest struct {
	TransactionAmount float64           `json:"transaction_amount"`
	Description       string            `json:"description"`
	PaymentMethodID   string            `json:"payment_method_id"`
	DateOfExpiration  string            `json:"date_of_expiration"`
	NotificationURL   string            `json:"notification_url,omitempty"`
	Payer             payer             `json:"payer"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type cardPaymentRequest struct {
	TransactionAmount float64           `json:"transaction_amount"`
	Token             string            `json:"token"`
	Description       string            `json:"description,omitempty"`
	Installments      int               `json:"installments"`
	PaymentMethodID   string            `json:"payment_method_id"`
	NotificationURL   string            `json:"notification_url,omitempty"`
	Payer             payer             `json:"payer"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type payerCost struct {
	Installments       int             `json:"installments"`
	InstallmentRate    decimal.Decimal `json:"installment_rate"`
	InstallmentAmount  decimal.Decimal `json:"installment_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	RecommendedMessage string          `json:"recommended_message"`
}

type installmentsResponse struct {
	PaymentMethodID string      `json:"payment_method_id"`
	PaymentTypeID   string      `json:"payment_type_id"`
	PayerCosts      []payerCost `json:"payer_costs"`
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// toPayment maps the wire record to the domain projection.
func (r *paymentResponse) toPayment() (*domain.Payment, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	p := &domain.Payment{
		ID:           fmt.Sprintf("%d", r.ID),
		Status:       status,
		StatusDetail: r.StatusDetail,
		Amount:       r.TransactionAmount,
		Currency:     strings.ToUpper(r.CurrencyID),
		MethodID:     r.PaymentMethodID,
		PayerIdentity: domain.PayerIdentity{
			Email:     r.Payer.Email,
			FirstName: r.Payer.FirstName,
			LastName:  r.Payer.LastName,
		},
		Metadata: make(map[string]string, len(r.Metadata)+1),
	}
	if r.Payer.Identification != nil {
		p.PayerIdentity.IdentificationType = r.Payer.Identification.Type
		p.PayerIdentity.IdentificationNumber = r.Payer.Identification.Number
	}
	for k, v := range r.Metadata {
		if v == nil {
			continue
		}
		p.Metadata[k] = fmt.Sprint(v)
	}
	if r.ExternalReference != "" {
		p.Metadata["external_reference"] = r.ExternalReference
	}
	if t, ok := parseTime(r.DateCreated); ok {
		p.CreatedAt = t
	}
	if t, ok := parseTime(r.DateApproved); ok {
		p.ApprovedAt = &t
	}
	return p, nil
}

// toPixCharge maps a PIX payment to a charge.
func (r *paymentResponse) toPixCharge() (*domain.PixCharge, error) {
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return nil, err
	}
	c := &domain.PixCharge{
		ID:     fmt.Sprintf("%d", r.ID),
		Status: status,
	}
	if r.PointOfInteraction != nil {
		c.QRImageBase64 = r.PointOfInteraction.TransactionData.QRCodeBase64
		c.QRCopyPasteText = r.PointOfInteraction.TransactionData.QRCode
	}
	if t, ok := parseTime(r.DateOfExpiration); ok {
		c.ExpiresAt = t
	}
	return c, nil
}

func toFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
