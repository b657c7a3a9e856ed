package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotificationTypePayment is the only webhook type that carries a payment id.
const NotificationTypePayment = "payment"

// WebhookNotification is the routing envelope of an inbound webhook. Only
// ResourceID is trusted, and only after the signature has been verified.
type WebhookNotification struct {
	ID         string    `json:"id,omitempty"`
	Type       string    `json:"type"`
	Action     string    `json:"action"`
	ResourceID string    `json:"resource_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Payment is a read-through projection of the processor's authoritative
// payment record.
type Payment struct {
	ID            string            `json:"id"`
	Status        Status            `json:"status"`
	StatusDetail  string            `json:"status_detail,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	PayerIdentity PayerIdentity     `json:"payer"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	MethodID      string            `json:"method_id"`
	CreatedAt     time.Time         `json:"created_at"`
	ApprovedAt    *time.Time        `json:"approved_at,omitempty"`
}

// PayerIdentity identifies who paid. Never carries card data.
type PayerIdentity struct {
	Email                string `json:"email,omitempty"`
	FirstName            string `json:"first_name,omitempty"`
	LastName             string `json:"last_name,omitempty"`
	IdentificationType   string `json:"identification_type,omitempty"`
	IdentificationNumber string `json:"identification_number,omitempty"`
}

// CheckoutSession is an issued hosted checkout. Immutable once created.
type CheckoutSession struct {
	SessionID string            `json:"session_id"`
	HostedURL string            `json:"hosted_url"`
	ExpiresAt time.Time         `json:"expires_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// CardToken is the opaque single-use reference returned by secure fields.
type CardToken struct {
	TokenID         string `json:"token_id"`
	PaymentMethodID string `json:"payment_method_id"`
	FirstSixDigits  string `json:"first_six"`
	LastFourDigits  string `json:"last_four"`
}

// InstallmentOption is one installment plan for a BIN and amount.
type InstallmentOption struct {
	Count                int             `json:"count"`
	PerInstallmentAmount decimal.Decimal `json:"per_installment_amount"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	HasInterest          bool            `json:"has_interest"`
	RecommendedLabel     string          `json:"recommended_label,omitempty"`
}

// PixCharge is an instant payment charge with a QR payload.
type PixCharge struct {
	ID              string    `json:"id"`
	Status          Status    `json:"status"`
	QRImageBase64   string    `json:"qr_image_base64"`
	QRCopyPasteText string    `json:"qr_copy_paste_text"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Expired reports whether the charge can no longer be approved at now.
func (c *PixCharge) Expired(now time.Time) bool {
	return c.Status != StatusApproved && !now.Before(c.ExpiresAt)
}
