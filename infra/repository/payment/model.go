package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is the persisted projection of a processor payment.
type Payment struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primary_key"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Provider           string            `gorm:"type:varchar(32);not null"`
	PaymentID          string            `gorm:"type:varchar(64);column:payment_id;uniqueIndex;not null"`
	Status             string            `gorm:"type:varchar(32);not null;index"`
	StatusDetail       string            `gorm:"type:varchar(128)"`
	Amount             decimal.Decimal   `gorm:"type:numeric(20,2);not null"`
	Currency           string            `gorm:"type:varchar(3);not null"`
	MethodID           string            `gorm:"type:varchar(64)"`
	PayerEmail         string            `gorm:"type:varchar(255)"`
	PayerFirstName     string            `gorm:"type:varchar(128)"`
	PayerLastName      string            `gorm:"type:varchar(128)"`
	Metadata           map[string]string `gorm:"type:jsonb;serializer:json"`
	ProcessorCreatedAt time.Time
	ApprovedAt         *time.Time
}

// TableName specifies the table name for the Payment model.
func (Payment) TableName() string {
	return "payments"
}
