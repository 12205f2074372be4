package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentProvider is the tender used for a payment.
type PaymentProvider string

const (
	PaymentProviderCash   PaymentProvider = "CASH"
	PaymentProviderBank   PaymentProvider = "BANK"
	PaymentProviderPaypal PaymentProvider = "PAYPAL"
	PaymentProviderCard   PaymentProvider = "CARD"
)

// Valid reports whether p is a known provider.
func (p PaymentProvider) Valid() bool {
	switch p {
	case PaymentProviderCash, PaymentProviderBank, PaymentProviderPaypal, PaymentProviderCard:
		return true
	}
	return false
}

// PaymentStatus is the settlement state of a payment. The engine only writes
// CAPTURED; the others are reserved for gateway integrations.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusAuthorized PaymentStatus = "AUTHORIZED"
	PaymentStatusCaptured   PaymentStatus = "CAPTURED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// PaymentMetadataKind tags the variant held by PaymentMetadata.
type PaymentMetadataKind string

const (
	PaymentMetadataNone PaymentMetadataKind = "none"
	PaymentMetadataCash PaymentMetadataKind = "cash"
)

// PaymentMetadata is a tagged variant; Kind says which field is populated.
type PaymentMetadata struct {
	Kind PaymentMetadataKind `json:"kind"`
	Cash *CashTender         `json:"cash,omitempty"`
}

// CashTender records what the customer handed over for a cash payment.
type CashTender struct {
	ReceivedCents  int64 `json:"received_cents"`
	ChangeDueCents int64 `json:"change_due_cents"`
}

// Payment is an immutable settlement record against an order.
type Payment struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_payments_tenant_provider_created" json:"tenant_id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Provider    PaymentProvider `gorm:"type:varchar(20);not null;index:idx_payments_tenant_provider_created" json:"provider"`
	Status      PaymentStatus   `gorm:"type:varchar(20);not null" json:"status"`
	AmountCents int64           `gorm:"not null" json:"amount_cents"`
	Currency    string          `gorm:"type:varchar(3);not null" json:"currency"`
	Metadata    PaymentMetadata `gorm:"type:jsonb;serializer:json" json:"metadata"`
	CapturedBy  uuid.UUID       `gorm:"type:uuid;not null" json:"captured_by"`
	CreatedAt   time.Time       `gorm:"not null;index:idx_payments_tenant_provider_created" json:"created_at"`
}

// ChangeDueCents returns the change owed on a cash payment, zero otherwise.
func (p Payment) ChangeDueCents() int64 {
	if p.Metadata.Kind == PaymentMetadataCash && p.Metadata.Cash != nil {
		return p.Metadata.Cash.ChangeDueCents
	}
	return 0
}

// PayRequest captures a payment. AmountCents defaults to the outstanding
// balance; TipCents is recorded on the order outside totalCents.
type PayRequest struct {
	Provider    PaymentProvider `json:"provider" binding:"required,oneof=CASH BANK PAYPAL CARD"`
	AmountCents *int64          `json:"amount_cents" binding:"omitempty,gt=0"`
	TipCents    int64           `json:"tip_cents" binding:"gte=0"`
}
