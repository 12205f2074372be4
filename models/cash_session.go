package models

import (
	"time"

	"github.com/google/uuid"
)

// CashSessionStatus is the lifecycle of a cash drawer session.
type CashSessionStatus string

const (
	CashSessionStatusOpen   CashSessionStatus = "OPEN"
	CashSessionStatusClosed CashSessionStatus = "CLOSED"
)

// CashSession tracks one drawer shift. A tenant has at most one OPEN session;
// the partial unique index enforces it at the database level too.
type CashSession struct {
	ID                  uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID            uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_cash_sessions_one_open,where:status = 'OPEN'" json:"tenant_id"`
	Status              CashSessionStatus `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	OpeningCashCents    int64             `gorm:"not null" json:"opening_cash_cents"`
	ClosingCashCents    *int64            `json:"closing_cash_cents,omitempty"`
	ExpectedCashCents   *int64            `json:"expected_cash_cents,omitempty"`
	CashDifferenceCents *int64            `json:"cash_difference_cents,omitempty"`
	OpenedBy            uuid.UUID         `gorm:"type:uuid;not null" json:"opened_by"`
	ClosedBy            *uuid.UUID        `gorm:"type:uuid" json:"closed_by,omitempty"`
	OpenedAt            time.Time         `gorm:"not null" json:"opened_at"`
	ClosedAt            *time.Time        `json:"closed_at,omitempty"`
	Notes               string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt           time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// OpenCashSessionRequest opens a drawer with a counted float.
type OpenCashSessionRequest struct {
	OpeningCashCents int64  `json:"opening_cash_cents" binding:"gte=0"`
	Notes            string `json:"notes" binding:"max=1000"`
}

// CloseCashSessionRequest closes the open drawer with the counted cash.
type CloseCashSessionRequest struct {
	ClosingCashCents int64  `json:"closing_cash_cents" binding:"gte=0"`
	Notes            string `json:"notes" binding:"max=1000"`
}

// ShiftSummary aggregates the closed orders of one session window. It is a
// read model and not part of the cash ledger.
type ShiftSummary struct {
	SessionID        uuid.UUID                 `json:"session_id"`
	From             time.Time                 `json:"from"`
	To               time.Time                 `json:"to"`
	PaidOrders       int                       `json:"paid_orders"`
	CancelledOrders  int                       `json:"cancelled_orders"`
	SalesCents       int64                     `json:"sales_cents"`
	SubtotalCents    int64                     `json:"subtotal_cents"`
	TaxCents         int64                     `json:"tax_cents"`
	DiscountCents    int64                     `json:"discount_cents"`
	TipCents         int64                     `json:"tip_cents"`
	RefundCents      int64                     `json:"refund_cents"`
	PaymentsByMethod map[PaymentProvider]int64 `json:"payments_by_method"`
	VoidItemCount    int                       `json:"void_item_count"`
}
