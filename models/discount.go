package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType represents how a discount's value is interpreted.
type DiscountType string

const (
	// DiscountTypePercentage values are basis points (10000 = 100%).
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	// DiscountTypeFixed values are minor currency units.
	DiscountTypeFixed DiscountType = "FIXED"
	// DiscountTypeBOGO takes half of the applicable subtotal.
	DiscountTypeBOGO DiscountType = "BOGO"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed || t == DiscountTypeBOGO
}

// DiscountScope restricts which order lines a discount is computed against.
type DiscountScope string

const (
	DiscountScopeOrder    DiscountScope = "ORDER"
	DiscountScopeCategory DiscountScope = "CATEGORY"
	DiscountScopeProduct  DiscountScope = "PRODUCT"
)

// Valid reports whether s is a known scope.
func (s DiscountScope) Valid() bool {
	return s == DiscountScopeOrder || s == DiscountScopeCategory || s == DiscountScopeProduct
}

// DiscountStatus is the catalog lifecycle of a discount. Only ACTIVE
// discounts can be applied; ARCHIVED replaces deletion.
type DiscountStatus string

const (
	DiscountStatusActive   DiscountStatus = "ACTIVE"
	DiscountStatusInactive DiscountStatus = "INACTIVE"
	DiscountStatusArchived DiscountStatus = "ARCHIVED"
)

// Discount is a tenant-level catalog entry that can be applied to orders.
type Discount struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_discounts_tenant_code" json:"tenant_id"`
	Name          string         `gorm:"type:varchar(120);not null" json:"name"`
	Code          *string        `gorm:"type:varchar(64);uniqueIndex:idx_discounts_tenant_code" json:"code,omitempty"`
	Type          DiscountType   `gorm:"type:varchar(20);not null" json:"type"`
	Value         int64          `gorm:"not null" json:"value"`
	Scope         DiscountScope  `gorm:"type:varchar(20);not null;default:'ORDER'" json:"scope"`
	CategoryIDs   []uuid.UUID    `gorm:"type:jsonb;serializer:json" json:"category_ids,omitempty"`
	ProductIDs    []uuid.UUID    `gorm:"type:jsonb;serializer:json" json:"product_ids,omitempty"`
	MinOrderCents int64          `gorm:"not null;default:0" json:"min_order_cents"`
	StartsAt      *time.Time     `json:"starts_at,omitempty"`
	EndsAt        *time.Time     `json:"ends_at,omitempty"`
	UsageCount    int            `gorm:"not null;default:0" json:"usage_count"`
	MaxUsageCount *int           `json:"max_usage_count,omitempty"`
	Status        DiscountStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// AppliedDiscount freezes the amount a discount took off one order.
type AppliedDiscount struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrderID     uuid.UUID    `gorm:"type:uuid;not null;index" json:"order_id"`
	DiscountID  *uuid.UUID   `gorm:"type:uuid;index" json:"discount_id,omitempty"`
	Name        string       `gorm:"type:varchar(120);not null" json:"name"`
	Type        DiscountType `gorm:"type:varchar(20);not null" json:"type"`
	Value       int64        `gorm:"not null" json:"value"`
	AmountCents int64        `gorm:"not null" json:"amount_cents"`
	AppliedBy   uuid.UUID    `gorm:"type:uuid;not null" json:"applied_by"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// DiscountFilter narrows ListDiscounts.
type DiscountFilter struct {
	Status *DiscountStatus
}

// CreateDiscountRequest is the payload for creating a catalog discount.
type CreateDiscountRequest struct {
	Name          string        `json:"name" binding:"required,min=1,max=120"`
	Code          string        `json:"code" binding:"max=64"`
	Type          DiscountType  `json:"type" binding:"required,oneof=PERCENTAGE FIXED BOGO"`
	Value         int64         `json:"value" binding:"gte=0"`
	Scope         DiscountScope `json:"scope" binding:"omitempty,oneof=ORDER CATEGORY PRODUCT"`
	CategoryIDs   []uuid.UUID   `json:"category_ids"`
	ProductIDs    []uuid.UUID   `json:"product_ids"`
	MinOrderCents int64         `json:"min_order_cents" binding:"gte=0"`
	StartsAt      *time.Time    `json:"starts_at"`
	EndsAt        *time.Time    `json:"ends_at"`
	MaxUsageCount *int          `json:"max_usage_count" binding:"omitempty,gte=1"`
}

// ManualDiscount is an ad-hoc discount entered at the till.
type ManualDiscount struct {
	Name  string       `json:"name" binding:"required,max=120"`
	Type  DiscountType `json:"type" binding:"required,oneof=PERCENTAGE FIXED"`
	Value int64        `json:"value" binding:"required,gt=0"`
}

// ApplyDiscountRequest selects a catalog discount by id or code, or carries a
// manual discount. Exactly one must be set.
type ApplyDiscountRequest struct {
	DiscountID *uuid.UUID      `json:"discount_id"`
	Code       string          `json:"code"`
	Manual     *ManualDiscount `json:"manual"`
}
