package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LifecycleStatus replaces boolean soft-delete flags on catalog rows.
type LifecycleStatus string

const (
	LifecycleActive   LifecycleStatus = "ACTIVE"
	LifecycleArchived LifecycleStatus = "ARCHIVED"
)

// Category groups products for reporting and discount scoping.
type Category struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_categories_tenant_name" json:"tenant_id"`
	Name      string          `gorm:"type:varchar(120);not null;uniqueIndex:idx_categories_tenant_name" json:"name"`
	Status    LifecycleStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Product is a sellable item. Order lines copy its name and price.
type Product struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_products_tenant_sku" json:"tenant_id"`
	CategoryID *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	SKU        string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_products_tenant_sku" json:"sku"`
	PriceCents int64           `gorm:"not null" json:"price_cents"`
	Status     LifecycleStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TaxRate is a fractional rate such as 0.05. At most one per tenant is the default.
type TaxRate struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name      string          `gorm:"type:varchar(120);not null" json:"name"`
	Rate      decimal.Decimal `gorm:"type:numeric(6,5);not null" json:"rate"`
	IsDefault bool            `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	Status     *LifecycleStatus
	CategoryID *uuid.UUID
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=120"`
}

type CreateProductRequest struct {
	Name       string     `json:"name" binding:"required,min=1,max=255"`
	SKU        string     `json:"sku" binding:"required,min=1,max=64"`
	PriceCents int64      `json:"price_cents" binding:"gte=0"`
	CategoryID *uuid.UUID `json:"category_id"`
}

// UpdateProductRequest changes product fields. Nil fields are left untouched.
type UpdateProductRequest struct {
	Name       *string    `json:"name" binding:"omitempty,min=1,max=255"`
	PriceCents *int64     `json:"price_cents" binding:"omitempty,gte=0"`
	CategoryID *uuid.UUID `json:"category_id"`
}

type CreateTaxRateRequest struct {
	Name      string          `json:"name" binding:"required,min=1,max=120"`
	Rate      decimal.Decimal `json:"rate"`
	IsDefault bool            `json:"is_default"`
}
