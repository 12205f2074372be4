package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOpen       OrderStatus = "OPEN"
	OrderStatusInKitchen  OrderStatus = "IN_KITCHEN"
	OrderStatusReady      OrderStatus = "READY"
	OrderStatusForPayment OrderStatus = "FOR_PAYMENT"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// OpenFamilyStatuses are the non-terminal order statuses.
var OpenFamilyStatuses = []OrderStatus{
	OrderStatusOpen,
	OrderStatusInKitchen,
	OrderStatusReady,
	OrderStatusForPayment,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusInKitchen, OrderStatusReady,
		OrderStatusForPayment, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further mutation is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

// IsKitchenProgress reports whether s is one of the states re-derived from items.
func (s OrderStatus) IsKitchenProgress() bool {
	return s == OrderStatusOpen || s == OrderStatusInKitchen || s == OrderStatusReady
}

// ItemStatus is the kitchen state of a single order line.
type ItemStatus string

const (
	ItemStatusNew        ItemStatus = "NEW"
	ItemStatusSent       ItemStatus = "SENT"
	ItemStatusInProgress ItemStatus = "IN_PROGRESS"
	ItemStatusReady      ItemStatus = "READY"
	ItemStatusServed     ItemStatus = "SERVED"
	ItemStatusVoid       ItemStatus = "VOID"
)

var itemStatusRank = map[ItemStatus]int{
	ItemStatusNew:        0,
	ItemStatusSent:       1,
	ItemStatusInProgress: 2,
	ItemStatusReady:      3,
	ItemStatusServed:     4,
}

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	if s == ItemStatusVoid {
		return true
	}
	_, ok := itemStatusRank[s]
	return ok
}

// CanTransitionTo reports whether an item may move from s to next.
// Kitchen progress only moves forward; any billable item may be voided.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	if s == ItemStatusVoid || !next.Valid() {
		return false
	}
	if next == ItemStatusVoid {
		return true
	}
	return itemStatusRank[next] > itemStatusRank[s]
}

// Order is the tenant-scoped aggregate root of a table or counter sale.
type Order struct {
	ID              uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID        uuid.UUID   `gorm:"type:uuid;not null;index:idx_orders_tenant_status;uniqueIndex:idx_orders_open_table,where:table_id IS NOT NULL AND status <> 'PAID' AND status <> 'CANCELLED'" json:"tenant_id"`
	TableID         *uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:idx_orders_open_table,where:table_id IS NOT NULL AND status <> 'PAID' AND status <> 'CANCELLED'" json:"table_id,omitempty"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;default:'OPEN';index:idx_orders_tenant_status" json:"status"`
	SubtotalCents   int64       `gorm:"not null;default:0" json:"subtotal_cents"`
	DiscountCents   int64       `gorm:"not null;default:0" json:"discount_cents"`
	TaxCents        int64       `gorm:"not null;default:0" json:"tax_cents"`
	TipCents        int64       `gorm:"not null;default:0" json:"tip_cents"`
	TotalCents      int64       `gorm:"not null;default:0" json:"total_cents"`
	Currency        string      `gorm:"type:varchar(3);not null" json:"currency"`
	OpenedBy        uuid.UUID   `gorm:"type:uuid;not null" json:"opened_by"`
	OpenedAt        time.Time   `gorm:"not null;index" json:"opened_at"`
	SentToKitchenAt *time.Time  `json:"sent_to_kitchen_at,omitempty"`
	ClosedAt        *time.Time  `json:"closed_at,omitempty"`
	CancelReason    string      `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	CreatedAt       time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime" json:"updated_at"`

	Items     []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Discounts []AppliedDiscount `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"discounts"`
	Payments  []Payment         `gorm:"foreignKey:OrderID" json:"payments"`
}

// BillableItems returns every item that is not VOID.
func (o *Order) BillableItems() []OrderItem {
	out := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		if it.Status != ItemStatusVoid {
			out = append(out, it)
		}
	}
	return out
}

// CapturedCents sums the CAPTURED payments recorded against the order.
func (o *Order) CapturedCents() int64 {
	var sum int64
	for _, p := range o.Payments {
		if p.Status == PaymentStatusCaptured {
			sum += p.AmountCents
		}
	}
	return sum
}

// AppliedDiscountCents sums the frozen amounts of all applied discounts.
func (o *Order) AppliedDiscountCents() int64 {
	var sum int64
	for _, d := range o.Discounts {
		sum += d.AmountCents
	}
	return sum
}

// FindItem returns a pointer into o.Items for the given id.
func (o *Order) FindItem(id uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i]
		}
	}
	return nil
}

// OrderItem is a line on an order. Name, price and category are snapshots
// taken when the line was added.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrderID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null" json:"product_id"`
	CategoryID     *uuid.UUID `gorm:"type:uuid" json:"category_id,omitempty"`
	ProductName    string     `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPriceCents int64      `gorm:"not null" json:"unit_price_cents"`
	Quantity       int        `gorm:"not null" json:"quantity"`
	Status         ItemStatus `gorm:"type:varchar(20);not null;default:'NEW'" json:"status"`
	Notes          string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// LineTotalCents is unit price times quantity.
func (i OrderItem) LineTotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// OrderFilter narrows ListOrders. Nil fields are not applied.
type OrderFilter struct {
	Status  *OrderStatus
	TableID *uuid.UUID
}

// CreateOrderRequest opens an order, optionally bound to a table.
type CreateOrderRequest struct {
	TableID *uuid.UUID `json:"table_id"`
}

// AddItemRequest adds a product line to an order.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=99"`
	Notes     string    `json:"notes" binding:"max=500"`
}

// PatchItemRequest edits a line. Nil fields are left untouched.
type PatchItemRequest struct {
	Quantity *int        `json:"quantity"`
	Notes    *string     `json:"notes"`
	Status   *ItemStatus `json:"status"`
}

// IsEmpty reports whether the patch carries no change at all.
func (r PatchItemRequest) IsEmpty() bool {
	return r.Quantity == nil && r.Notes == nil && r.Status == nil
}

// CancelOrderRequest voids a whole order.
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}
