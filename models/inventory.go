package models

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a tenant-scoped stock location.
type Warehouse struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_warehouses_tenant_code" json:"tenant_id"`
	Name      string          `gorm:"type:varchar(120);not null" json:"name"`
	Code      string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_warehouses_tenant_code" json:"code"`
	Status    LifecycleStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// StockItem holds the quantity of one product in one warehouse.
type StockItem struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	WarehouseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_items_warehouse_product" json:"warehouse_id"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_items_warehouse_product" json:"product_id"`
	OnHand       int       `gorm:"not null;default:0" json:"on_hand"`
	Reserved     int       `gorm:"not null;default:0" json:"reserved"`
	ReorderPoint int       `gorm:"not null;default:0" json:"reorder_point"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Available is on hand minus reserved.
func (s StockItem) Available() int {
	return s.OnHand - s.Reserved
}

// IsLowStock is true when a reorder point is set and on hand has reached it.
func (s StockItem) IsLowStock() bool {
	return s.ReorderPoint > 0 && s.OnHand <= s.ReorderPoint
}

// StockKey identifies a StockItem row.
type StockKey struct {
	WarehouseID uuid.UUID `json:"warehouse_id"`
	ProductID   uuid.UUID `json:"product_id"`
}

// StockDelta is a signed change to apply to one StockItem.
type StockDelta struct {
	StockKey
	Delta int `json:"delta"`
}

// MovementType says how line quantities translate into stock deltas.
type MovementType string

const (
	MovementTypeReceipt    MovementType = "RECEIPT"
	MovementTypeDelivery   MovementType = "DELIVERY"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	MovementTypeTransfer   MovementType = "TRANSFER"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeReceipt, MovementTypeDelivery, MovementTypeAdjustment, MovementTypeTransfer:
		return true
	}
	return false
}

// ChecksAvailability reports whether applying or reversing a movement of this
// type must keep on-hand stock from going negative. Adjustments are unchecked.
func (t MovementType) ChecksAvailability() bool {
	return t != MovementTypeAdjustment
}

// MovementStatus is the document lifecycle of an inventory movement.
type MovementStatus string

const (
	MovementStatusDraft     MovementStatus = "DRAFT"
	MovementStatusPosted    MovementStatus = "POSTED"
	MovementStatusCancelled MovementStatus = "CANCELLED"
)

// InventoryMovement is a stock document. Stock changes only on DRAFT->POSTED
// and is reversed on POSTED->CANCELLED.
type InventoryMovement struct {
	ID                     uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID               uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	WarehouseID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	DestinationWarehouseID *uuid.UUID     `gorm:"type:uuid" json:"destination_warehouse_id,omitempty"`
	Type                   MovementType   `gorm:"type:varchar(20);not null" json:"type"`
	Status                 MovementStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Reference              string         `gorm:"type:varchar(120)" json:"reference,omitempty"`
	Notes                  string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy              uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	PostedBy               *uuid.UUID     `gorm:"type:uuid" json:"posted_by,omitempty"`
	PostedAt               *time.Time     `json:"posted_at,omitempty"`
	CancelledBy            *uuid.UUID     `gorm:"type:uuid" json:"cancelled_by,omitempty"`
	CancelledAt            *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt              time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Lines []InventoryMovementLine `gorm:"foreignKey:MovementID;constraint:OnDelete:CASCADE" json:"lines"`
}

// InventoryMovementLine is one product quantity on a movement.
type InventoryMovementLine struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null" json:"tenant_id"`
	MovementID uuid.UUID `gorm:"type:uuid;not null;index" json:"movement_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity   int       `gorm:"not null" json:"quantity"`
}

// PostingDeltas returns the stock changes that posting the movement applies.
func (m *InventoryMovement) PostingDeltas() []StockDelta {
	deltas := make([]StockDelta, 0, len(m.Lines)*2)
	for _, l := range m.Lines {
		switch m.Type {
		case MovementTypeReceipt:
			deltas = append(deltas, StockDelta{StockKey{m.WarehouseID, l.ProductID}, l.Quantity})
		case MovementTypeDelivery:
			deltas = append(deltas, StockDelta{StockKey{m.WarehouseID, l.ProductID}, -absInt(l.Quantity)})
		case MovementTypeAdjustment:
			deltas = append(deltas, StockDelta{StockKey{m.WarehouseID, l.ProductID}, l.Quantity})
		case MovementTypeTransfer:
			q := absInt(l.Quantity)
			deltas = append(deltas, StockDelta{StockKey{m.WarehouseID, l.ProductID}, -q})
			if m.DestinationWarehouseID != nil {
				deltas = append(deltas, StockDelta{StockKey{*m.DestinationWarehouseID, l.ProductID}, q})
			}
		}
	}
	return deltas
}

// ReversalDeltas negates PostingDeltas.
func (m *InventoryMovement) ReversalDeltas() []StockDelta {
	deltas := m.PostingDeltas()
	for i := range deltas {
		deltas[i].Delta = -deltas[i].Delta
	}
	return deltas
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// WarehouseFilter narrows ListWarehouses.
type WarehouseFilter struct {
	Status *LifecycleStatus
}

// StockFilter narrows ListStockItems.
type StockFilter struct {
	WarehouseID  *uuid.UUID
	ProductID    *uuid.UUID
	LowStockOnly bool
}

// MovementFilter narrows ListMovements.
type MovementFilter struct {
	Status      *MovementStatus
	Type        *MovementType
	WarehouseID *uuid.UUID
}

// CreateWarehouseRequest is the payload for creating a warehouse.
type CreateWarehouseRequest struct {
	Name string `json:"name" binding:"required,min=1,max=120"`
	Code string `json:"code" binding:"required,min=1,max=32"`
}

// UpdateStockItemRequest changes stock settings that do not move quantity.
type UpdateStockItemRequest struct {
	ReorderPoint int `json:"reorder_point" binding:"gte=0"`
}

// MovementLineRequest is one line of a new movement.
type MovementLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required"`
}

// CreateMovementRequest creates a DRAFT movement.
type CreateMovementRequest struct {
	Type                   MovementType          `json:"type" binding:"required,oneof=RECEIPT DELIVERY ADJUSTMENT TRANSFER"`
	WarehouseID            uuid.UUID             `json:"warehouse_id" binding:"required"`
	DestinationWarehouseID *uuid.UUID            `json:"destination_warehouse_id"`
	Reference              string                `json:"reference" binding:"max=120"`
	Notes                  string                `json:"notes" binding:"max=1000"`
	Lines                  []MovementLineRequest `json:"lines" binding:"required,min=1,dive"`
}
