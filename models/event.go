package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names an outbox event type. The value is also the SNS message
// attribute consumers filter on.
type EventKind string

const (
	EventOrderStatusChanged EventKind = "order.status_changed"
	EventMovementPosted     EventKind = "inventory.movement_posted"
	EventMovementCancelled  EventKind = "inventory.movement_cancelled"
	EventLowStock           EventKind = "inventory.low_stock"
	EventCashSessionClosed  EventKind = "cash_session.closed"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and relayed to subscribers afterwards.
type OutboxEvent struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Kind        EventKind    `gorm:"type:varchar(64);not null" json:"kind"`
	AggregateID uuid.UUID    `gorm:"type:uuid;not null" json:"aggregate_id"`
	Payload     EventPayload `gorm:"type:jsonb;serializer:json" json:"payload"`
	Attempts    int          `gorm:"not null;default:0" json:"attempts"`
	LastError   string       `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;index:idx_outbox_unpublished,where:published_at IS NULL" json:"created_at"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
}

// EventPayload holds exactly one variant, selected by the event kind.
type EventPayload struct {
	OrderStatusChanged *OrderStatusChangedPayload `json:"order_status_changed,omitempty"`
	Movement           *MovementEventPayload      `json:"movement,omitempty"`
	LowStock           *LowStockPayload           `json:"low_stock,omitempty"`
	CashSessionClosed  *CashSessionClosedPayload  `json:"cash_session_closed,omitempty"`
}

type OrderStatusChangedPayload struct {
	OrderID    uuid.UUID   `json:"order_id"`
	From       OrderStatus `json:"from"`
	To         OrderStatus `json:"to"`
	TotalCents int64       `json:"total_cents"`
	ActorID    uuid.UUID   `json:"actor_id"`
}

type MovementEventPayload struct {
	MovementID  uuid.UUID      `json:"movement_id"`
	Type        MovementType   `json:"type"`
	WarehouseID uuid.UUID      `json:"warehouse_id"`
	Deltas      []StockDelta   `json:"deltas"`
	Status      MovementStatus `json:"status"`
	ActorID     uuid.UUID      `json:"actor_id"`
}

type LowStockPayload struct {
	WarehouseID  uuid.UUID `json:"warehouse_id"`
	ProductID    uuid.UUID `json:"product_id"`
	OnHand       int       `json:"on_hand"`
	ReorderPoint int       `json:"reorder_point"`
}

type CashSessionClosedPayload struct {
	SessionID           uuid.UUID `json:"session_id"`
	ExpectedCashCents   int64     `json:"expected_cash_cents"`
	ClosingCashCents    int64     `json:"closing_cash_cents"`
	CashDifferenceCents int64     `json:"cash_difference_cents"`
	ClosedBy            uuid.UUID `json:"closed_by"`
}

// NewOrderStatusChangedEvent records an order moving from one status to another.
func NewOrderStatusChangedEvent(o *Order, from OrderStatus, actorID uuid.UUID, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:          uuid.New(),
		TenantID:    o.TenantID,
		Kind:        EventOrderStatusChanged,
		AggregateID: o.ID,
		CreatedAt:   at,
		Payload: EventPayload{OrderStatusChanged: &OrderStatusChangedPayload{
			OrderID:    o.ID,
			From:       from,
			To:         o.Status,
			TotalCents: o.TotalCents,
			ActorID:    actorID,
		}},
	}
}

// NewMovementEvent records a posting or cancellation with the deltas it applied.
func NewMovementEvent(kind EventKind, m *InventoryMovement, deltas []StockDelta, actorID uuid.UUID, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:          uuid.New(),
		TenantID:    m.TenantID,
		Kind:        kind,
		AggregateID: m.ID,
		CreatedAt:   at,
		Payload: EventPayload{Movement: &MovementEventPayload{
			MovementID:  m.ID,
			Type:        m.Type,
			WarehouseID: m.WarehouseID,
			Deltas:      deltas,
			Status:      m.Status,
			ActorID:     actorID,
		}},
	}
}

func NewLowStockEvent(s *StockItem, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:          uuid.New(),
		TenantID:    s.TenantID,
		Kind:        EventLowStock,
		AggregateID: s.ID,
		CreatedAt:   at,
		Payload: EventPayload{LowStock: &LowStockPayload{
			WarehouseID:  s.WarehouseID,
			ProductID:    s.ProductID,
			OnHand:       s.OnHand,
			ReorderPoint: s.ReorderPoint,
		}},
	}
}

func NewCashSessionClosedEvent(cs *CashSession, at time.Time) *OutboxEvent {
	p := &CashSessionClosedPayload{SessionID: cs.ID}
	if cs.ExpectedCashCents != nil {
		p.ExpectedCashCents = *cs.ExpectedCashCents
	}
	if cs.ClosingCashCents != nil {
		p.ClosingCashCents = *cs.ClosingCashCents
	}
	if cs.CashDifferenceCents != nil {
		p.CashDifferenceCents = *cs.CashDifferenceCents
	}
	if cs.ClosedBy != nil {
		p.ClosedBy = *cs.ClosedBy
	}
	return &OutboxEvent{
		ID:          uuid.New(),
		TenantID:    cs.TenantID,
		Kind:        EventCashSessionClosed,
		AggregateID: cs.ID,
		CreatedAt:   at,
		Payload:     EventPayload{CashSessionClosed: p},
	}
}
