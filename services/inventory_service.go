package services

import (
	"context"
	"sort"
	"strings"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService owns warehouses, stock levels and the movement ledger.
type InventoryService interface {
	CreateWarehouse(ctx context.Context, actor models.Actor, req models.CreateWarehouseRequest) (*models.Warehouse, error)
	GetWarehouse(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Warehouse, error)
	ListWarehouses(ctx context.Context, actor models.Actor, filter models.WarehouseFilter) ([]models.Warehouse, error)
	ArchiveWarehouse(ctx context.Context, actor models.Actor, id uuid.UUID) error

	ListStock(ctx context.Context, actor models.Actor, filter models.StockFilter, page, limit int) ([]models.StockItem, int64, error)
	UpdateStockItem(ctx context.Context, actor models.Actor, id uuid.UUID, req models.UpdateStockItemRequest) (*models.StockItem, error)

	CreateMovement(ctx context.Context, actor models.Actor, req models.CreateMovementRequest) (*models.InventoryMovement, error)
	GetMovement(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.InventoryMovement, error)
	ListMovements(ctx context.Context, actor models.Actor, filter models.MovementFilter, page, limit int) ([]models.InventoryMovement, int64, error)
	DeleteMovement(ctx context.Context, actor models.Actor, id uuid.UUID) error
	PostMovement(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.InventoryMovement, error)
	CancelMovement(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.InventoryMovement, error)
}

type inventoryServiceImpl struct {
	store  repository.Store
	logger *zap.Logger
	now    Clock
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(store repository.Store, logger *zap.Logger, now Clock) InventoryService {
	return &inventoryServiceImpl{store: store, logger: logger, now: clockOrDefault(now)}
}

func (s *inventoryServiceImpl) CreateWarehouse(ctx context.Context, actor models.Actor, req models.CreateWarehouseRequest) (*models.Warehouse, error) {
	if err := requireManager(actor, "creating a warehouse"); err != nil {
		return nil, err
	}
	name, code := strings.TrimSpace(req.Name), strings.ToUpper(strings.TrimSpace(req.Code))
	if name == "" || code == "" {
		return nil, apperrors.Validation("name and code are required")
	}

	now := s.now()
	w := &models.Warehouse{
		ID:        uuid.New(),
		TenantID:  actor.TenantID,
		Name:      name,
		Code:      code,
		Status:    models.LifecycleActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Inventory().CreateWarehouse(ctx, w); err != nil {
		if err = repoError(err, "warehouse"); apperrors.Is(err, apperrors.KindConflict) {
			return nil, apperrors.Conflict("warehouse code %s already exists", code)
		}
		return nil, err
	}
	s.logger.Info("Warehouse created", zap.String("warehouse_id", w.ID.String()), zap.String("code", w.Code))
	return w, nil
}

func (s *inventoryServiceImpl) GetWarehouse(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Warehouse, error) {
	w, err := s.store.Inventory().FindWarehouse(ctx, actor.TenantID, id)
	if err != nil {
		return nil, repoError(err, "warehouse")
	}
	return w, nil
}

func (s *inventoryServiceImpl) ListWarehouses(ctx context.Context, actor models.Actor, filter models.WarehouseFilter) ([]models.Warehouse, error) {
	warehouses, err := s.store.Inventory().ListWarehouses(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, repoError(err, "warehouses")
	}
	return warehouses, nil
}

func (s *inventoryServiceImpl) ArchiveWarehouse(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := requireManager(actor, "archiving a warehouse"); err != nil {
		return err
	}
	if err := s.store.Inventory().UpdateWarehouseStatus(ctx, actor.TenantID, id, models.LifecycleArchived); err != nil {
		return repoError(err, "warehouse")
	}
	s.logger.Info("Warehouse archived", zap.String("warehouse_id", id.String()))
	return nil
}

func (s *inventoryServiceImpl) ListStock(ctx context.Context, actor models.Actor, filter models.StockFilter, page, limit int) ([]models.StockItem, int64, error) {
	items, total, err := s.store.Inventory().ListStockItems(ctx, actor.TenantID, filter, page, limit)
	if err != nil {
		s.logger.Error("Failed to list stock", zap.Error(err))
		return nil, 0, repoError(err, "stock")
	}
	return items, total, nil
}

func (s *inventoryServiceImpl) UpdateStockItem(ctx context.Context, actor models.Actor, id uuid.UUID, req models.UpdateStockItemRequest) (*models.StockItem, error) {
	if err := requireManager(actor, "changing stock settings"); err != nil {
		return nil, err
	}
	if req.ReorderPoint < 0 {
		return nil, apperrors.Validation("reorder_point cannot be negative")
	}

	var item *models.StockItem
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Inventory().UpdateReorderPoint(ctx, actor.TenantID, id, req.ReorderPoint); err != nil {
			return repoError(err, "stock item")
		}
		found, err := tx.Inventory().FindStockItem(ctx, actor.TenantID, id)
		if err != nil {
			return repoError(err, "stock item")
		}
		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inventoryServiceImpl) CreateMovement(ctx context.Context, actor models.Actor, req models.CreateMovementRequest) (*models.InventoryMovement, error) {
	if err := validateMovement(req); err != nil {
		return nil, err
	}

	now := s.now()
	m := &models.InventoryMovement{
		ID:                     uuid.New(),
		TenantID:               actor.TenantID,
		WarehouseID:            req.WarehouseID,
		DestinationWarehouseID: req.DestinationWarehouseID,
		Type:                   req.Type,
		Status:                 models.MovementStatusDraft,
		Reference:              strings.TrimSpace(req.Reference),
		Notes:                  req.Notes,
		CreatedBy:              actor.UserID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	for _, l := range req.Lines {
		m.Lines = append(m.Lines, models.InventoryMovementLine{
			ID:         uuid.New(),
			TenantID:   actor.TenantID,
			MovementID: m.ID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
		})
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		warehouses := []uuid.UUID{m.WarehouseID}
		if m.DestinationWarehouseID != nil {
			warehouses = append(warehouses, *m.DestinationWarehouseID)
		}
		for _, id := range warehouses {
			w, err := tx.Inventory().FindWarehouse(ctx, actor.TenantID, id)
			if err != nil {
				return repoError(err, "warehouse")
			}
			if w.Status != models.LifecycleActive {
				return apperrors.Validation("warehouse %s is archived", w.Code)
			}
		}
		seen := make(map[uuid.UUID]bool, len(m.Lines))
		for _, l := range m.Lines {
			if seen[l.ProductID] {
				continue
			}
			seen[l.ProductID] = true
			if _, err := tx.Catalog().FindProduct(ctx, actor.TenantID, l.ProductID); err != nil {
				return repoError(err, "product")
			}
		}
		return repoError(tx.Inventory().CreateMovement(ctx, m), "movement")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Movement drafted",
		zap.String("movement_id", m.ID.String()),
		zap.String("type", string(m.Type)),
		zap.Int("lines", len(m.Lines)),
	)
	return m, nil
}

func validateMovement(req models.CreateMovementRequest) error {
	if !req.Type.Valid() {
		return apperrors.Validation("unknown movement type %q", req.Type)
	}
	if len(req.Lines) == 0 {
		return apperrors.Validation("a movement needs at least one line")
	}
	for i, l := range req.Lines {
		if l.ProductID == uuid.Nil {
			return apperrors.Validation("line %d: product_id is required", i+1)
		}
		if req.Type == models.MovementTypeAdjustment {
			if l.Quantity == 0 {
				return apperrors.Validation("line %d: adjustment quantity cannot be zero", i+1)
			}
		} else if l.Quantity <= 0 {
			return apperrors.Validation("line %d: quantity must be positive", i+1)
		}
	}
	if req.Type == models.MovementTypeTransfer {
		if req.DestinationWarehouseID == nil {
			return apperrors.Validation("destination_warehouse_id is required for TRANSFER")
		}
		if *req.DestinationWarehouseID == req.WarehouseID {
			return apperrors.Validation("destination warehouse must differ from the source")
		}
	} else if req.DestinationWarehouseID != nil {
		return apperrors.Validation("destination_warehouse_id is only allowed for TRANSFER")
	}
	return nil
}

func (s *inventoryServiceImpl) GetMovement(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.InventoryMovement, error) {
	m, err := s.store.Inventory().FindMovement(ctx, actor.TenantID, id)
	if err != nil {
		return nil, repoError(err, "movement")
	}
	return m, nil
}

func (s *inventoryServiceImpl) ListMovements(ctx context.Context, actor models.Actor, filter models.MovementFilter, page, limit int) ([]models.InventoryMovement, int64, error) {
	movements, total, err := s.store.Inventory().ListMovements(ctx, actor.TenantID, filter, page, limit)
	if err != nil {
		s.logger.Error("Failed to list movements", zap.Error(err))
		return nil, 0, repoError(err, "movements")
	}
	return movements, total, nil
}

func (s *inventoryServiceImpl) DeleteMovement(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		m, err := tx.Inventory().FindMovementForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return repoError(err, "movement")
		}
		if m.Status != models.MovementStatusDraft {
			return apperrors.Conflict("only DRAFT movements can be deleted")
		}
		return repoError(tx.Inventory().DeleteMovement(ctx, actor.TenantID, id), "movement")
	})
}

// PostMovement applies the movement's deltas. Either every line is applied or
// none is.
func (s *inventoryServiceImpl) PostMovement(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.InventoryMovement, error) {
	if err := requireManager(actor, "posting a movement"); err != nil {
		return nil, err
	}

	var movement *models.InventoryMovement
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		m, err := tx.Inventory().FindMovementForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return repoError(err, "movement")
		}
		if m.Status != models.MovementStatusDraft {
			return apperrors.Conflict("movement is %s", m.Status)
		}

		deltas := m.PostingDeltas()
		touched, err := s.applyDeltas(ctx, tx, actor.TenantID, deltas, m.Type.ChecksAvailability())
		if err != nil {
			return err
		}

		now := s.now()
		m.Status = models.MovementStatusPosted
		m.PostedBy = &actor.UserID
		m.PostedAt = &now
		m.UpdatedAt = now
		if err := tx.Inventory().UpdateMovement(ctx, m); err != nil {
			return repoError(err, "movement")
		}

		events := []*models.OutboxEvent{models.NewMovementEvent(models.EventMovementPosted, m, deltas, actor.UserID, now)}
		for i := range touched {
			if touched[i].IsLowStock() {
				events = append(events, models.NewLowStockEvent(&touched[i], now))
			}
		}
		if err := tx.Outbox().Append(ctx, events...); err != nil {
			return repoError(err, "movement event")
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Movement posted",
		zap.String("movement_id", movement.ID.String()),
		zap.String("type", string(movement.Type)),
	)
	return movement, nil
}

// CancelMovement cancels a DRAFT without touching stock, or reverses a POSTED
// movement exactly.
func (s *inventoryServiceImpl) CancelMovement(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.InventoryMovement, error) {
	if err := requireManager(actor, "cancelling a movement"); err != nil {
		return nil, err
	}

	var movement *models.InventoryMovement
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		m, err := tx.Inventory().FindMovementForUpdate(ctx, actor.TenantID, id)
		if err != nil {
			return repoError(err, "movement")
		}

		var deltas []models.StockDelta
		switch m.Status {
		case models.MovementStatusDraft:
		case models.MovementStatusPosted:
			deltas = m.ReversalDeltas()
			if _, err := s.applyDeltas(ctx, tx, actor.TenantID, deltas, m.Type.ChecksAvailability()); err != nil {
				return err
			}
		default:
			return apperrors.Conflict("movement is %s", m.Status)
		}

		now := s.now()
		m.Status = models.MovementStatusCancelled
		m.CancelledBy = &actor.UserID
		m.CancelledAt = &now
		m.UpdatedAt = now
		if err := tx.Inventory().UpdateMovement(ctx, m); err != nil {
			return repoError(err, "movement")
		}
		if err := tx.Outbox().Append(ctx, models.NewMovementEvent(models.EventMovementCancelled, m, deltas, actor.UserID, now)); err != nil {
			return repoError(err, "movement event")
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Movement cancelled",
		zap.String("movement_id", movement.ID.String()),
		zap.Bool("reversed", movement.PostedAt != nil),
	)
	return movement, nil
}

// applyDeltas nets deltas per stock key, locks the affected rows in a fixed
// order and applies them. With check set, a key whose net delta would take
// on-hand stock below zero fails the whole call.
func (s *inventoryServiceImpl) applyDeltas(ctx context.Context, tx repository.Store, tenantID uuid.UUID, deltas []models.StockDelta, check bool) ([]models.StockItem, error) {
	net := make(map[models.StockKey]int, len(deltas))
	for _, d := range deltas {
		net[d.StockKey] += d.Delta
	}
	keys := make([]models.StockKey, 0, len(net))
	for k := range net {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].WarehouseID != keys[j].WarehouseID {
			return keys[i].WarehouseID.String() < keys[j].WarehouseID.String()
		}
		return keys[i].ProductID.String() < keys[j].ProductID.String()
	})

	locked, err := tx.Inventory().LockStockItems(ctx, tenantID, keys)
	if err != nil {
		return nil, repoError(err, "stock")
	}
	if check {
		for _, k := range keys {
			required := -net[k]
			if required <= 0 {
				continue
			}
			if available := locked[k].OnHand; available < required {
				return nil, apperrors.InsufficientResource("insufficient stock for product %s: available %d, required %d", k.ProductID, available, required)
			}
		}
	}

	touched := make([]models.StockItem, 0, len(keys))
	for _, k := range keys {
		if net[k] == 0 {
			continue
		}
		item, err := tx.Inventory().ApplyStockDelta(ctx, tenantID, models.StockDelta{StockKey: k, Delta: net[k]})
		if err != nil {
			return nil, repoError(err, "stock")
		}
		touched = append(touched, *item)
	}
	return touched, nil
}
