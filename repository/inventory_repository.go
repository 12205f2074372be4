package repository

import (
	"context"
	"time"

	"pos-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository stores warehouses, stock levels and movement documents.
type InventoryRepository interface {
	CreateWarehouse(ctx context.Context, w *models.Warehouse) error
	FindWarehouse(ctx context.Context, tenantID, id uuid.UUID) (*models.Warehouse, error)
	ListWarehouses(ctx context.Context, tenantID uuid.UUID, filter models.WarehouseFilter) ([]models.Warehouse, error)
	UpdateWarehouseStatus(ctx context.Context, tenantID, id uuid.UUID, status models.LifecycleStatus) error

	FindStockItem(ctx context.Context, tenantID, id uuid.UUID) (*models.StockItem, error)
	ListStockItems(ctx context.Context, tenantID uuid.UUID, filter models.StockFilter, page, limit int) ([]models.StockItem, int64, error)
	UpdateReorderPoint(ctx context.Context, tenantID, id uuid.UUID, reorderPoint int) error
	// LockStockItems row-locks the existing stock rows for keys, in key order,
	// and returns them by key. Missing rows are simply absent from the map.
	LockStockItems(ctx context.Context, tenantID uuid.UUID, keys []models.StockKey) (map[models.StockKey]models.StockItem, error)
	// ApplyStockDelta adds delta to on_hand, creating the row when needed, and
	// returns the row as written.
	ApplyStockDelta(ctx context.Context, tenantID uuid.UUID, delta models.StockDelta) (*models.StockItem, error)

	CreateMovement(ctx context.Context, m *models.InventoryMovement) error
	FindMovement(ctx context.Context, tenantID, id uuid.UUID) (*models.InventoryMovement, error)
	FindMovementForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.InventoryMovement, error)
	ListMovements(ctx context.Context, tenantID uuid.UUID, filter models.MovementFilter, page, limit int) ([]models.InventoryMovement, int64, error)
	UpdateMovement(ctx context.Context, m *models.InventoryMovement) error
	DeleteMovement(ctx context.Context, tenantID, id uuid.UUID) error
}

type GormInventoryRepository struct {
	db *gorm.DB
}

func NewGormInventoryRepository(db *gorm.DB) InventoryRepository {
	return &GormInventoryRepository{db: db}
}

func (r *GormInventoryRepository) CreateWarehouse(ctx context.Context, w *models.Warehouse) error {
	return translate(r.db.WithContext(ctx).Create(w).Error)
}

func (r *GormInventoryRepository) FindWarehouse(ctx context.Context, tenantID, id uuid.UUID) (*models.Warehouse, error) {
	var w models.Warehouse
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&w).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *GormInventoryRepository) ListWarehouses(ctx context.Context, tenantID uuid.UUID, filter models.WarehouseFilter) ([]models.Warehouse, error) {
	var warehouses []models.Warehouse
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if err := query.Order("code ASC").Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (r *GormInventoryRepository) UpdateWarehouseStatus(ctx context.Context, tenantID, id uuid.UUID, status models.LifecycleStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Warehouse{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormInventoryRepository) FindStockItem(ctx context.Context, tenantID, id uuid.UUID) (*models.StockItem, error) {
	var s models.StockItem
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormInventoryRepository) ListStockItems(ctx context.Context, tenantID uuid.UUID, filter models.StockFilter, page, limit int) ([]models.StockItem, int64, error) {
	var items []models.StockItem
	var total int64

	query := r.db.WithContext(ctx).Model(&models.StockItem{}).Where("tenant_id = ?", tenantID)
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.LowStockOnly {
		query = query.Where("reorder_point > 0 AND on_hand <= reorder_point")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.
		Offset(offset(page, limit)).
		Limit(limit).
		Order("warehouse_id ASC, product_id ASC").
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *GormInventoryRepository) UpdateReorderPoint(ctx context.Context, tenantID, id uuid.UUID, reorderPoint int) error {
	res := r.db.WithContext(ctx).
		Model(&models.StockItem{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("reorder_point", reorderPoint)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormInventoryRepository) LockStockItems(ctx context.Context, tenantID uuid.UUID, keys []models.StockKey) (map[models.StockKey]models.StockItem, error) {
	out := make(map[models.StockKey]models.StockItem, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	pairs := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, []interface{}{k.WarehouseID, k.ProductID})
	}

	var items []models.StockItem
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND (warehouse_id, product_id) IN ?", tenantID, pairs).
		Order("warehouse_id ASC, product_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	for _, it := range items {
		out[models.StockKey{WarehouseID: it.WarehouseID, ProductID: it.ProductID}] = it
	}
	return out, nil
}

func (r *GormInventoryRepository) ApplyStockDelta(ctx context.Context, tenantID uuid.UUID, delta models.StockDelta) (*models.StockItem, error) {
	item := models.StockItem{
		ID:          uuid.New(),
		TenantID:    tenantID,
		WarehouseID: delta.WarehouseID,
		ProductID:   delta.ProductID,
		OnHand:      delta.Delta,
	}
	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "warehouse_id"}, {Name: "product_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"on_hand":    gorm.Expr("stock_items.on_hand + EXCLUDED.on_hand"),
					"updated_at": time.Now().UTC(),
				}),
			},
			clause.Returning{},
		).
		Create(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *GormInventoryRepository) CreateMovement(ctx context.Context, m *models.InventoryMovement) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *GormInventoryRepository) FindMovement(ctx context.Context, tenantID, id uuid.UUID) (*models.InventoryMovement, error) {
	var m models.InventoryMovement
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *GormInventoryRepository) FindMovementForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.InventoryMovement, error) {
	var locked models.InventoryMovement
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&locked).Error; err != nil {
		return nil, translate(err)
	}
	return r.FindMovement(ctx, tenantID, id)
}

func (r *GormInventoryRepository) ListMovements(ctx context.Context, tenantID uuid.UUID, filter models.MovementFilter, page, limit int) ([]models.InventoryMovement, int64, error) {
	var movements []models.InventoryMovement
	var total int64

	query := r.db.WithContext(ctx).Model(&models.InventoryMovement{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.WarehouseID != nil {
		query = query.Where("(warehouse_id = ? OR destination_warehouse_id = ?)", *filter.WarehouseID, *filter.WarehouseID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.
		Preload("Lines").
		Offset(offset(page, limit)).
		Limit(limit).
		Order("created_at DESC, id DESC").
		Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// UpdateMovement writes the document's lifecycle columns. Lines never change
// after creation.
func (r *GormInventoryRepository) UpdateMovement(ctx context.Context, m *models.InventoryMovement) error {
	res := r.db.WithContext(ctx).
		Model(m).
		Where("tenant_id = ?", m.TenantID).
		Select("status", "posted_by", "posted_at", "cancelled_by", "cancelled_at", "updated_at").
		Updates(m)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormInventoryRepository) DeleteMovement(ctx context.Context, tenantID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.InventoryMovement{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
