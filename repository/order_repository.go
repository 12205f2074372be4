package repository

import (
	"context"
	"time"

	"pos-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository persists the order aggregate. Every method is tenant scoped.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error)
	// FindByIDForUpdate loads the aggregate and row-locks the order until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error)
	FindOpenByTable(ctx context.Context, tenantID, tableID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, filter models.OrderFilter, page, limit int) ([]models.Order, int64, error)
	Update(ctx context.Context, order *models.Order) error

	AddItem(ctx context.Context, item *models.OrderItem) error
	UpdateItem(ctx context.Context, item *models.OrderItem) error
	AddAppliedDiscount(ctx context.Context, d *models.AppliedDiscount) error
	DeleteAppliedDiscount(ctx context.Context, tenantID, orderID, id uuid.UUID) error
	AddPayment(ctx context.Context, p *models.Payment) error

	// SumCapturedPayments totals CAPTURED payments of one provider created in
	// [from, to). A nil to leaves the window open-ended.
	SumCapturedPayments(ctx context.Context, tenantID uuid.UUID, provider models.PaymentProvider, from time.Time, to *time.Time) (int64, error)
	// ListClosedOpenedBetween returns PAID and CANCELLED orders opened in [from, to).
	ListClosedOpenedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Order, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

var orderColumns = []string{
	"status", "subtotal_cents", "discount_cents", "tax_cents", "tip_cents", "total_cents",
	"sent_to_kitchen_at", "closed_at", "cancel_reason", "updated_at",
}

var itemColumns = []string{"quantity", "notes", "status", "updated_at"}

func withAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Discounts", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error)
}

func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := withAggregate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	var locked models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&locked).Error
	if err != nil {
		return nil, translate(err)
	}
	return r.FindByID(ctx, tenantID, id)
}

func (r *GormOrderRepository) FindOpenByTable(ctx context.Context, tenantID, tableID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := withAggregate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND table_id = ? AND status IN ?", tenantID, tableID, models.OpenFamilyStatuses).
		Order("opened_at DESC").
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// List retrieves orders with pagination, newest first
func (r *GormOrderRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.OrderFilter, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.TableID != nil {
		query = query.Where("table_id = ?", *filter.TableID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := withAggregate(query).
		Offset(offset(page, limit)).
		Limit(limit).
		Order("opened_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// Update writes the order's own columns. Children are written through their
// dedicated methods.
func (r *GormOrderRepository) Update(ctx context.Context, order *models.Order) error {
	res := r.db.WithContext(ctx).
		Model(order).
		Where("tenant_id = ?", order.TenantID).
		Select(orderColumns).
		Updates(order)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormOrderRepository) AddItem(ctx context.Context, item *models.OrderItem) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

func (r *GormOrderRepository) UpdateItem(ctx context.Context, item *models.OrderItem) error {
	res := r.db.WithContext(ctx).
		Model(item).
		Where("tenant_id = ? AND order_id = ?", item.TenantID, item.OrderID).
		Select(itemColumns).
		Updates(item)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormOrderRepository) AddAppliedDiscount(ctx context.Context, d *models.AppliedDiscount) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

func (r *GormOrderRepository) DeleteAppliedDiscount(ctx context.Context, tenantID, orderID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ? AND id = ?", tenantID, orderID, id).
		Delete(&models.AppliedDiscount{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormOrderRepository) AddPayment(ctx context.Context, p *models.Payment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormOrderRepository) SumCapturedPayments(ctx context.Context, tenantID uuid.UUID, provider models.PaymentProvider, from time.Time, to *time.Time) (int64, error) {
	var sum int64
	query := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("tenant_id = ? AND provider = ? AND status = ? AND created_at >= ?",
			tenantID, provider, models.PaymentStatusCaptured, from)
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}
	if err := query.Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

func (r *GormOrderRepository) ListClosedOpenedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := withAggregate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND status IN ? AND opened_at >= ? AND opened_at < ?",
			tenantID, []models.OrderStatus{models.OrderStatusPaid, models.OrderStatusCancelled}, from, to).
		Order("opened_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
