package repository

import (
	"context"
	"strings"

	"pos-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiscountRepository defines the interface for discount catalog data access.
type DiscountRepository interface {
	Create(ctx context.Context, d *models.Discount) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Discount, error)
	// FindByCode matches case-insensitively.
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Discount, error)
	List(ctx context.Context, tenantID uuid.UUID, filter models.DiscountFilter, page, limit int) ([]models.Discount, int64, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.DiscountStatus) error
	// IncrementUsage bumps usage_count unless max_usage_count is reached, in
	// which case it returns ErrUsageLimitReached.
	IncrementUsage(ctx context.Context, tenantID, id uuid.UUID) error
	// DecrementUsage lowers usage_count, never below zero.
	DecrementUsage(ctx context.Context, tenantID, id uuid.UUID) error
}

// GormDiscountRepository implements DiscountRepository using GORM.
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewGormDiscountRepository creates a new GormDiscountRepository.
func NewGormDiscountRepository(db *gorm.DB) DiscountRepository {
	return &GormDiscountRepository{db: db}
}

func (r *GormDiscountRepository) Create(ctx context.Context, d *models.Discount) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

func (r *GormDiscountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Discount, error) {
	var d models.Discount
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *GormDiscountRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Discount, error) {
	var d models.Discount
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(code) = ?", tenantID, strings.ToLower(code)).
		First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// List retrieves paginated discounts, newest first.
func (r *GormDiscountRepository) List(ctx context.Context, tenantID uuid.UUID, filter models.DiscountFilter, page, limit int) ([]models.Discount, int64, error) {
	var discounts []models.Discount
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Discount{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Offset(offset(page, limit)).
		Limit(limit).
		Order("created_at DESC, id DESC").
		Find(&discounts).Error; err != nil {
		return nil, 0, err
	}

	return discounts, total, nil
}

func (r *GormDiscountRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status models.DiscountStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Discount{}).
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

func (r *GormDiscountRepository) IncrementUsage(ctx context.Context, tenantID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Discount{}).
		Where("tenant_id = ? AND id = ? AND (max_usage_count IS NULL OR usage_count < max_usage_count)", tenantID, id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUsageLimitReached
	}
	return nil
}

func (r *GormDiscountRepository) DecrementUsage(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Discount{}).
		Where("tenant_id = ? AND id = ? AND usage_count > 0", tenantID, id).
		UpdateColumn("usage_count", gorm.Expr("usage_count - 1")).
		Error
}
