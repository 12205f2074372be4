package repository

import (
	"context"

	"pos-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository stores categories, products and tax rates.
type CatalogRepository interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	FindCategory(ctx context.Context, tenantID, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context, tenantID uuid.UUID) ([]models.Category, error)

	CreateProduct(ctx context.Context, p *models.Product) error
	FindProduct(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	ListProducts(ctx context.Context, tenantID uuid.UUID, filter models.ProductFilter, page, limit int) ([]models.Product, int64, error)

	CreateTaxRate(ctx context.Context, r *models.TaxRate) error
	ClearDefaultTaxRate(ctx context.Context, tenantID uuid.UUID) error
	// FindDefaultTaxRate returns ErrNotFound when the tenant has no default.
	FindDefaultTaxRate(ctx context.Context, tenantID uuid.UUID) (*models.TaxRate, error)
	ListTaxRates(ctx context.Context, tenantID uuid.UUID) ([]models.TaxRate, error)
}

type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *GormCatalogRepository) FindCategory(ctx context.Context, tenantID, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormCatalogRepository) ListCategories(ctx context.Context, tenantID uuid.UUID) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormCatalogRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormCatalogRepository) FindProduct(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormCatalogRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(p).
		Where("tenant_id = ?", p.TenantID).
		Select("name", "price_cents", "category_id", "status", "updated_at").
		Updates(p)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormCatalogRepository) ListProducts(ctx context.Context, tenantID uuid.UUID, filter models.ProductFilter, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.
		Offset(offset(page, limit)).
		Limit(limit).
		Order("name ASC, id ASC").
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *GormCatalogRepository) CreateTaxRate(ctx context.Context, rate *models.TaxRate) error {
	return translate(r.db.WithContext(ctx).Create(rate).Error)
}

func (r *GormCatalogRepository) ClearDefaultTaxRate(ctx context.Context, tenantID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TaxRate{}).
		Where("tenant_id = ? AND is_default = ?", tenantID, true).
		Update("is_default", false).
		Error
}

func (r *GormCatalogRepository) FindDefaultTaxRate(ctx context.Context, tenantID uuid.UUID) (*models.TaxRate, error) {
	var rate models.TaxRate
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_default = ?", tenantID, true).
		Order("created_at DESC").
		First(&rate).Error; err != nil {
		return nil, translate(err)
	}
	return &rate, nil
}

func (r *GormCatalogRepository) ListTaxRates(ctx context.Context, tenantID uuid.UUID) ([]models.TaxRate, error) {
	var rates []models.TaxRate
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}
