package services

import (
	"context"
	"strings"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService manages categories, products and tax rates.
type CatalogService interface {
	CreateCategory(ctx context.Context, actor models.Actor, req models.CreateCategoryRequest) (*models.Category, error)
	ListCategories(ctx context.Context, actor models.Actor) ([]models.Category, error)

	CreateProduct(ctx context.Context, actor models.Actor, req models.CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, actor models.Actor, filter models.ProductFilter, page, limit int) ([]models.Product, int64, error)
	UpdateProduct(ctx context.Context, actor models.Actor, id uuid.UUID, req models.UpdateProductRequest) (*models.Product, error)
	ArchiveProduct(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Product, error)

	CreateTaxRate(ctx context.Context, actor models.Actor, req models.CreateTaxRateRequest) (*models.TaxRate, error)
	ListTaxRates(ctx context.Context, actor models.Actor) ([]models.TaxRate, error)
}

type catalogServiceImpl struct {
	store  repository.Store
	cache  repository.ProductCache
	logger *zap.Logger
	now    Clock
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(store repository.Store, cache repository.ProductCache, logger *zap.Logger, now Clock) CatalogService {
	return &catalogServiceImpl{store: store, cache: cache, logger: logger, now: clockOrDefault(now)}
}

func (s *catalogServiceImpl) CreateCategory(ctx context.Context, actor models.Actor, req models.CreateCategoryRequest) (*models.Category, error) {
	if err := requireManager(actor, "creating a category"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}

	now := s.now()
	c := &models.Category{
		ID:        uuid.New(),
		TenantID:  actor.TenantID,
		Name:      name,
		Status:    models.LifecycleActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Catalog().CreateCategory(ctx, c); err != nil {
		return nil, repoError(err, "category")
	}
	return c, nil
}

func (s *catalogServiceImpl) ListCategories(ctx context.Context, actor models.Actor) ([]models.Category, error) {
	categories, err := s.store.Catalog().ListCategories(ctx, actor.TenantID)
	if err != nil {
		return nil, repoError(err, "categories")
	}
	return categories, nil
}

func (s *catalogServiceImpl) CreateProduct(ctx context.Context, actor models.Actor, req models.CreateProductRequest) (*models.Product, error) {
	if err := requireManager(actor, "creating a product"); err != nil {
		return nil, err
	}
	if req.PriceCents < 0 {
		return nil, apperrors.Validation("price_cents cannot be negative")
	}

	now := s.now()
	p := &models.Product{
		ID:         uuid.New(),
		TenantID:   actor.TenantID,
		CategoryID: req.CategoryID,
		Name:       strings.TrimSpace(req.Name),
		SKU:        strings.TrimSpace(req.SKU),
		PriceCents: req.PriceCents,
		Status:     models.LifecycleActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.Name == "" || p.SKU == "" {
		return nil, apperrors.Validation("name and sku are required")
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if p.CategoryID != nil {
			if _, err := tx.Catalog().FindCategory(ctx, actor.TenantID, *p.CategoryID); err != nil {
				return repoError(err, "category")
			}
		}
		if err := tx.Catalog().CreateProduct(ctx, p); err != nil {
			if err = repoError(err, "product"); apperrors.Is(err, apperrors.KindConflict) {
				return apperrors.Conflict("sku %s already exists", p.SKU)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.String("product_id", p.ID.String()), zap.String("sku", p.SKU))
	return p, nil
}

func (s *catalogServiceImpl) GetProduct(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Product, error) {
	p, err := s.store.Catalog().FindProduct(ctx, actor.TenantID, id)
	if err != nil {
		return nil, repoError(err, "product")
	}
	return p, nil
}

func (s *catalogServiceImpl) ListProducts(ctx context.Context, actor models.Actor, filter models.ProductFilter, page, limit int) ([]models.Product, int64, error) {
	products, total, err := s.store.Catalog().ListProducts(ctx, actor.TenantID, filter, page, limit)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, 0, repoError(err, "products")
	}
	return products, total, nil
}

func (s *catalogServiceImpl) UpdateProduct(ctx context.Context, actor models.Actor, id uuid.UUID, req models.UpdateProductRequest) (*models.Product, error) {
	if err := requireManager(actor, "updating a product"); err != nil {
		return nil, err
	}
	if req.PriceCents != nil && *req.PriceCents < 0 {
		return nil, apperrors.Validation("price_cents cannot be negative")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperrors.Validation("name cannot be empty")
	}

	return s.mutateProduct(ctx, actor, id, func(tx repository.Store, p *models.Product) error {
		if req.CategoryID != nil {
			if _, err := tx.Catalog().FindCategory(ctx, actor.TenantID, *req.CategoryID); err != nil {
				return repoError(err, "category")
			}
			p.CategoryID = req.CategoryID
		}
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.PriceCents != nil {
			p.PriceCents = *req.PriceCents
		}
		return nil
	})
}

// ArchiveProduct hides a product from new order lines. Existing lines keep
// their snapshot.
func (s *catalogServiceImpl) ArchiveProduct(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Product, error) {
	if err := requireManager(actor, "archiving a product"); err != nil {
		return nil, err
	}
	return s.mutateProduct(ctx, actor, id, func(_ repository.Store, p *models.Product) error {
		p.Status = models.LifecycleArchived
		return nil
	})
}

func (s *catalogServiceImpl) mutateProduct(ctx context.Context, actor models.Actor, id uuid.UUID, fn func(tx repository.Store, p *models.Product) error) (*models.Product, error) {
	var product *models.Product
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		p, err := tx.Catalog().FindProduct(ctx, actor.TenantID, id)
		if err != nil {
			return repoError(err, "product")
		}
		if err := fn(tx, p); err != nil {
			return err
		}
		p.UpdatedAt = s.now()
		if err := tx.Catalog().UpdateProduct(ctx, p); err != nil {
			return repoError(err, "product")
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, actor.TenantID, id); err != nil {
			s.logger.Warn("Failed to invalidate product cache", zap.String("product_id", id.String()), zap.Error(err))
		}
	}
	s.logger.Info("Product updated", zap.String("product_id", id.String()), zap.String("status", string(product.Status)))
	return product, nil
}

func (s *catalogServiceImpl) CreateTaxRate(ctx context.Context, actor models.Actor, req models.CreateTaxRateRequest) (*models.TaxRate, error) {
	if err := requireManager(actor, "creating a tax rate"); err != nil {
		return nil, err
	}
	if req.Rate.IsNegative() || req.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, apperrors.Validation("rate must be between 0 and 1")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}

	now := s.now()
	rate := &models.TaxRate{
		ID:        uuid.New(),
		TenantID:  actor.TenantID,
		Name:      name,
		Rate:      req.Rate,
		IsDefault: req.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if rate.IsDefault {
			if err := tx.Catalog().ClearDefaultTaxRate(ctx, actor.TenantID); err != nil {
				return repoError(err, "tax rate")
			}
		}
		return repoError(tx.Catalog().CreateTaxRate(ctx, rate), "tax rate")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tax rate created",
		zap.String("tax_rate_id", rate.ID.String()),
		zap.String("rate", rate.Rate.String()),
		zap.Bool("default", rate.IsDefault),
	)
	return rate, nil
}

func (s *catalogServiceImpl) ListTaxRates(ctx context.Context, actor models.Actor) ([]models.TaxRate, error) {
	rates, err := s.store.Catalog().ListTaxRates(ctx, actor.TenantID)
	if err != nil {
		return nil, repoError(err, "tax rates")
	}
	return rates, nil
}
