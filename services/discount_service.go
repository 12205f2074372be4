package services

import (
	"context"
	"strings"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DiscountService manages the tenant discount catalog.
type DiscountService interface {
	CreateDiscount(ctx context.Context, actor models.Actor, req models.CreateDiscountRequest) (*models.Discount, error)
	GetDiscount(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Discount, error)
	ListDiscounts(ctx context.Context, actor models.Actor, filter models.DiscountFilter, page, limit int) ([]models.Discount, int64, error)
	ArchiveDiscount(ctx context.Context, actor models.Actor, id uuid.UUID) error
}

type discountServiceImpl struct {
	store  repository.Store
	logger *zap.Logger
	now    Clock
}

// NewDiscountService creates a new DiscountService.
func NewDiscountService(store repository.Store, logger *zap.Logger, now Clock) DiscountService {
	return &discountServiceImpl{store: store, logger: logger, now: clockOrDefault(now)}
}

func (s *discountServiceImpl) CreateDiscount(ctx context.Context, actor models.Actor, req models.CreateDiscountRequest) (*models.Discount, error) {
	if err := requireManager(actor, "creating a discount"); err != nil {
		return nil, err
	}
	if req.Scope == "" {
		req.Scope = models.DiscountScopeOrder
	}
	if err := validateDiscount(req); err != nil {
		return nil, err
	}

	now := s.now()
	d := &models.Discount{
		ID:            uuid.New(),
		TenantID:      actor.TenantID,
		Name:          strings.TrimSpace(req.Name),
		Type:          req.Type,
		Value:         req.Value,
		Scope:         req.Scope,
		MinOrderCents: req.MinOrderCents,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
		MaxUsageCount: req.MaxUsageCount,
		Status:        models.DiscountStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if code := strings.ToUpper(strings.TrimSpace(req.Code)); code != "" {
		d.Code = &code
	}
	if d.Type == models.DiscountTypeBOGO {
		d.Value = 0
	}
	switch d.Scope {
	case models.DiscountScopeCategory:
		d.CategoryIDs = req.CategoryIDs
	case models.DiscountScopeProduct:
		d.ProductIDs = req.ProductIDs
	}

	if err := s.store.Discounts().Create(ctx, d); err != nil {
		if err = repoError(err, "discount"); apperrors.Is(err, apperrors.KindConflict) {
			return nil, apperrors.Conflict("discount code already exists")
		}
		s.logger.Error("Failed to create discount", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Discount created",
		zap.String("discount_id", d.ID.String()),
		zap.String("type", string(d.Type)),
		zap.String("scope", string(d.Scope)),
	)
	return d, nil
}

func validateDiscount(req models.CreateDiscountRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.Validation("name is required")
	}
	if !req.Type.Valid() {
		return apperrors.Validation("unknown discount type %q", req.Type)
	}
	if !req.Scope.Valid() {
		return apperrors.Validation("unknown discount scope %q", req.Scope)
	}
	switch req.Type {
	case models.DiscountTypePercentage:
		if req.Value < 1 || req.Value > 10000 {
			return apperrors.Validation("percentage value must be between 1 and 10000 basis points")
		}
	case models.DiscountTypeFixed:
		if req.Value <= 0 {
			return apperrors.Validation("fixed value must be positive")
		}
	}
	if req.Scope == models.DiscountScopeCategory && len(req.CategoryIDs) == 0 {
		return apperrors.Validation("category_ids are required for CATEGORY scope")
	}
	if req.Scope == models.DiscountScopeProduct && len(req.ProductIDs) == 0 {
		return apperrors.Validation("product_ids are required for PRODUCT scope")
	}
	if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		return apperrors.Validation("ends_at must be after starts_at")
	}
	if req.MinOrderCents < 0 {
		return apperrors.Validation("min_order_cents cannot be negative")
	}
	if req.MaxUsageCount != nil && *req.MaxUsageCount < 1 {
		return apperrors.Validation("max_usage_count must be at least 1")
	}
	return nil
}

func (s *discountServiceImpl) GetDiscount(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.Discount, error) {
	d, err := s.store.Discounts().FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, repoError(err, "discount")
	}
	return d, nil
}

func (s *discountServiceImpl) ListDiscounts(ctx context.Context, actor models.Actor, filter models.DiscountFilter, page, limit int) ([]models.Discount, int64, error) {
	discounts, total, err := s.store.Discounts().List(ctx, actor.TenantID, filter, page, limit)
	if err != nil {
		s.logger.Error("Failed to list discounts", zap.Error(err))
		return nil, 0, repoError(err, "discounts")
	}
	return discounts, total, nil
}

// ArchiveDiscount retires a discount. Already applied amounts stay frozen on
// their orders.
func (s *discountServiceImpl) ArchiveDiscount(ctx context.Context, actor models.Actor, id uuid.UUID) error {
	if err := requireManager(actor, "archiving a discount"); err != nil {
		return err
	}
	if err := s.store.Discounts().UpdateStatus(ctx, actor.TenantID, id, models.DiscountStatusArchived); err != nil {
		return repoError(err, "discount")
	}
	s.logger.Info("Discount archived", zap.String("discount_id", id.String()))
	return nil
}
