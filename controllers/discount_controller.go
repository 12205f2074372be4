package controllers

import (
	"net/http"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/services"

	"github.com/gin-gonic/gin"
)

// DiscountController handles HTTP requests for the discount catalog.
type DiscountController struct {
	discountService services.DiscountService
}

// NewDiscountController creates a new DiscountController.
func NewDiscountController(discountService services.DiscountService) *DiscountController {
	return &DiscountController{discountService: discountService}
}

// CreateDiscount handles POST /discounts (manager only).
func (dc *DiscountController) CreateDiscount(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req models.CreateDiscountRequest
	if !bindJSON(ctx, &req) {
		return
	}

	discount, err := dc.discountService.CreateDiscount(ctx.Request.Context(), actor, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"discount": discount})
}

// GetDiscount handles GET /discounts/:id.
func (dc *DiscountController) GetDiscount(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	discount, err := dc.discountService.GetDiscount(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"discount": discount})
}

// ListDiscounts handles GET /discounts?status=.
func (dc *DiscountController) ListDiscounts(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var filter models.DiscountFilter
	if s := ctx.Query("status"); s != "" {
		status := models.DiscountStatus(s)
		filter.Status = &status
	}
	page, limit := parsePaginationParams(ctx)

	discounts, total, err := dc.discountService.ListDiscounts(ctx.Request.Context(), actor, filter, page, limit)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"discounts": discounts, "meta": paginationMeta(page, limit, total)})
}

// ArchiveDiscount handles DELETE /discounts/:id. Discounts are archived, never removed.
func (dc *DiscountController) ArchiveDiscount(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	if err := dc.discountService.ArchiveDiscount(ctx.Request.Context(), actor, id); err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Discount archived successfully"})
}
