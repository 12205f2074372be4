package controllers

import (
	"net/http"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/services"

	"github.com/gin-gonic/gin"
)

// CatalogController serves categories, products and tax rates.
type CatalogController struct {
	catalogService services.CatalogService
}

func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

func (cc *CatalogController) CreateCategory(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req models.CreateCategoryRequest
	if !bindJSON(ctx, &req) {
		return
	}

	category, err := cc.catalogService.CreateCategory(ctx.Request.Context(), actor, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"category": category})
}

func (cc *CatalogController) ListCategories(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}

	categories, err := cc.catalogService.ListCategories(ctx.Request.Context(), actor)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (cc *CatalogController) CreateProduct(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req models.CreateProductRequest
	if !bindJSON(ctx, &req) {
		return
	}

	product, err := cc.catalogService.CreateProduct(ctx.Request.Context(), actor, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"product": product})
}

func (cc *CatalogController) GetProduct(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	product, err := cc.catalogService.GetProduct(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"product": product})
}

// ListProducts handles GET /products?status=&category_id=.
func (cc *CatalogController) ListProducts(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var filter models.ProductFilter
	if s := ctx.Query("status"); s != "" {
		status := models.LifecycleStatus(s)
		filter.Status = &status
	}
	if filter.CategoryID, ok = uuidQuery(ctx, "category_id"); !ok {
		return
	}
	page, limit := parsePaginationParams(ctx)

	products, total, err := cc.catalogService.ListProducts(ctx.Request.Context(), actor, filter, page, limit)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"products": products, "meta": paginationMeta(page, limit, total)})
}

func (cc *CatalogController) UpdateProduct(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req models.UpdateProductRequest
	if !bindJSON(ctx, &req) {
		return
	}

	product, err := cc.catalogService.UpdateProduct(ctx.Request.Context(), actor, id, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"product": product})
}

// ArchiveProduct handles DELETE /products/:id. Existing order lines keep
// their snapshot.
func (cc *CatalogController) ArchiveProduct(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	product, err := cc.catalogService.ArchiveProduct(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"product": product})
}

func (cc *CatalogController) CreateTaxRate(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req models.CreateTaxRateRequest
	if !bindJSON(ctx, &req) {
		return
	}

	rate, err := cc.catalogService.CreateTaxRate(ctx.Request.Context(), actor, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"tax_rate": rate})
}

func (cc *CatalogController) ListTaxRates(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}

	rates, err := cc.catalogService.ListTaxRates(ctx.Request.Context(), actor)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tax_rates": rates})
}
