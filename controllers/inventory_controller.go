package controllers

import (
	"net/http"
	"strconv"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/services"

	"github.com/gin-gonic/gin"
)

// InventoryController serves warehouses, stock levels and movements.
type InventoryController struct {
	inventoryService services.InventoryService
}

// NewInventoryController creates a new InventoryController.
func NewInventoryController(inventoryService services.InventoryService) *InventoryController {
	return &InventoryController{inventoryService: inventoryService}
}

func (ic *InventoryController) CreateWarehouse(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req models.CreateWarehouseRequest
	if !bindJSON(ctx, &req) {
		return
	}

	warehouse, err := ic.inventoryService.CreateWarehouse(ctx.Request.Context(), actor, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"warehouse": warehouse})
}

func (ic *InventoryController) GetWarehouse(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	warehouse, err := ic.inventoryService.GetWarehouse(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"warehouse": warehouse})
}

func (ic *InventoryController) ListWarehouses(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var filter models.WarehouseFilter
	if s := ctx.Query("status"); s != "" {
		status := models.LifecycleStatus(s)
		filter.Status = &status
	}

	warehouses, err := ic.inventoryService.ListWarehouses(ctx.Request.Context(), actor, filter)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"warehouses": warehouses})
}

func (ic *InventoryController) ArchiveWarehouse(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	if err := ic.inventoryService.ArchiveWarehouse(ctx.Request.Context(), actor, id); err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Warehouse archived successfully"})
}

// ListStock handles GET /stock?warehouse_id=&product_id=&low_stock=true.
func (ic *InventoryController) ListStock(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var filter models.StockFilter
	if filter.WarehouseID, ok = uuidQuery(ctx, "warehouse_id"); !ok {
		return
	}
	if filter.ProductID, ok = uuidQuery(ctx, "product_id"); !ok {
		return
	}
	if raw := ctx.Query("low_stock"); raw != "" {
		lowOnly, err := strconv.ParseBool(raw)
		if err != nil {
			apperrors.HandleGin(ctx, apperrors.Validation("low_stock must be a boolean"))
			return
		}
		filter.LowStockOnly = lowOnly
	}
	page, limit := parsePaginationParams(ctx)

	items, total, err := ic.inventoryService.ListStock(ctx.Request.Context(), actor, filter, page, limit)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"stock_items": items, "meta": paginationMeta(page, limit, total)})
}

func (ic *InventoryController) UpdateStockItem(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req models.UpdateStockItemRequest
	if !bindJSON(ctx, &req) {
		return
	}

	item, err := ic.inventoryService.UpdateStockItem(ctx.Request.Context(), actor, id, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"stock_item": item})
}

func (ic *InventoryController) CreateMovement(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req models.CreateMovementRequest
	if !bindJSON(ctx, &req) {
		return
	}

	movement, err := ic.inventoryService.CreateMovement(ctx.Request.Context(), actor, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"movement": movement})
}

func (ic *InventoryController) GetMovement(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	movement, err := ic.inventoryService.GetMovement(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"movement": movement})
}

// ListMovements handles GET /movements?status=&type=&warehouse_id=.
func (ic *InventoryController) ListMovements(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var filter models.MovementFilter
	if s := ctx.Query("status"); s != "" {
		status := models.MovementStatus(s)
		filter.Status = &status
	}
	if t := ctx.Query("type"); t != "" {
		movementType := models.MovementType(t)
		filter.Type = &movementType
	}
	if filter.WarehouseID, ok = uuidQuery(ctx, "warehouse_id"); !ok {
		return
	}
	page, limit := parsePaginationParams(ctx)

	movements, total, err := ic.inventoryService.ListMovements(ctx.Request.Context(), actor, filter, page, limit)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"movements": movements, "meta": paginationMeta(page, limit, total)})
}

// DeleteMovement handles DELETE /movements/:id. Only drafts can be deleted.
func (ic *InventoryController) DeleteMovement(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	if err := ic.inventoryService.DeleteMovement(ctx.Request.Context(), actor, id); err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Movement deleted successfully"})
}

func (ic *InventoryController) PostMovement(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	movement, err := ic.inventoryService.PostMovement(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"movement": movement})
}

func (ic *InventoryController) CancelMovement(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	movement, err := ic.inventoryService.CancelMovement(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"movement": movement})
}
