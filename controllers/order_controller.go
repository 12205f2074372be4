package controllers

import (
	"context"
	"net/http"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderController handles HTTP requests for the order engine.
type OrderController struct {
	orderService services.OrderService
}

// NewOrderController creates a new OrderController.
func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder handles POST /orders.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req models.CreateOrderRequest
	if ctx.Request.ContentLength > 0 && !bindJSON(ctx, &req) {
		return
	}

	order, err := oc.orderService.CreateOrder(ctx.Request.Context(), actor, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"order": order})
}

// GetOrder handles GET /orders/:id.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	order, err := oc.orderService.GetOrder(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// ListOrders handles GET /orders?status=&table_id=.
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var filter models.OrderFilter
	if s := ctx.Query("status"); s != "" {
		status := models.OrderStatus(s)
		filter.Status = &status
	}
	if filter.TableID, ok = uuidQuery(ctx, "table_id"); !ok {
		return
	}
	page, limit := parsePaginationParams(ctx)

	orders, total, err := oc.orderService.ListOrders(ctx.Request.Context(), actor, filter, page, limit)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"orders": orders, "meta": paginationMeta(page, limit, total)})
}

// AddItem handles POST /orders/:id/items.
func (oc *OrderController) AddItem(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req models.AddItemRequest
	if !bindJSON(ctx, &req) {
		return
	}

	order, err := oc.orderService.AddItem(ctx.Request.Context(), actor, id, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"order": order})
}

// PatchItem handles PATCH /orders/:id/items/:itemId.
func (oc *OrderController) PatchItem(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(ctx, "itemId")
	if !ok {
		return
	}
	var req models.PatchItemRequest
	if !bindJSON(ctx, &req) {
		return
	}

	order, err := oc.orderService.PatchItem(ctx.Request.Context(), actor, id, itemID, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// SendToKitchen handles POST /orders/:id/send.
func (oc *OrderController) SendToKitchen(ctx *gin.Context) {
	oc.transition(ctx, oc.orderService.SendToKitchen)
}

// RequestBill handles POST /orders/:id/bill.
func (oc *OrderController) RequestBill(ctx *gin.Context) {
	oc.transition(ctx, oc.orderService.RequestBill)
}

func (oc *OrderController) transition(ctx *gin.Context, fn func(context.Context, models.Actor, uuid.UUID) (*models.Order, error)) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}

	order, err := fn(ctx.Request.Context(), actor, id)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// ApplyDiscount handles POST /orders/:id/discounts.
func (oc *OrderController) ApplyDiscount(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req models.ApplyDiscountRequest
	if !bindJSON(ctx, &req) {
		return
	}

	order, err := oc.orderService.ApplyDiscount(ctx.Request.Context(), actor, id, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"order": order})
}

// RemoveDiscount handles DELETE /orders/:id/discounts/:appliedId.
func (oc *OrderController) RemoveDiscount(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	appliedID, ok := uuidParam(ctx, "appliedId")
	if !ok {
		return
	}

	order, err := oc.orderService.RemoveDiscount(ctx.Request.Context(), actor, id, appliedID)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// Pay handles POST /orders/:id/payments. Paying a PAID order returns it with
// a null payment.
func (oc *OrderController) Pay(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req models.PayRequest
	if !bindJSON(ctx, &req) {
		return
	}

	order, payment, err := oc.orderService.Pay(ctx.Request.Context(), actor, id, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	status := http.StatusCreated
	if payment == nil {
		status = http.StatusOK
	}
	ctx.JSON(status, gin.H{"order": order, "payment": payment})
}

// CancelOrder handles POST /orders/:id/cancel (manager only).
func (oc *OrderController) CancelOrder(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := uuidParam(ctx, "id")
	if !ok {
		return
	}
	var req models.CancelOrderRequest
	if ctx.Request.ContentLength > 0 && !bindJSON(ctx, &req) {
		return
	}

	order, err := oc.orderService.CancelOrder(ctx.Request.Context(), actor, id, req)
	if err != nil {
		apperrors.HandleGin(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}
