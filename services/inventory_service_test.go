package services_test

import (
	"testing"

	apperrors "pos-service/common/errors"
	"pos-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) warehouse(t *testing.T, code string) *models.Warehouse {
	t.Helper()
	w, err := f.inventory.CreateWarehouse(f.ctx, f.manager, models.CreateWarehouseRequest{Name: code + " store", Code: code})
	require.NoError(t, err)
	return w
}

func (f *fixture) draft(t *testing.T, typ models.MovementType, warehouseID uuid.UUID, dest *uuid.UUID, lines ...models.MovementLineRequest) *models.InventoryMovement {
	t.Helper()
	m, err := f.inventory.CreateMovement(f.ctx, f.cashier, models.CreateMovementRequest{
		Type:                   typ,
		WarehouseID:            warehouseID,
		DestinationWarehouseID: dest,
		Lines:                  lines,
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) post(t *testing.T, typ models.MovementType, warehouseID uuid.UUID, dest *uuid.UUID, lines ...models.MovementLineRequest) *models.InventoryMovement {
	t.Helper()
	m := f.draft(t, typ, warehouseID, dest, lines...)
	posted, err := f.inventory.PostMovement(f.ctx, f.manager, m.ID)
	require.NoError(t, err)
	return posted
}

// onHand returns zero when no stock row exists yet.
func (f *fixture) onHand(t *testing.T, warehouseID, productID uuid.UUID) int {
	t.Helper()
	item := f.stockItem(t, warehouseID, productID)
	if item == nil {
		return 0
	}
	return item.OnHand
}

func (f *fixture) stockItem(t *testing.T, warehouseID, productID uuid.UUID) *models.StockItem {
	t.Helper()
	items, _, err := f.inventory.ListStock(f.ctx, f.cashier, models.StockFilter{WarehouseID: &warehouseID, ProductID: &productID}, 1, 10)
	require.NoError(t, err)
	if len(items) == 0 {
		return nil
	}
	require.Len(t, items, 1)
	return &items[0]
}

func line(productID uuid.UUID, qty int) models.MovementLineRequest {
	return models.MovementLineRequest{ProductID: productID, Quantity: qty}
}

func TestInventoryService_ReceiptDeliveryTransferLifecycle(t *testing.T) {
	f := newFixture(t)
	back := f.warehouse(t, "main")
	bar := f.warehouse(t, "bar")
	p := f.newProduct(t, 300, nil)

	receipt := f.post(t, models.MovementTypeReceipt, back.ID, nil, line(p.ID, 10))
	assert.Equal(t, models.MovementStatusPosted, receipt.Status)
	assert.Equal(t, f.manager.UserID, *receipt.PostedBy)
	assert.Equal(t, 10, f.onHand(t, back.ID, p.ID))

	f.post(t, models.MovementTypeDelivery, back.ID, nil, line(p.ID, 4))
	assert.Equal(t, 6, f.onHand(t, back.ID, p.ID))

	transfer := f.post(t, models.MovementTypeTransfer, back.ID, &bar.ID, line(p.ID, 5))
	assert.Equal(t, 1, f.onHand(t, back.ID, p.ID))
	assert.Equal(t, 5, f.onHand(t, bar.ID, p.ID))

	cancelled, err := f.inventory.CancelMovement(f.ctx, f.manager, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusCancelled, cancelled.Status)
	assert.Equal(t, 6, f.onHand(t, back.ID, p.ID))
	assert.Equal(t, 0, f.onHand(t, bar.ID, p.ID))

	posted := eventsOfKind(f.outbox(t), models.EventMovementPosted)
	assert.Len(t, posted, 3)
	reversals := eventsOfKind(f.outbox(t), models.EventMovementCancelled)
	require.Len(t, reversals, 1)
	assert.Len(t, reversals[0].Payload.Movement.Deltas, 2)
}

func TestInventoryService_PostDelivery_ChecksAggregatedLines(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	p := f.newProduct(t, 300, nil)
	other := f.newProduct(t, 100, nil)
	f.post(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 5), line(other.ID, 5))

	m := f.draft(t, models.MovementTypeDelivery, w.ID, nil, line(other.ID, 2), line(p.ID, 3), line(p.ID, 3))
	_, err := f.inventory.PostMovement(f.ctx, f.manager, m.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInsufficientResource, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "available 5, required 6")

	assert.Equal(t, 5, f.onHand(t, w.ID, p.ID))
	assert.Equal(t, 5, f.onHand(t, w.ID, other.ID))
	got, err := f.inventory.GetMovement(f.ctx, f.cashier, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusDraft, got.Status)
}

func TestInventoryService_PostMovement_OnlyDraft(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	p := f.newProduct(t, 300, nil)
	m := f.post(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 2))

	_, err := f.inventory.PostMovement(f.ctx, f.manager, m.ID)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
	assert.Equal(t, 2, f.onHand(t, w.ID, p.ID))
}

func TestInventoryService_ManagerOnlyTransitions(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	p := f.newProduct(t, 300, nil)
	m := f.draft(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 2))

	_, err := f.inventory.PostMovement(f.ctx, f.cashier, m.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	_, err = f.inventory.CancelMovement(f.ctx, f.cashier, m.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	_, err = f.inventory.CreateWarehouse(f.ctx, f.cashier, models.CreateWarehouseRequest{Name: "Back", Code: "back"})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestInventoryService_CancelDraftLeavesStock(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	p := f.newProduct(t, 300, nil)
	m := f.draft(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 2))

	cancelled, err := f.inventory.CancelMovement(f.ctx, f.manager, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusCancelled, cancelled.Status)
	assert.Nil(t, f.stockItem(t, w.ID, p.ID))

	_, err = f.inventory.CancelMovement(f.ctx, f.manager, m.ID)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestInventoryService_CancelReceiptAfterConsumption(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	p := f.newProduct(t, 300, nil)
	receipt := f.post(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 10))
	f.post(t, models.MovementTypeDelivery, w.ID, nil, line(p.ID, 8))

	_, err := f.inventory.CancelMovement(f.ctx, f.manager, receipt.ID)
	assert.Equal(t, apperrors.KindInsufficientResource, apperrors.KindOf(err))
	assert.Equal(t, 2, f.onHand(t, w.ID, p.ID))

	got, err := f.inventory.GetMovement(f.ctx, f.cashier, receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MovementStatusPosted, got.Status)
}

func TestInventoryService_AdjustmentIsSigned(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	p := f.newProduct(t, 300, nil)
	f.post(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 5))

	adj := f.post(t, models.MovementTypeAdjustment, w.ID, nil, line(p.ID, -2))
	assert.Equal(t, 3, f.onHand(t, w.ID, p.ID))

	_, err := f.inventory.CancelMovement(f.ctx, f.manager, adj.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, f.onHand(t, w.ID, p.ID))
}

func TestInventoryService_DeleteMovement(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	p := f.newProduct(t, 300, nil)

	draft := f.draft(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 1))
	require.NoError(t, f.inventory.DeleteMovement(f.ctx, f.cashier, draft.ID))
	_, err := f.inventory.GetMovement(f.ctx, f.cashier, draft.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	posted := f.post(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 1))
	err = f.inventory.DeleteMovement(f.ctx, f.cashier, posted.ID)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestInventoryService_LowStockEvent(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	p := f.newProduct(t, 300, nil)
	f.post(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 10))

	item := f.stockItem(t, w.ID, p.ID)
	require.NotNil(t, item)
	_, err := f.inventory.UpdateStockItem(f.ctx, f.cashier, item.ID, models.UpdateStockItemRequest{ReorderPoint: 5})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	updated, err := f.inventory.UpdateStockItem(f.ctx, f.manager, item.ID, models.UpdateStockItemRequest{ReorderPoint: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.ReorderPoint)

	f.post(t, models.MovementTypeDelivery, w.ID, nil, line(p.ID, 6))

	low := eventsOfKind(f.outbox(t), models.EventLowStock)
	require.Len(t, low, 1)
	assert.Equal(t, 4, low[0].Payload.LowStock.OnHand)
	assert.Equal(t, p.ID, low[0].Payload.LowStock.ProductID)

	lowOnly, total, err := f.inventory.ListStock(f.ctx, f.cashier, models.StockFilter{LowStockOnly: true}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, item.ID, lowOnly[0].ID)
}

func TestInventoryService_CreateMovement_Validation(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	other := f.warehouse(t, "bar")
	p := f.newProduct(t, 300, nil)

	tests := []struct {
		name string
		req  models.CreateMovementRequest
		kind apperrors.Kind
	}{
		{
			name: "no lines",
			req:  models.CreateMovementRequest{Type: models.MovementTypeReceipt, WarehouseID: w.ID},
			kind: apperrors.KindValidation,
		},
		{
			name: "non positive receipt",
			req:  models.CreateMovementRequest{Type: models.MovementTypeReceipt, WarehouseID: w.ID, Lines: []models.MovementLineRequest{line(p.ID, -1)}},
			kind: apperrors.KindValidation,
		},
		{
			name: "zero adjustment",
			req:  models.CreateMovementRequest{Type: models.MovementTypeAdjustment, WarehouseID: w.ID, Lines: []models.MovementLineRequest{line(p.ID, 0)}},
			kind: apperrors.KindValidation,
		},
		{
			name: "transfer without destination",
			req:  models.CreateMovementRequest{Type: models.MovementTypeTransfer, WarehouseID: w.ID, Lines: []models.MovementLineRequest{line(p.ID, 1)}},
			kind: apperrors.KindValidation,
		},
		{
			name: "transfer to itself",
			req:  models.CreateMovementRequest{Type: models.MovementTypeTransfer, WarehouseID: w.ID, DestinationWarehouseID: &w.ID, Lines: []models.MovementLineRequest{line(p.ID, 1)}},
			kind: apperrors.KindValidation,
		},
		{
			name: "destination on receipt",
			req:  models.CreateMovementRequest{Type: models.MovementTypeReceipt, WarehouseID: w.ID, DestinationWarehouseID: &other.ID, Lines: []models.MovementLineRequest{line(p.ID, 1)}},
			kind: apperrors.KindValidation,
		},
		{
			name: "unknown warehouse",
			req:  models.CreateMovementRequest{Type: models.MovementTypeReceipt, WarehouseID: uuid.New(), Lines: []models.MovementLineRequest{line(p.ID, 1)}},
			kind: apperrors.KindNotFound,
		},
		{
			name: "unknown product",
			req:  models.CreateMovementRequest{Type: models.MovementTypeReceipt, WarehouseID: w.ID, Lines: []models.MovementLineRequest{line(uuid.New(), 1)}},
			kind: apperrors.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.inventory.CreateMovement(f.ctx, f.cashier, tt.req)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}
}

func TestInventoryService_ArchivedWarehouseRejectsMovements(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	p := f.newProduct(t, 300, nil)
	require.NoError(t, f.inventory.ArchiveWarehouse(f.ctx, f.manager, w.ID))

	_, err := f.inventory.CreateMovement(f.ctx, f.cashier, models.CreateMovementRequest{
		Type:        models.MovementTypeReceipt,
		WarehouseID: w.ID,
		Lines:       []models.MovementLineRequest{line(p.ID, 1)},
	})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestInventoryService_CreateWarehouse_DuplicateCode(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	assert.Equal(t, "MAIN", w.Code)

	_, err := f.inventory.CreateWarehouse(f.ctx, f.manager, models.CreateWarehouseRequest{Name: "Other", Code: "Main"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestInventoryService_ListMovements_Filters(t *testing.T) {
	f := newFixture(t)
	w := f.warehouse(t, "main")
	p := f.newProduct(t, 300, nil)
	f.draft(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 1))
	f.post(t, models.MovementTypeReceipt, w.ID, nil, line(p.ID, 1))

	status := models.MovementStatusDraft
	drafts, total, err := f.inventory.ListMovements(f.ctx, f.cashier, models.MovementFilter{Status: &status}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, drafts, 1)
	assert.Len(t, drafts[0].Lines, 1)
}
