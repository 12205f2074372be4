package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos-service/controllers"
	"pos-service/models"
	"pos-service/repository"
	"pos-service/routes"
	"pos-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Helpers ---

type testServer struct {
	router  *gin.Engine
	manager models.Actor
	cashier models.Actor
}

// setupRouter wires every route against real services on the memory store.
func setupRouter(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	logger := zap.NewNop()

	r := gin.New()
	routes.RegisterOrderRoutes(r, controllers.NewOrderController(
		services.NewOrderService(store, nil, nil, "USD", logger, nil)))
	routes.RegisterDiscountRoutes(r, controllers.NewDiscountController(
		services.NewDiscountService(store, logger, nil)))
	routes.RegisterCatalogRoutes(r, controllers.NewCatalogController(
		services.NewCatalogService(store, nil, logger, nil)))
	routes.RegisterInventoryRoutes(r, controllers.NewInventoryController(
		services.NewInventoryService(store, logger, nil)))
	routes.RegisterCashSessionRoutes(r, controllers.NewCashSessionController(
		services.NewCashSessionService(store, logger, nil)))

	tenant := uuid.New()
	return &testServer{
		router:  r,
		manager: models.Actor{TenantID: tenant, UserID: uuid.New(), Role: models.RoleManager},
		cashier: models.Actor{TenantID: tenant, UserID: uuid.New(), Role: models.RoleCashier},
	}
}

func (s *testServer) do(t *testing.T, actor *models.Actor, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("X-Tenant-ID", actor.TenantID.String())
		req.Header.Set("X-User-ID", actor.UserID.String())
		req.Header.Set("X-User-Role", string(actor.Role))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (s *testServer) createProduct(t *testing.T, priceCents int64) string {
	t.Helper()
	w, resp := s.do(t, &s.manager, http.MethodPost, "/products", gin.H{
		"name": "Espresso", "sku": "ESP-" + uuid.NewString()[:6], "price_cents": priceCents,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp["product"].(map[string]any)["id"].(string)
}

func (s *testServer) createOrder(t *testing.T) string {
	t.Helper()
	w, resp := s.do(t, &s.cashier, http.MethodPost, "/orders", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return resp["order"].(map[string]any)["id"].(string)
}

// --- Tests ---

func TestController_OrderLifecycle(t *testing.T) {
	s := setupRouter(t)
	productID := s.createProduct(t, 1000)
	orderID := s.createOrder(t)

	w, resp := s.do(t, &s.cashier, http.MethodPost, "/orders/"+orderID+"/items", gin.H{
		"product_id": productID, "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := resp["order"].(map[string]any)
	assert.Equal(t, float64(2000), order["total_cents"])

	w, resp = s.do(t, &s.cashier, http.MethodPost, "/orders/"+orderID+"/send", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "IN_KITCHEN", resp["order"].(map[string]any)["status"])

	w, resp = s.do(t, &s.cashier, http.MethodPost, "/orders/"+orderID+"/payments", gin.H{
		"provider": "CASH", "amount_cents": 2500,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "PAID", resp["order"].(map[string]any)["status"])
	payment := resp["payment"].(map[string]any)
	assert.Equal(t, float64(2000), payment["amount_cents"])
	cash := payment["metadata"].(map[string]any)["cash"].(map[string]any)
	assert.Equal(t, float64(500), cash["change_due_cents"])

	// Paying again is a no-op.
	w, resp = s.do(t, &s.cashier, http.MethodPost, "/orders/"+orderID+"/payments", gin.H{"provider": "CARD"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, resp["payment"])

	w, _ = s.do(t, &s.cashier, http.MethodPost, "/orders/"+orderID+"/items", gin.H{
		"product_id": productID, "quantity": 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestController_Auth(t *testing.T) {
	s := setupRouter(t)

	w, _ := s.do(t, nil, http.MethodGet, "/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	unknown := s.cashier
	unknown.Role = "JANITOR"
	w, _ = s.do(t, &unknown, http.MethodGet, "/orders", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, &s.cashier, http.MethodPost, "/products", gin.H{"name": "x", "sku": "x", "price_cents": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestController_CancelOrder_ManagerOnly(t *testing.T) {
	s := setupRouter(t)
	orderID := s.createOrder(t)

	w, _ := s.do(t, &s.cashier, http.MethodPost, "/orders/"+orderID+"/cancel", gin.H{"reason": "mistake"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := s.do(t, &s.manager, http.MethodPost, "/orders/"+orderID+"/cancel", gin.H{"reason": "mistake"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CANCELLED", resp["order"].(map[string]any)["status"])
}

func TestController_RequestErrors(t *testing.T) {
	s := setupRouter(t)
	orderID := s.createOrder(t)

	tests := []struct {
		name      string
		method    string
		path      string
		body      any
		wantCode  int
		wantError string
	}{
		{"malformed id", http.MethodGet, "/orders/not-a-uuid", nil, http.StatusBadRequest, "validation_error"},
		{"unknown order", http.MethodGet, "/orders/" + uuid.NewString(), nil, http.StatusNotFound, "not_found"},
		{"quantity out of range", http.MethodPost, "/orders/" + orderID + "/items", gin.H{"product_id": uuid.NewString(), "quantity": 0}, http.StatusBadRequest, "validation_error"},
		{"unknown product", http.MethodPost, "/orders/" + orderID + "/items", gin.H{"product_id": uuid.NewString(), "quantity": 1}, http.StatusNotFound, "not_found"},
		{"unknown provider", http.MethodPost, "/orders/" + orderID + "/payments", gin.H{"provider": "BITCOIN"}, http.StatusBadRequest, "validation_error"},
		{"send empty order", http.MethodPost, "/orders/" + orderID + "/send", nil, http.StatusBadRequest, "validation_error"},
		{"malformed table filter", http.MethodGet, "/orders?table_id=abc", nil, http.StatusBadRequest, "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := s.do(t, &s.cashier, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantError, resp["error"])
		})
	}
}

func TestController_BindFailureUsesErrorEnvelope(t *testing.T) {
	s := setupRouter(t)
	orderID := s.createOrder(t)

	w, resp := s.do(t, &s.cashier, http.MethodPost, "/orders/"+orderID+"/items", gin.H{"quantity": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", resp["error"])
	assert.Contains(t, resp["message"], "Invalid request")
	assert.NotContains(t, resp, "details")
}

func TestController_ListOrders_Pagination(t *testing.T) {
	s := setupRouter(t)
	for i := 0; i < 3; i++ {
		s.createOrder(t)
	}

	w, resp := s.do(t, &s.cashier, http.MethodGet, "/orders?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp["orders"], 2)
	meta := resp["meta"].(map[string]any)
	assert.Equal(t, float64(3), meta["total"])
	assert.Equal(t, float64(2), meta["total_pages"])
	assert.Equal(t, true, meta["has_more"])

	w, resp = s.do(t, &s.cashier, http.MethodGet, "/orders?status=PAID", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["orders"])
}

func TestController_DiscountApplyByCode(t *testing.T) {
	s := setupRouter(t)
	productID := s.createProduct(t, 1000)
	orderID := s.createOrder(t)
	s.do(t, &s.cashier, http.MethodPost, "/orders/"+orderID+"/items", gin.H{"product_id": productID, "quantity": 2})

	w, _ := s.do(t, &s.manager, http.MethodPost, "/discounts", gin.H{
		"name": "Ten off", "code": "ten", "type": "PERCENTAGE", "value": 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, resp := s.do(t, &s.cashier, http.MethodPost, "/orders/"+orderID+"/discounts", gin.H{"code": "TEN"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := resp["order"].(map[string]any)
	assert.Equal(t, float64(200), order["discount_cents"])
	assert.Equal(t, float64(1800), order["total_cents"])

	applied := order["discounts"].([]any)[0].(map[string]any)
	w, resp = s.do(t, &s.cashier, http.MethodDelete, "/orders/"+orderID+"/discounts/"+applied["id"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2000), resp["order"].(map[string]any)["total_cents"])
}

func TestController_MovementShortfall(t *testing.T) {
	s := setupRouter(t)
	productID := s.createProduct(t, 500)

	w, resp := s.do(t, &s.manager, http.MethodPost, "/warehouses", gin.H{"name": "Bar", "code": "BAR"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	warehouseID := resp["warehouse"].(map[string]any)["id"].(string)

	w, resp = s.do(t, &s.cashier, http.MethodPost, "/movements", gin.H{
		"type": "DELIVERY", "warehouse_id": warehouseID,
		"lines": []gin.H{{"product_id": productID, "quantity": 5}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	movementID := resp["movement"].(map[string]any)["id"].(string)

	w, _ = s.do(t, &s.cashier, http.MethodPost, "/movements/"+movementID+"/post", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = s.do(t, &s.manager, http.MethodPost, "/movements/"+movementID+"/post", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "insufficient_resource", resp["error"])

	w, resp = s.do(t, &s.manager, http.MethodGet, "/stock?warehouse_id="+warehouseID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["stock_items"])

	w, _ = s.do(t, &s.manager, http.MethodGet, "/stock?low_stock=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestController_CashSession(t *testing.T) {
	s := setupRouter(t)

	w, _ := s.do(t, &s.cashier, http.MethodGet, "/cash-sessions/current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp := s.do(t, &s.cashier, http.MethodPost, "/cash-sessions", gin.H{"opening_cash_cents": 10000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sessionID := resp["cash_session"].(map[string]any)["id"].(string)

	w, _ = s.do(t, &s.cashier, http.MethodPost, "/cash-sessions", gin.H{"opening_cash_cents": 500})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp = s.do(t, &s.cashier, http.MethodGet, "/cash-sessions/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sessionID, resp["cash_session"].(map[string]any)["id"])

	w, resp = s.do(t, &s.cashier, http.MethodPost, "/cash-sessions/current/close", gin.H{"closing_cash_cents": 9950})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	closed := resp["cash_session"].(map[string]any)
	assert.Equal(t, "CLOSED", closed["status"])
	assert.Equal(t, float64(10000), closed["expected_cash_cents"])
	assert.Equal(t, float64(-50), closed["cash_difference_cents"])

	w, resp = s.do(t, &s.cashier, http.MethodGet, "/cash-sessions/"+sessionID+"/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(0), resp["summary"].(map[string]any)["paid_orders"])
}
