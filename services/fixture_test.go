package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"pos-service/models"
	"pos-service/repository"
	"pos-service/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Clock ---

// fakeClock advances one second on every read so timestamps are ordered.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *fakeClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// --- Product cache ---

type fakeCache struct {
	mu          sync.Mutex
	products    map[uuid.UUID]models.Product
	hits        int
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{products: map[uuid.UUID]models.Product{}}
}

func (c *fakeCache) Get(_ context.Context, tenantID, productID uuid.UUID) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[productID]
	if !ok || p.TenantID != tenantID {
		return nil, nil
	}
	c.hits++
	return &p, nil
}

func (c *fakeCache) Set(_ context.Context, p *models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = *p
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, _, productID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, productID)
	c.invalidated = append(c.invalidated, productID)
	return nil
}

// --- Fixture ---

type fixture struct {
	ctx       context.Context
	store     *repository.MemoryStore
	clock     *fakeClock
	cache     *fakeCache
	orders    services.OrderService
	discounts services.DiscountService
	catalog   services.CatalogService
	inventory services.InventoryService
	cash      services.CashSessionService

	tenant  uuid.UUID
	manager models.Actor
	cashier models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := newFakeClock()
	cache := newFakeCache()
	logger := zap.NewNop()
	tenant := uuid.New()

	return &fixture{
		ctx:       context.Background(),
		store:     store,
		clock:     clock,
		cache:     cache,
		orders:    services.NewOrderService(store, cache, nil, "USD", logger, clock.Now),
		discounts: services.NewDiscountService(store, logger, clock.Now),
		catalog:   services.NewCatalogService(store, cache, logger, clock.Now),
		inventory: services.NewInventoryService(store, logger, clock.Now),
		cash:      services.NewCashSessionService(store, logger, clock.Now),
		tenant:    tenant,
		manager:   models.Actor{TenantID: tenant, UserID: uuid.New(), Role: models.RoleManager},
		cashier:   models.Actor{TenantID: tenant, UserID: uuid.New(), Role: models.RoleCashier},
	}
}

func (f *fixture) withTaxRate(t *testing.T, rate string) {
	t.Helper()
	_, err := f.catalog.CreateTaxRate(f.ctx, f.manager, models.CreateTaxRateRequest{
		Name:      "VAT",
		Rate:      decimal.RequireFromString(rate),
		IsDefault: true,
	})
	require.NoError(t, err)
}

func (f *fixture) newProduct(t *testing.T, priceCents int64, categoryID *uuid.UUID) *models.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(f.ctx, f.manager, models.CreateProductRequest{
		Name:       "Product " + uuid.NewString()[:8],
		SKU:        "SKU-" + uuid.NewString()[:8],
		PriceCents: priceCents,
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) newOrder(t *testing.T) *models.Order {
	t.Helper()
	o, err := f.orders.CreateOrder(f.ctx, f.cashier, models.CreateOrderRequest{})
	require.NoError(t, err)
	return o
}

func (f *fixture) addItem(t *testing.T, orderID, productID uuid.UUID, qty int) *models.Order {
	t.Helper()
	o, err := f.orders.AddItem(f.ctx, f.cashier, orderID, models.AddItemRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
	return o
}

// orderWithItems opens an order holding qty units of a new product.
func (f *fixture) orderWithItems(t *testing.T, priceCents int64, qty int) *models.Order {
	t.Helper()
	p := f.newProduct(t, priceCents, nil)
	o := f.newOrder(t)
	return f.addItem(t, o.ID, p.ID, qty)
}

func (f *fixture) outbox(t *testing.T) []models.OutboxEvent {
	t.Helper()
	events, err := f.store.Outbox().FetchUnpublished(f.ctx, 1000)
	require.NoError(t, err)
	return events
}

func eventsOfKind(events []models.OutboxEvent, kind models.EventKind) []models.OutboxEvent {
	var out []models.OutboxEvent
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }
