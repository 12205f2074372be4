package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pos-service/models"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store. Transactions are serialized on one
// mutex and roll back by restoring a snapshot taken when they began.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memoryData
	inTx bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.Mutex{}, data: newMemoryData()}
}

func (s *MemoryStore) Orders() OrderRepository             { return &memOrders{s} }
func (s *MemoryStore) Discounts() DiscountRepository       { return &memDiscounts{s} }
func (s *MemoryStore) Catalog() CatalogRepository          { return &memCatalog{s} }
func (s *MemoryStore) Inventory() InventoryRepository      { return &memInventory{s} }
func (s *MemoryStore) CashSessions() CashSessionRepository { return &memCashSessions{s} }
func (s *MemoryStore) Outbox() OutboxRepository            { return &memOutbox{s} }

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			*s.data = *snapshot
			panic(p)
		}
	}()

	err = fn(&MemoryStore{mu: s.mu, data: s.data, inTx: true})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		*s.data = *snapshot
	}
	return err
}

// lock serializes access outside a transaction. Inside one the transaction
// already holds the mutex.
func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type row[T any] struct {
	seq int64
	v   T
}

// table keeps rows by id and remembers insertion order.
type table[T any] map[uuid.UUID]row[T]

func (t table[T]) clone() table[T] {
	out := make(table[T], len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func (t table[T]) get(id uuid.UUID) (T, bool) {
	r, ok := t[id]
	return r.v, ok
}

// filter returns matching rows in insertion order.
func (t table[T]) filter(keep func(T) bool) []T {
	rows := make([]row[T], 0, len(t))
	for _, r := range t {
		if keep == nil || keep(r.v) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]T, len(rows))
	for i := range rows {
		out[i] = rows[i].v
	}
	return out
}

func (t table[T]) replace(id uuid.UUID, v T) bool {
	r, ok := t[id]
	if !ok {
		return false
	}
	r.v = v
	t[id] = r
	return true
}

type memoryData struct {
	seq int64

	orders       table[models.Order]
	items        table[models.OrderItem]
	applied      table[models.AppliedDiscount]
	payments     table[models.Payment]
	discounts    table[models.Discount]
	categories   table[models.Category]
	products     table[models.Product]
	taxRates     table[models.TaxRate]
	warehouses   table[models.Warehouse]
	stock        table[models.StockItem]
	movements    table[models.InventoryMovement]
	cashSessions table[models.CashSession]
	outbox       table[models.OutboxEvent]
}

func newMemoryData() *memoryData {
	return &memoryData{
		orders:       table[models.Order]{},
		items:        table[models.OrderItem]{},
		applied:      table[models.AppliedDiscount]{},
		payments:     table[models.Payment]{},
		discounts:    table[models.Discount]{},
		categories:   table[models.Category]{},
		products:     table[models.Product]{},
		taxRates:     table[models.TaxRate]{},
		warehouses:   table[models.Warehouse]{},
		stock:        table[models.StockItem]{},
		movements:    table[models.InventoryMovement]{},
		cashSessions: table[models.CashSession]{},
		outbox:       table[models.OutboxEvent]{},
	}
}

// clone copies every table. Stored rows are values that are replaced, never
// mutated in place, so copying the maps is enough.
func (d *memoryData) clone() *memoryData {
	return &memoryData{
		seq:          d.seq,
		orders:       d.orders.clone(),
		items:        d.items.clone(),
		applied:      d.applied.clone(),
		payments:     d.payments.clone(),
		discounts:    d.discounts.clone(),
		categories:   d.categories.clone(),
		products:     d.products.clone(),
		taxRates:     d.taxRates.clone(),
		warehouses:   d.warehouses.clone(),
		stock:        d.stock.clone(),
		movements:    d.movements.clone(),
		cashSessions: d.cashSessions.clone(),
		outbox:       d.outbox.clone(),
	}
}

func insert[T any](d *memoryData, t table[T], id uuid.UUID, v T) {
	d.seq++
	t[id] = row[T]{seq: d.seq, v: v}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

func paginate[T any](all []T, page, limit int) []T {
	start := offset(page, limit)
	if start >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return all[start:end]
}

func reversed[T any](in []T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func copyIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return nil
	}
	return append([]uuid.UUID(nil), ids...)
}

// --- orders ---

type memOrders struct{ s *MemoryStore }

func (r *memOrders) assemble(o models.Order) *models.Order {
	d := r.s.data
	o.Items = d.items.filter(func(it models.OrderItem) bool { return it.OrderID == o.ID })
	o.Discounts = d.applied.filter(func(a models.AppliedDiscount) bool { return a.OrderID == o.ID })
	o.Payments = d.payments.filter(func(p models.Payment) bool { return p.OrderID == o.ID })
	return &o
}

func (r *memOrders) Create(_ context.Context, order *models.Order) error {
	defer r.s.lock()()
	if order.TableID != nil && !order.Status.IsTerminal() {
		if _, ok := r.findOpenByTable(order.TenantID, *order.TableID); ok {
			return ErrDuplicate
		}
	}
	ensureID(&order.ID)
	stamp(&order.CreatedAt)
	order.UpdatedAt = order.CreatedAt
	stored := *order
	stored.Items, stored.Discounts, stored.Payments = nil, nil, nil
	insert(r.s.data, r.s.data.orders, order.ID, stored)
	return nil
}

func (r *memOrders) FindByID(_ context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	defer r.s.lock()()
	o, ok := r.s.data.orders.get(id)
	if !ok || o.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return r.assemble(o), nil
}

func (r *memOrders) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *memOrders) findOpenByTable(tenantID, tableID uuid.UUID) (models.Order, bool) {
	found := r.s.data.orders.filter(func(o models.Order) bool {
		return o.TenantID == tenantID && o.TableID != nil && *o.TableID == tableID && !o.Status.IsTerminal()
	})
	if len(found) == 0 {
		return models.Order{}, false
	}
	return found[len(found)-1], true
}

func (r *memOrders) FindOpenByTable(_ context.Context, tenantID, tableID uuid.UUID) (*models.Order, error) {
	defer r.s.lock()()
	o, ok := r.findOpenByTable(tenantID, tableID)
	if !ok {
		return nil, ErrNotFound
	}
	return r.assemble(o), nil
}

func (r *memOrders) List(_ context.Context, tenantID uuid.UUID, filter models.OrderFilter, page, limit int) ([]models.Order, int64, error) {
	defer r.s.lock()()
	all := reversed(r.s.data.orders.filter(func(o models.Order) bool {
		if o.TenantID != tenantID {
			return false
		}
		if filter.Status != nil && o.Status != *filter.Status {
			return false
		}
		if filter.TableID != nil && (o.TableID == nil || *o.TableID != *filter.TableID) {
			return false
		}
		return true
	}))
	sort.SliceStable(all, func(i, j int) bool { return all[i].OpenedAt.After(all[j].OpenedAt) })

	pageRows := paginate(all, page, limit)
	out := make([]models.Order, 0, len(pageRows))
	for _, o := range pageRows {
		out = append(out, *r.assemble(o))
	}
	return out, int64(len(all)), nil
}

func (r *memOrders) Update(_ context.Context, order *models.Order) error {
	defer r.s.lock()()
	cur, ok := r.s.data.orders.get(order.ID)
	if !ok || cur.TenantID != order.TenantID {
		return ErrNotFound
	}
	cur.Status = order.Status
	cur.SubtotalCents = order.SubtotalCents
	cur.DiscountCents = order.DiscountCents
	cur.TaxCents = order.TaxCents
	cur.TipCents = order.TipCents
	cur.TotalCents = order.TotalCents
	cur.SentToKitchenAt = order.SentToKitchenAt
	cur.ClosedAt = order.ClosedAt
	cur.CancelReason = order.CancelReason
	cur.UpdatedAt = time.Now().UTC()
	order.UpdatedAt = cur.UpdatedAt
	r.s.data.orders.replace(order.ID, cur)
	return nil
}

func (r *memOrders) AddItem(_ context.Context, item *models.OrderItem) error {
	defer r.s.lock()()
	if o, ok := r.s.data.orders.get(item.OrderID); !ok || o.TenantID != item.TenantID {
		return ErrNotFound
	}
	ensureID(&item.ID)
	stamp(&item.CreatedAt)
	item.UpdatedAt = item.CreatedAt
	insert(r.s.data, r.s.data.items, item.ID, *item)
	return nil
}

func (r *memOrders) UpdateItem(_ context.Context, item *models.OrderItem) error {
	defer r.s.lock()()
	cur, ok := r.s.data.items.get(item.ID)
	if !ok || cur.TenantID != item.TenantID || cur.OrderID != item.OrderID {
		return ErrNotFound
	}
	cur.Quantity = item.Quantity
	cur.Notes = item.Notes
	cur.Status = item.Status
	cur.UpdatedAt = time.Now().UTC()
	item.UpdatedAt = cur.UpdatedAt
	r.s.data.items.replace(item.ID, cur)
	return nil
}

func (r *memOrders) AddAppliedDiscount(_ context.Context, d *models.AppliedDiscount) error {
	defer r.s.lock()()
	ensureID(&d.ID)
	stamp(&d.CreatedAt)
	insert(r.s.data, r.s.data.applied, d.ID, *d)
	return nil
}

func (r *memOrders) DeleteAppliedDiscount(_ context.Context, tenantID, orderID, id uuid.UUID) error {
	defer r.s.lock()()
	cur, ok := r.s.data.applied.get(id)
	if !ok || cur.TenantID != tenantID || cur.OrderID != orderID {
		return ErrNotFound
	}
	delete(r.s.data.applied, id)
	return nil
}

func (r *memOrders) AddPayment(_ context.Context, p *models.Payment) error {
	defer r.s.lock()()
	ensureID(&p.ID)
	stamp(&p.CreatedAt)
	insert(r.s.data, r.s.data.payments, p.ID, *p)
	return nil
}

func (r *memOrders) SumCapturedPayments(_ context.Context, tenantID uuid.UUID, provider models.PaymentProvider, from time.Time, to *time.Time) (int64, error) {
	defer r.s.lock()()
	var sum int64
	for _, p := range r.s.data.payments.filter(nil) {
		if p.TenantID != tenantID || p.Provider != provider || p.Status != models.PaymentStatusCaptured {
			continue
		}
		if p.CreatedAt.Before(from) || (to != nil && !p.CreatedAt.Before(*to)) {
			continue
		}
		sum += p.AmountCents
	}
	return sum, nil
}

func (r *memOrders) ListClosedOpenedBetween(_ context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Order, error) {
	defer r.s.lock()()
	found := r.s.data.orders.filter(func(o models.Order) bool {
		return o.TenantID == tenantID && o.Status.IsTerminal() &&
			!o.OpenedAt.Before(from) && o.OpenedAt.Before(to)
	})
	sort.SliceStable(found, func(i, j int) bool { return found[i].OpenedAt.Before(found[j].OpenedAt) })
	out := make([]models.Order, 0, len(found))
	for _, o := range found {
		out = append(out, *r.assemble(o))
	}
	return out, nil
}

// --- discounts ---

type memDiscounts struct{ s *MemoryStore }

func (r *memDiscounts) Create(_ context.Context, d *models.Discount) error {
	defer r.s.lock()()
	if d.Code != nil {
		dup := r.s.data.discounts.filter(func(x models.Discount) bool {
			return x.TenantID == d.TenantID && x.Code != nil && *x.Code == *d.Code
		})
		if len(dup) > 0 {
			return ErrDuplicate
		}
	}
	ensureID(&d.ID)
	stamp(&d.CreatedAt)
	d.UpdatedAt = d.CreatedAt
	stored := *d
	stored.CategoryIDs = copyIDs(d.CategoryIDs)
	stored.ProductIDs = copyIDs(d.ProductIDs)
	insert(r.s.data, r.s.data.discounts, d.ID, stored)
	return nil
}

func (r *memDiscounts) FindByID(_ context.Context, tenantID, id uuid.UUID) (*models.Discount, error) {
	defer r.s.lock()()
	d, ok := r.s.data.discounts.get(id)
	if !ok || d.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *memDiscounts) FindByCode(_ context.Context, tenantID uuid.UUID, code string) (*models.Discount, error) {
	defer r.s.lock()()
	found := r.s.data.discounts.filter(func(d models.Discount) bool {
		return d.TenantID == tenantID && d.Code != nil && strings.EqualFold(*d.Code, code)
	})
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

func (r *memDiscounts) List(_ context.Context, tenantID uuid.UUID, filter models.DiscountFilter, page, limit int) ([]models.Discount, int64, error) {
	defer r.s.lock()()
	all := reversed(r.s.data.discounts.filter(func(d models.Discount) bool {
		return d.TenantID == tenantID && (filter.Status == nil || d.Status == *filter.Status)
	}))
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memDiscounts) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, status models.DiscountStatus) error {
	defer r.s.lock()()
	d, ok := r.s.data.discounts.get(id)
	if !ok || d.TenantID != tenantID {
		return ErrNotFound
	}
	d.Status = status
	d.UpdatedAt = time.Now().UTC()
	r.s.data.discounts.replace(id, d)
	return nil
}

func (r *memDiscounts) IncrementUsage(_ context.Context, tenantID, id uuid.UUID) error {
	defer r.s.lock()()
	d, ok := r.s.data.discounts.get(id)
	if !ok || d.TenantID != tenantID {
		return ErrUsageLimitReached
	}
	if d.MaxUsageCount != nil && d.UsageCount >= *d.MaxUsageCount {
		return ErrUsageLimitReached
	}
	d.UsageCount++
	r.s.data.discounts.replace(id, d)
	return nil
}

func (r *memDiscounts) DecrementUsage(_ context.Context, tenantID, id uuid.UUID) error {
	defer r.s.lock()()
	d, ok := r.s.data.discounts.get(id)
	if !ok || d.TenantID != tenantID || d.UsageCount == 0 {
		return nil
	}
	d.UsageCount--
	r.s.data.discounts.replace(id, d)
	return nil
}

// --- catalog ---

type memCatalog struct{ s *MemoryStore }

func (r *memCatalog) CreateCategory(_ context.Context, c *models.Category) error {
	defer r.s.lock()()
	dup := r.s.data.categories.filter(func(x models.Category) bool {
		return x.TenantID == c.TenantID && x.Name == c.Name
	})
	if len(dup) > 0 {
		return ErrDuplicate
	}
	ensureID(&c.ID)
	stamp(&c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	insert(r.s.data, r.s.data.categories, c.ID, *c)
	return nil
}

func (r *memCatalog) FindCategory(_ context.Context, tenantID, id uuid.UUID) (*models.Category, error) {
	defer r.s.lock()()
	c, ok := r.s.data.categories.get(id)
	if !ok || c.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *memCatalog) ListCategories(_ context.Context, tenantID uuid.UUID) ([]models.Category, error) {
	defer r.s.lock()()
	out := r.s.data.categories.filter(func(c models.Category) bool { return c.TenantID == tenantID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memCatalog) CreateProduct(_ context.Context, p *models.Product) error {
	defer r.s.lock()()
	dup := r.s.data.products.filter(func(x models.Product) bool {
		return x.TenantID == p.TenantID && x.SKU == p.SKU
	})
	if len(dup) > 0 {
		return ErrDuplicate
	}
	ensureID(&p.ID)
	stamp(&p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	insert(r.s.data, r.s.data.products, p.ID, *p)
	return nil
}

func (r *memCatalog) FindProduct(_ context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	defer r.s.lock()()
	p, ok := r.s.data.products.get(id)
	if !ok || p.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *memCatalog) UpdateProduct(_ context.Context, p *models.Product) error {
	defer r.s.lock()()
	cur, ok := r.s.data.products.get(p.ID)
	if !ok || cur.TenantID != p.TenantID {
		return ErrNotFound
	}
	cur.Name = p.Name
	cur.PriceCents = p.PriceCents
	cur.CategoryID = p.CategoryID
	cur.Status = p.Status
	cur.UpdatedAt = time.Now().UTC()
	p.UpdatedAt = cur.UpdatedAt
	r.s.data.products.replace(p.ID, cur)
	return nil
}

func (r *memCatalog) ListProducts(_ context.Context, tenantID uuid.UUID, filter models.ProductFilter, page, limit int) ([]models.Product, int64, error) {
	defer r.s.lock()()
	all := r.s.data.products.filter(func(p models.Product) bool {
		if p.TenantID != tenantID {
			return false
		}
		if filter.Status != nil && p.Status != *filter.Status {
			return false
		}
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			return false
		}
		return true
	})
	sort.SliceStable(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memCatalog) CreateTaxRate(_ context.Context, rate *models.TaxRate) error {
	defer r.s.lock()()
	ensureID(&rate.ID)
	stamp(&rate.CreatedAt)
	rate.UpdatedAt = rate.CreatedAt
	insert(r.s.data, r.s.data.taxRates, rate.ID, *rate)
	return nil
}

func (r *memCatalog) ClearDefaultTaxRate(_ context.Context, tenantID uuid.UUID) error {
	defer r.s.lock()()
	for _, rate := range r.s.data.taxRates.filter(func(x models.TaxRate) bool {
		return x.TenantID == tenantID && x.IsDefault
	}) {
		rate.IsDefault = false
		r.s.data.taxRates.replace(rate.ID, rate)
	}
	return nil
}

func (r *memCatalog) FindDefaultTaxRate(_ context.Context, tenantID uuid.UUID) (*models.TaxRate, error) {
	defer r.s.lock()()
	found := r.s.data.taxRates.filter(func(x models.TaxRate) bool {
		return x.TenantID == tenantID && x.IsDefault
	})
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[len(found)-1], nil
}

func (r *memCatalog) ListTaxRates(_ context.Context, tenantID uuid.UUID) ([]models.TaxRate, error) {
	defer r.s.lock()()
	out := r.s.data.taxRates.filter(func(x models.TaxRate) bool { return x.TenantID == tenantID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- inventory ---

type memInventory struct{ s *MemoryStore }

func (r *memInventory) CreateWarehouse(_ context.Context, w *models.Warehouse) error {
	defer r.s.lock()()
	dup := r.s.data.warehouses.filter(func(x models.Warehouse) bool {
		return x.TenantID == w.TenantID && x.Code == w.Code
	})
	if len(dup) > 0 {
		return ErrDuplicate
	}
	ensureID(&w.ID)
	stamp(&w.CreatedAt)
	w.UpdatedAt = w.CreatedAt
	insert(r.s.data, r.s.data.warehouses, w.ID, *w)
	return nil
}

func (r *memInventory) FindWarehouse(_ context.Context, tenantID, id uuid.UUID) (*models.Warehouse, error) {
	defer r.s.lock()()
	w, ok := r.s.data.warehouses.get(id)
	if !ok || w.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (r *memInventory) ListWarehouses(_ context.Context, tenantID uuid.UUID, filter models.WarehouseFilter) ([]models.Warehouse, error) {
	defer r.s.lock()()
	out := r.s.data.warehouses.filter(func(w models.Warehouse) bool {
		return w.TenantID == tenantID && (filter.Status == nil || w.Status == *filter.Status)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *memInventory) UpdateWarehouseStatus(_ context.Context, tenantID, id uuid.UUID, status models.LifecycleStatus) error {
	defer r.s.lock()()
	w, ok := r.s.data.warehouses.get(id)
	if !ok || w.TenantID != tenantID {
		return ErrNotFound
	}
	w.Status = status
	w.UpdatedAt = time.Now().UTC()
	r.s.data.warehouses.replace(id, w)
	return nil
}

func (r *memInventory) FindStockItem(_ context.Context, tenantID, id uuid.UUID) (*models.StockItem, error) {
	defer r.s.lock()()
	s, ok := r.s.data.stock.get(id)
	if !ok || s.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *memInventory) ListStockItems(_ context.Context, tenantID uuid.UUID, filter models.StockFilter, page, limit int) ([]models.StockItem, int64, error) {
	defer r.s.lock()()
	all := r.s.data.stock.filter(func(s models.StockItem) bool {
		if s.TenantID != tenantID {
			return false
		}
		if filter.WarehouseID != nil && s.WarehouseID != *filter.WarehouseID {
			return false
		}
		if filter.ProductID != nil && s.ProductID != *filter.ProductID {
			return false
		}
		return !filter.LowStockOnly || s.IsLowStock()
	})
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memInventory) UpdateReorderPoint(_ context.Context, tenantID, id uuid.UUID, reorderPoint int) error {
	defer r.s.lock()()
	s, ok := r.s.data.stock.get(id)
	if !ok || s.TenantID != tenantID {
		return ErrNotFound
	}
	s.ReorderPoint = reorderPoint
	s.UpdatedAt = time.Now().UTC()
	r.s.data.stock.replace(id, s)
	return nil
}

func (r *memInventory) findStock(tenantID uuid.UUID, key models.StockKey) (models.StockItem, bool) {
	found := r.s.data.stock.filter(func(s models.StockItem) bool {
		return s.TenantID == tenantID && s.WarehouseID == key.WarehouseID && s.ProductID == key.ProductID
	})
	if len(found) == 0 {
		return models.StockItem{}, false
	}
	return found[0], true
}

func (r *memInventory) LockStockItems(_ context.Context, tenantID uuid.UUID, keys []models.StockKey) (map[models.StockKey]models.StockItem, error) {
	defer r.s.lock()()
	out := make(map[models.StockKey]models.StockItem, len(keys))
	for _, k := range keys {
		if s, ok := r.findStock(tenantID, k); ok {
			out[k] = s
		}
	}
	return out, nil
}

func (r *memInventory) ApplyStockDelta(_ context.Context, tenantID uuid.UUID, delta models.StockDelta) (*models.StockItem, error) {
	defer r.s.lock()()
	now := time.Now().UTC()
	if s, ok := r.findStock(tenantID, delta.StockKey); ok {
		s.OnHand += delta.Delta
		s.UpdatedAt = now
		r.s.data.stock.replace(s.ID, s)
		return &s, nil
	}
	s := models.StockItem{
		ID:          uuid.New(),
		TenantID:    tenantID,
		WarehouseID: delta.WarehouseID,
		ProductID:   delta.ProductID,
		OnHand:      delta.Delta,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	insert(r.s.data, r.s.data.stock, s.ID, s)
	return &s, nil
}

func (r *memInventory) CreateMovement(_ context.Context, m *models.InventoryMovement) error {
	defer r.s.lock()()
	ensureID(&m.ID)
	stamp(&m.CreatedAt)
	m.UpdatedAt = m.CreatedAt
	for i := range m.Lines {
		ensureID(&m.Lines[i].ID)
		m.Lines[i].MovementID = m.ID
		m.Lines[i].TenantID = m.TenantID
	}
	stored := *m
	stored.Lines = append([]models.InventoryMovementLine(nil), m.Lines...)
	insert(r.s.data, r.s.data.movements, m.ID, stored)
	return nil
}

func (r *memInventory) FindMovement(_ context.Context, tenantID, id uuid.UUID) (*models.InventoryMovement, error) {
	defer r.s.lock()()
	m, ok := r.s.data.movements.get(id)
	if !ok || m.TenantID != tenantID {
		return nil, ErrNotFound
	}
	m.Lines = append([]models.InventoryMovementLine(nil), m.Lines...)
	return &m, nil
}

func (r *memInventory) FindMovementForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*models.InventoryMovement, error) {
	return r.FindMovement(ctx, tenantID, id)
}

func (r *memInventory) ListMovements(_ context.Context, tenantID uuid.UUID, filter models.MovementFilter, page, limit int) ([]models.InventoryMovement, int64, error) {
	defer r.s.lock()()
	all := reversed(r.s.data.movements.filter(func(m models.InventoryMovement) bool {
		if m.TenantID != tenantID {
			return false
		}
		if filter.Status != nil && m.Status != *filter.Status {
			return false
		}
		if filter.Type != nil && m.Type != *filter.Type {
			return false
		}
		if filter.WarehouseID != nil && m.WarehouseID != *filter.WarehouseID &&
			(m.DestinationWarehouseID == nil || *m.DestinationWarehouseID != *filter.WarehouseID) {
			return false
		}
		return true
	}))
	out := paginate(all, page, limit)
	for i := range out {
		out[i].Lines = append([]models.InventoryMovementLine(nil), out[i].Lines...)
	}
	return out, int64(len(all)), nil
}

func (r *memInventory) UpdateMovement(_ context.Context, m *models.InventoryMovement) error {
	defer r.s.lock()()
	cur, ok := r.s.data.movements.get(m.ID)
	if !ok || cur.TenantID != m.TenantID {
		return ErrNotFound
	}
	cur.Status = m.Status
	cur.PostedBy = m.PostedBy
	cur.PostedAt = m.PostedAt
	cur.CancelledBy = m.CancelledBy
	cur.CancelledAt = m.CancelledAt
	cur.UpdatedAt = time.Now().UTC()
	m.UpdatedAt = cur.UpdatedAt
	r.s.data.movements.replace(m.ID, cur)
	return nil
}

func (r *memInventory) DeleteMovement(_ context.Context, tenantID, id uuid.UUID) error {
	defer r.s.lock()()
	m, ok := r.s.data.movements.get(id)
	if !ok || m.TenantID != tenantID {
		return ErrNotFound
	}
	delete(r.s.data.movements, id)
	return nil
}

// --- cash sessions ---

type memCashSessions struct{ s *MemoryStore }

func (r *memCashSessions) Create(_ context.Context, cs *models.CashSession) error {
	defer r.s.lock()()
	if cs.Status == models.CashSessionStatusOpen {
		if _, ok := r.findOpen(cs.TenantID); ok {
			return ErrDuplicate
		}
	}
	ensureID(&cs.ID)
	stamp(&cs.CreatedAt)
	cs.UpdatedAt = cs.CreatedAt
	insert(r.s.data, r.s.data.cashSessions, cs.ID, *cs)
	return nil
}

func (r *memCashSessions) FindByID(_ context.Context, tenantID, id uuid.UUID) (*models.CashSession, error) {
	defer r.s.lock()()
	cs, ok := r.s.data.cashSessions.get(id)
	if !ok || cs.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return &cs, nil
}

func (r *memCashSessions) findOpen(tenantID uuid.UUID) (models.CashSession, bool) {
	found := r.s.data.cashSessions.filter(func(cs models.CashSession) bool {
		return cs.TenantID == tenantID && cs.Status == models.CashSessionStatusOpen
	})
	if len(found) == 0 {
		return models.CashSession{}, false
	}
	return found[0], true
}

func (r *memCashSessions) FindOpen(_ context.Context, tenantID uuid.UUID) (*models.CashSession, error) {
	defer r.s.lock()()
	cs, ok := r.findOpen(tenantID)
	if !ok {
		return nil, ErrNotFound
	}
	return &cs, nil
}

func (r *memCashSessions) FindOpenForUpdate(ctx context.Context, tenantID uuid.UUID) (*models.CashSession, error) {
	return r.FindOpen(ctx, tenantID)
}

func (r *memCashSessions) List(_ context.Context, tenantID uuid.UUID, page, limit int) ([]models.CashSession, int64, error) {
	defer r.s.lock()()
	all := reversed(r.s.data.cashSessions.filter(func(cs models.CashSession) bool { return cs.TenantID == tenantID }))
	sort.SliceStable(all, func(i, j int) bool { return all[i].OpenedAt.After(all[j].OpenedAt) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memCashSessions) Update(_ context.Context, cs *models.CashSession) error {
	defer r.s.lock()()
	cur, ok := r.s.data.cashSessions.get(cs.ID)
	if !ok || cur.TenantID != cs.TenantID {
		return ErrNotFound
	}
	cur.Status = cs.Status
	cur.ClosingCashCents = cs.ClosingCashCents
	cur.ExpectedCashCents = cs.ExpectedCashCents
	cur.CashDifferenceCents = cs.CashDifferenceCents
	cur.ClosedBy = cs.ClosedBy
	cur.ClosedAt = cs.ClosedAt
	cur.Notes = cs.Notes
	cur.UpdatedAt = time.Now().UTC()
	cs.UpdatedAt = cur.UpdatedAt
	r.s.data.cashSessions.replace(cs.ID, cur)
	return nil
}

// --- outbox ---

type memOutbox struct{ s *MemoryStore }

func (r *memOutbox) Append(_ context.Context, events ...*models.OutboxEvent) error {
	defer r.s.lock()()
	for _, e := range events {
		ensureID(&e.ID)
		stamp(&e.CreatedAt)
		insert(r.s.data, r.s.data.outbox, e.ID, *e)
	}
	return nil
}

func (r *memOutbox) FetchUnpublished(_ context.Context, limit int) ([]models.OutboxEvent, error) {
	defer r.s.lock()()
	all := r.s.data.outbox.filter(func(e models.OutboxEvent) bool { return e.PublishedAt == nil })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memOutbox) MarkPublished(_ context.Context, id uuid.UUID, at time.Time) error {
	defer r.s.lock()()
	e, ok := r.s.data.outbox.get(id)
	if !ok {
		return nil
	}
	e.PublishedAt = &at
	e.LastError = ""
	r.s.data.outbox.replace(id, e)
	return nil
}

func (r *memOutbox) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	defer r.s.lock()()
	e, ok := r.s.data.outbox.get(id)
	if !ok {
		return nil
	}
	e.Attempts++
	e.LastError = reason
	r.s.data.outbox.replace(id, e)
	return nil
}

func (r *memOutbox) CountUnpublished(_ context.Context) (int64, error) {
	defer r.s.lock()()
	return int64(len(r.s.data.outbox.filter(func(e models.OutboxEvent) bool { return e.PublishedAt == nil }))), nil
}
