package services

import (
	"context"
	"errors"
	"strings"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	awspkg "pos-service/pkg/aws"
	"pos-service/pricing"
	"pos-service/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService runs the order lifecycle: items, kitchen flow, discounts,
// settlement and cancellation.
type OrderService interface {
	CreateOrder(ctx context.Context, actor models.Actor, req models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, actor models.Actor, filter models.OrderFilter, page, limit int) ([]models.Order, int64, error)
	AddItem(ctx context.Context, actor models.Actor, orderID uuid.UUID, req models.AddItemRequest) (*models.Order, error)
	PatchItem(ctx context.Context, actor models.Actor, orderID, itemID uuid.UUID, req models.PatchItemRequest) (*models.Order, error)
	SendToKitchen(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error)
	RequestBill(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error)
	ApplyDiscount(ctx context.Context, actor models.Actor, orderID uuid.UUID, req models.ApplyDiscountRequest) (*models.Order, error)
	RemoveDiscount(ctx context.Context, actor models.Actor, orderID, appliedID uuid.UUID) (*models.Order, error)
	// Pay returns the order and the payment it captured, which is nil when
	// nothing was outstanding.
	Pay(ctx context.Context, actor models.Actor, orderID uuid.UUID, req models.PayRequest) (*models.Order, *models.Payment, error)
	CancelOrder(ctx context.Context, actor models.Actor, orderID uuid.UUID, req models.CancelOrderRequest) (*models.Order, error)
}

type orderServiceImpl struct {
	store    repository.Store
	cache    repository.ProductCache
	metrics  awspkg.MetricsRecorder
	currency string
	logger   *zap.Logger
	now      Clock
}

// NewOrderService creates an OrderService. cache and metrics may be nil.
func NewOrderService(
	store repository.Store,
	cache repository.ProductCache,
	metrics awspkg.MetricsRecorder,
	currency string,
	logger *zap.Logger,
	now Clock,
) OrderService {
	if currency == "" {
		currency = "USD"
	}
	return &orderServiceImpl{
		store:    store,
		cache:    cache,
		metrics:  metrics,
		currency: strings.ToUpper(currency),
		logger:   logger,
		now:      clockOrDefault(now),
	}
}

func (s *orderServiceImpl) CreateOrder(ctx context.Context, actor models.Actor, req models.CreateOrderRequest) (*models.Order, error) {
	var (
		order  *models.Order
		reused bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if req.TableID != nil {
			existing, err := tx.Orders().FindOpenByTable(ctx, actor.TenantID, *req.TableID)
			if err == nil {
				order, reused = existing, true
				return nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return repoError(err, "order")
			}
		}

		now := s.now()
		order = &models.Order{
			ID:        uuid.New(),
			TenantID:  actor.TenantID,
			TableID:   req.TableID,
			Status:    models.OrderStatusOpen,
			Currency:  s.currency,
			OpenedBy:  actor.UserID,
			OpenedAt:  now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			if req.TableID != nil && errors.Is(err, repository.ErrDuplicate) {
				return err
			}
			return repoError(err, "order")
		}
		order.Items = []models.OrderItem{}
		order.Discounts = []models.AppliedDiscount{}
		order.Payments = []models.Payment{}
		return nil
	})
	if err != nil && req.TableID != nil && errors.Is(err, repository.ErrDuplicate) {
		// A concurrent request opened an order on the table first.
		existing, findErr := s.store.Orders().FindOpenByTable(ctx, actor.TenantID, *req.TableID)
		if findErr != nil {
			return nil, repoError(findErr, "order")
		}
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	if !reused {
		s.logger.Info("Order opened", zap.String("order_id", order.ID.String()), zap.String("tenant_id", actor.TenantID.String()))
	}
	return order, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, repoError(err, "order")
	}
	return order, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, actor models.Actor, filter models.OrderFilter, page, limit int) ([]models.Order, int64, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, apperrors.Validation("unknown order status %q", *filter.Status)
	}
	orders, total, err := s.store.Orders().List(ctx, actor.TenantID, filter, page, limit)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, 0, repoError(err, "orders")
	}
	return orders, total, nil
}

func (s *orderServiceImpl) AddItem(ctx context.Context, actor models.Actor, orderID uuid.UUID, req models.AddItemRequest) (*models.Order, error) {
	if req.Quantity < 1 || req.Quantity > 99 {
		return nil, apperrors.Validation("quantity must be between 1 and 99")
	}

	return s.withOrder(ctx, actor, orderID, func(tx repository.Store, o *models.Order) error {
		if o.Status.IsTerminal() {
			return apperrors.Conflict("order is %s", o.Status)
		}

		product, err := s.product(ctx, tx, actor.TenantID, req.ProductID)
		if err != nil {
			return err
		}
		if product.Status != models.LifecycleActive {
			return apperrors.Validation("product %s is archived", product.ID)
		}

		now := s.now()
		item := models.OrderItem{
			ID:             uuid.New(),
			TenantID:       o.TenantID,
			OrderID:        o.ID,
			ProductID:      product.ID,
			CategoryID:     product.CategoryID,
			ProductName:    product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       req.Quantity,
			Status:         models.ItemStatusNew,
			Notes:          req.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Orders().AddItem(ctx, &item); err != nil {
			return repoError(err, "order item")
		}
		o.Items = append(o.Items, item)

		from := o.Status
		if o.Status == models.OrderStatusReady || o.Status == models.OrderStatusForPayment {
			o.Status = models.OrderStatusOpen
		}
		if err := s.recompute(ctx, tx, o); err != nil {
			return err
		}
		return s.save(ctx, tx, o, from, actor)
	})
}

func (s *orderServiceImpl) PatchItem(ctx context.Context, actor models.Actor, orderID, itemID uuid.UUID, req models.PatchItemRequest) (*models.Order, error) {
	if req.Quantity != nil && (*req.Quantity < 1 || *req.Quantity > 99) {
		return nil, apperrors.Validation("quantity must be between 1 and 99")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperrors.Validation("unknown item status %q", *req.Status)
	}

	return s.withOrder(ctx, actor, orderID, func(tx repository.Store, o *models.Order) error {
		if o.Status.IsTerminal() {
			return apperrors.Conflict("order is %s", o.Status)
		}
		item := o.FindItem(itemID)
		if item == nil {
			return apperrors.NotFound("order item not found")
		}

		if item.Status == models.ItemStatusVoid {
			revoid := req.Quantity == nil && req.Notes == nil && req.Status != nil && *req.Status == models.ItemStatusVoid
			if req.IsEmpty() || revoid {
				return nil
			}
			return apperrors.Conflict("voided items cannot be changed")
		}
		if req.IsEmpty() {
			return nil
		}
		if (req.Quantity != nil || req.Notes != nil) && item.Status != models.ItemStatusNew {
			return apperrors.Conflict("only NEW items can change quantity or notes")
		}

		statusChanged := false
		if req.Status != nil && *req.Status != item.Status {
			if !item.Status.CanTransitionTo(*req.Status) {
				return apperrors.Conflict("item cannot move from %s to %s", item.Status, *req.Status)
			}
			item.Status = *req.Status
			statusChanged = true
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.Notes != nil {
			item.Notes = *req.Notes
		}
		item.UpdatedAt = s.now()
		if err := tx.Orders().UpdateItem(ctx, item); err != nil {
			return repoError(err, "order item")
		}

		from := o.Status
		if statusChanged {
			derived, err := pricing.DeriveStatus(o.Items)
			switch {
			case errors.Is(err, pricing.ErrNoBillableItems):
				o.Status = models.OrderStatusOpen
			case o.Status.IsKitchenProgress():
				o.Status = derived
			}
		}
		if err := s.recompute(ctx, tx, o); err != nil {
			return err
		}
		return s.save(ctx, tx, o, from, actor)
	})
}

func (s *orderServiceImpl) SendToKitchen(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	return s.withOrder(ctx, actor, orderID, func(tx repository.Store, o *models.Order) error {
		if o.Status.IsTerminal() {
			return apperrors.Conflict("order is %s", o.Status)
		}
		if o.Status == models.OrderStatusForPayment {
			return apperrors.Conflict("order is awaiting payment")
		}
		if len(o.BillableItems()) == 0 {
			return apperrors.Validation("order has no billable items")
		}

		now := s.now()
		changed := false
		for i := range o.Items {
			if o.Items[i].Status != models.ItemStatusNew {
				continue
			}
			o.Items[i].Status = models.ItemStatusSent
			o.Items[i].UpdatedAt = now
			if err := tx.Orders().UpdateItem(ctx, &o.Items[i]); err != nil {
				return repoError(err, "order item")
			}
			changed = true
		}
		if o.SentToKitchenAt == nil {
			o.SentToKitchenAt = &now
			changed = true
		}

		from := o.Status
		derived, err := pricing.DeriveStatus(o.Items)
		if err != nil {
			return apperrors.Validation("order has no billable items")
		}
		if derived == models.OrderStatusOpen {
			derived = models.OrderStatusInKitchen
		}
		if derived != o.Status {
			o.Status = derived
			changed = true
		}
		if !changed {
			return nil
		}
		return s.save(ctx, tx, o, from, actor)
	})
}

func (s *orderServiceImpl) RequestBill(ctx context.Context, actor models.Actor, orderID uuid.UUID) (*models.Order, error) {
	return s.withOrder(ctx, actor, orderID, func(tx repository.Store, o *models.Order) error {
		if o.Status.IsTerminal() {
			return apperrors.Conflict("order is %s", o.Status)
		}
		if o.Status == models.OrderStatusForPayment {
			return nil
		}
		if len(o.BillableItems()) == 0 {
			return apperrors.Validation("order has no billable items")
		}
		from := o.Status
		o.Status = models.OrderStatusForPayment
		return s.save(ctx, tx, o, from, actor)
	})
}

func (s *orderServiceImpl) ApplyDiscount(ctx context.Context, actor models.Actor, orderID uuid.UUID, req models.ApplyDiscountRequest) (*models.Order, error) {
	selectors := 0
	if req.DiscountID != nil {
		selectors++
	}
	if strings.TrimSpace(req.Code) != "" {
		selectors++
	}
	if req.Manual != nil {
		selectors++
	}
	if selectors != 1 {
		return nil, apperrors.Validation("exactly one of discount_id, code or manual must be set")
	}
	if m := req.Manual; m != nil {
		if err := requireManager(actor, "manual discount"); err != nil {
			return nil, err
		}
		switch {
		case m.Type != models.DiscountTypePercentage && m.Type != models.DiscountTypeFixed:
			return nil, apperrors.Validation("manual discounts must be PERCENTAGE or FIXED")
		case m.Value <= 0:
			return nil, apperrors.Validation("discount value must be positive")
		case m.Type == models.DiscountTypePercentage && m.Value > 10000:
			return nil, apperrors.Validation("percentage value is in basis points and cannot exceed 10000")
		}
	}

	return s.withOrder(ctx, actor, orderID, func(tx repository.Store, o *models.Order) error {
		if o.Status.IsTerminal() {
			return apperrors.Conflict("order is %s", o.Status)
		}
		subtotal := pricing.SubtotalCents(o.Items)
		if subtotal == 0 {
			return apperrors.Validation("order has no billable items")
		}

		applied := models.AppliedDiscount{
			ID:        uuid.New(),
			TenantID:  o.TenantID,
			OrderID:   o.ID,
			AppliedBy: actor.UserID,
			CreatedAt: s.now(),
		}
		if m := req.Manual; m != nil {
			applied.Name = m.Name
			applied.Type = m.Type
			applied.Value = m.Value
			applied.AmountCents = pricing.DiscountAmount(m.Type, m.Value, subtotal)
		} else {
			d, err := s.lookupDiscount(ctx, tx, actor.TenantID, req)
			if err != nil {
				return err
			}
			amount, err := s.evaluate(o, d, subtotal)
			if err != nil {
				return err
			}
			if err := tx.Discounts().IncrementUsage(ctx, actor.TenantID, d.ID); err != nil {
				if errors.Is(err, repository.ErrUsageLimitReached) {
					return apperrors.Conflict("discount usage limit reached")
				}
				return repoError(err, "discount")
			}
			id := d.ID
			applied.DiscountID = &id
			applied.Name = d.Name
			applied.Type = d.Type
			applied.Value = d.Value
			applied.AmountCents = amount
		}

		if err := tx.Orders().AddAppliedDiscount(ctx, &applied); err != nil {
			return repoError(err, "applied discount")
		}
		o.Discounts = append(o.Discounts, applied)
		if err := s.recompute(ctx, tx, o); err != nil {
			return err
		}
		return s.save(ctx, tx, o, o.Status, actor)
	})
}

func (s *orderServiceImpl) lookupDiscount(ctx context.Context, tx repository.Store, tenantID uuid.UUID, req models.ApplyDiscountRequest) (*models.Discount, error) {
	var (
		d   *models.Discount
		err error
	)
	if req.DiscountID != nil {
		d, err = tx.Discounts().FindByID(ctx, tenantID, *req.DiscountID)
	} else {
		d, err = tx.Discounts().FindByCode(ctx, tenantID, strings.TrimSpace(req.Code))
	}
	if err != nil {
		return nil, repoError(err, "discount")
	}
	return d, nil
}

// evaluate checks that d may be applied to o and returns the amount it takes off.
func (s *orderServiceImpl) evaluate(o *models.Order, d *models.Discount, subtotal int64) (int64, error) {
	now := s.now()
	switch {
	case d.Status != models.DiscountStatusActive:
		return 0, apperrors.Conflict("discount is not active")
	case d.StartsAt != nil && now.Before(*d.StartsAt):
		return 0, apperrors.Conflict("discount is not valid yet")
	case d.EndsAt != nil && now.After(*d.EndsAt):
		return 0, apperrors.Conflict("discount has expired")
	case d.MaxUsageCount != nil && d.UsageCount >= *d.MaxUsageCount:
		return 0, apperrors.Conflict("discount usage limit reached")
	case d.MinOrderCents > 0 && subtotal < d.MinOrderCents:
		return 0, apperrors.Conflict("order subtotal is below the discount minimum of %d", d.MinOrderCents)
	}
	for _, existing := range o.Discounts {
		if existing.DiscountID != nil && *existing.DiscountID == d.ID {
			return 0, apperrors.Conflict("discount is already applied to this order")
		}
	}

	applicable := pricing.ApplicableSubtotal(o.Items, d.Scope, d.CategoryIDs, d.ProductIDs)
	if applicable == 0 {
		return 0, apperrors.Conflict("discount does not apply to any item on this order")
	}
	return pricing.DiscountAmount(d.Type, d.Value, applicable), nil
}

func (s *orderServiceImpl) RemoveDiscount(ctx context.Context, actor models.Actor, orderID, appliedID uuid.UUID) (*models.Order, error) {
	return s.withOrder(ctx, actor, orderID, func(tx repository.Store, o *models.Order) error {
		if o.Status.IsTerminal() {
			return apperrors.Conflict("order is %s", o.Status)
		}

		idx := -1
		for i := range o.Discounts {
			if o.Discounts[i].ID == appliedID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperrors.NotFound("applied discount not found")
		}
		removed := o.Discounts[idx]

		if err := tx.Orders().DeleteAppliedDiscount(ctx, o.TenantID, o.ID, removed.ID); err != nil {
			return repoError(err, "applied discount")
		}
		if removed.DiscountID != nil {
			if err := tx.Discounts().DecrementUsage(ctx, o.TenantID, *removed.DiscountID); err != nil {
				return repoError(err, "discount")
			}
		}
		o.Discounts = append(o.Discounts[:idx], o.Discounts[idx+1:]...)
		if err := s.recompute(ctx, tx, o); err != nil {
			return err
		}
		return s.save(ctx, tx, o, o.Status, actor)
	})
}

func (s *orderServiceImpl) Pay(ctx context.Context, actor models.Actor, orderID uuid.UUID, req models.PayRequest) (*models.Order, *models.Payment, error) {
	switch {
	case !req.Provider.Valid():
		return nil, nil, apperrors.Validation("unknown payment provider %q", req.Provider)
	case req.AmountCents != nil && *req.AmountCents <= 0:
		return nil, nil, apperrors.Validation("amount_cents must be positive")
	case req.TipCents < 0:
		return nil, nil, apperrors.Validation("tip_cents cannot be negative")
	}

	var payment *models.Payment
	order, err := s.withOrder(ctx, actor, orderID, func(tx repository.Store, o *models.Order) error {
		switch o.Status {
		case models.OrderStatusPaid:
			return nil
		case models.OrderStatusCancelled:
			return apperrors.Conflict("order is %s", o.Status)
		}
		if len(o.BillableItems()) == 0 {
			return apperrors.Validation("order has no billable items")
		}

		now := s.now()
		from := o.Status
		outstanding := maxInt64(0, o.TotalCents-o.CapturedCents())
		if outstanding > 0 {
			requested := outstanding
			if req.AmountCents != nil {
				requested = *req.AmountCents
			}
			captured := requested
			if captured > outstanding {
				captured = outstanding
			}

			meta := models.PaymentMetadata{Kind: models.PaymentMetadataNone}
			if req.Provider == models.PaymentProviderCash {
				meta = models.PaymentMetadata{
					Kind: models.PaymentMetadataCash,
					Cash: &models.CashTender{
						ReceivedCents:  requested,
						ChangeDueCents: maxInt64(0, requested-outstanding),
					},
				}
			}
			payment = &models.Payment{
				ID:          uuid.New(),
				TenantID:    o.TenantID,
				OrderID:     o.ID,
				Provider:    req.Provider,
				Status:      models.PaymentStatusCaptured,
				AmountCents: captured,
				Currency:    o.Currency,
				Metadata:    meta,
				CapturedBy:  actor.UserID,
				CreatedAt:   now,
			}
			if err := tx.Orders().AddPayment(ctx, payment); err != nil {
				return repoError(err, "payment")
			}
			o.Payments = append(o.Payments, *payment)
		}

		o.TipCents += req.TipCents
		if o.CapturedCents() >= o.TotalCents {
			o.Status = models.OrderStatusPaid
			o.ClosedAt = &now
		} else {
			o.Status = models.OrderStatusForPayment
		}
		return s.save(ctx, tx, o, from, actor)
	})
	if err != nil {
		return nil, nil, err
	}

	if payment != nil {
		s.logger.Info("Payment captured",
			zap.String("order_id", order.ID.String()),
			zap.String("provider", string(payment.Provider)),
			zap.Int64("amount_cents", payment.AmountCents),
			zap.Int64("change_due_cents", payment.ChangeDueCents()),
		)
	}
	return order, payment, nil
}

func (s *orderServiceImpl) CancelOrder(ctx context.Context, actor models.Actor, orderID uuid.UUID, req models.CancelOrderRequest) (*models.Order, error) {
	if err := requireManager(actor, "cancelling an order"); err != nil {
		return nil, err
	}

	return s.withOrder(ctx, actor, orderID, func(tx repository.Store, o *models.Order) error {
		if o.Status.IsTerminal() {
			return apperrors.Conflict("order is %s", o.Status)
		}
		if o.CapturedCents() > 0 {
			return apperrors.Conflict("order has captured payments")
		}
		for _, d := range o.Discounts {
			if d.DiscountID == nil {
				continue
			}
			if err := tx.Discounts().DecrementUsage(ctx, o.TenantID, *d.DiscountID); err != nil {
				return repoError(err, "discount")
			}
		}

		now := s.now()
		from := o.Status
		o.Status = models.OrderStatusCancelled
		o.ClosedAt = &now
		o.CancelReason = strings.TrimSpace(req.Reason)
		return s.save(ctx, tx, o, from, actor)
	})
}

// withOrder locks the order for the length of one transaction and hands it to fn.
func (s *orderServiceImpl) withOrder(ctx context.Context, actor models.Actor, orderID uuid.UUID, fn func(tx repository.Store, o *models.Order) error) (*models.Order, error) {
	var order *models.Order
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		o, err := tx.Orders().FindByIDForUpdate(ctx, actor.TenantID, orderID)
		if err != nil {
			return repoError(err, "order")
		}
		if err := fn(tx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			s.logger.Error("Order transaction failed", zap.String("order_id", orderID.String()), zap.Error(err))
		}
		return nil, err
	}
	return order, nil
}

func (s *orderServiceImpl) recompute(ctx context.Context, tx repository.Store, o *models.Order) error {
	rate, err := effectiveTaxRate(ctx, tx, o.TenantID)
	if err != nil {
		return err
	}
	pricing.Recompute(o, rate)
	return nil
}

// save writes the order row and, if the status moved, a status change event.
func (s *orderServiceImpl) save(ctx context.Context, tx repository.Store, o *models.Order, from models.OrderStatus, actor models.Actor) error {
	o.UpdatedAt = s.now()
	if err := tx.Orders().Update(ctx, o); err != nil {
		return repoError(err, "order")
	}
	if o.Status == from {
		return nil
	}
	if err := tx.Outbox().Append(ctx, models.NewOrderStatusChangedEvent(o, from, actor.UserID, o.UpdatedAt)); err != nil {
		return repoError(err, "order event")
	}
	s.logger.Info("Order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
	)
	return nil
}

// product reads a product snapshot, preferring the cache.
func (s *orderServiceImpl) product(ctx context.Context, tx repository.Store, tenantID, productID uuid.UUID) (*models.Product, error) {
	if s.cache != nil {
		p, err := s.cache.Get(ctx, tenantID, productID)
		if err != nil {
			s.logger.Warn("Product cache read failed", zap.Error(err))
		}
		if p != nil {
			s.recordCache(ctx, awspkg.MetricCacheHits)
			return p, nil
		}
		s.recordCache(ctx, awspkg.MetricCacheMisses)
	}

	p, err := tx.Catalog().FindProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, repoError(err, "product")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, p); err != nil {
			s.logger.Warn("Product cache write failed", zap.Error(err))
		}
	}
	return p, nil
}

func (s *orderServiceImpl) recordCache(ctx context.Context, metric string) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Cache": "product"})
}
