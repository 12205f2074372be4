package services_test

import (
	"testing"
	"time"

	apperrors "pos-service/common/errors"
	"pos-service/models"
	"pos-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) paidOrder(t *testing.T, priceCents int64, provider models.PaymentProvider) *models.Order {
	t.Helper()
	o := f.orderWithItems(t, priceCents, 1)
	paid, _, err := f.orders.Pay(f.ctx, f.cashier, o.ID, models.PayRequest{Provider: provider})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPaid, paid.Status)
	return paid
}

func TestCashSessionService_CloseReconcilesCash(t *testing.T) {
	f := newFixture(t)
	opened, err := f.cash.Open(f.ctx, f.cashier, models.OpenCashSessionRequest{OpeningCashCents: 10000})
	require.NoError(t, err)
	assert.Equal(t, models.CashSessionStatusOpen, opened.Status)

	f.paidOrder(t, 1900, models.PaymentProviderCash)
	f.paidOrder(t, 2100, models.PaymentProviderCash)
	f.paidOrder(t, 5000, models.PaymentProviderCard)

	closed, err := f.cash.Close(f.ctx, f.cashier, models.CloseCashSessionRequest{ClosingCashCents: 14050, Notes: "float counted twice"})
	require.NoError(t, err)
	assert.Equal(t, models.CashSessionStatusClosed, closed.Status)
	assert.Equal(t, int64(14000), *closed.ExpectedCashCents)
	assert.Equal(t, int64(50), *closed.CashDifferenceCents)
	assert.Equal(t, f.cashier.UserID, *closed.ClosedBy)
	assert.Equal(t, "float counted twice", closed.Notes)

	events := eventsOfKind(f.outbox(t), models.EventCashSessionClosed)
	require.Len(t, events, 1)
	assert.Equal(t, int64(50), events[0].Payload.CashSessionClosed.CashDifferenceCents)

	_, err = f.cash.Current(f.ctx, f.cashier)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCashSessionService_CashChangeIsNotCounted(t *testing.T) {
	f := newFixture(t)
	_, err := f.cash.Open(f.ctx, f.cashier, models.OpenCashSessionRequest{OpeningCashCents: 0})
	require.NoError(t, err)

	o := f.orderWithItems(t, 1900, 1)
	_, _, err = f.orders.Pay(f.ctx, f.cashier, o.ID, models.PayRequest{
		Provider:    models.PaymentProviderCash,
		AmountCents: int64Ptr(2000),
	})
	require.NoError(t, err)

	closed, err := f.cash.Close(f.ctx, f.cashier, models.CloseCashSessionRequest{ClosingCashCents: 1900})
	require.NoError(t, err)
	assert.Equal(t, int64(1900), *closed.ExpectedCashCents)
	assert.Equal(t, int64(0), *closed.CashDifferenceCents)
}

func TestCashSessionService_OnlyOneOpenSession(t *testing.T) {
	f := newFixture(t)
	first, err := f.cash.Open(f.ctx, f.cashier, models.OpenCashSessionRequest{OpeningCashCents: 500})
	require.NoError(t, err)

	_, err = f.cash.Open(f.ctx, f.manager, models.OpenCashSessionRequest{OpeningCashCents: 500})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	current, err := f.cash.Current(f.ctx, f.manager)
	require.NoError(t, err)
	assert.Equal(t, first.ID, current.ID)

	other := models.Actor{TenantID: uuid.New(), UserID: uuid.New(), Role: models.RoleCashier}
	_, err = f.cash.Open(f.ctx, other, models.OpenCashSessionRequest{})
	assert.NoError(t, err, "sessions are per tenant")
}

func TestCashSessionService_CloseWithoutOpenSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.cash.Close(f.ctx, f.cashier, models.CloseCashSessionRequest{ClosingCashCents: 100})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCashSessionService_ReopenAfterClose(t *testing.T) {
	f := newFixture(t)
	_, err := f.cash.Open(f.ctx, f.cashier, models.OpenCashSessionRequest{})
	require.NoError(t, err)
	_, err = f.cash.Close(f.ctx, f.cashier, models.CloseCashSessionRequest{})
	require.NoError(t, err)
	_, err = f.cash.Open(f.ctx, f.cashier, models.OpenCashSessionRequest{OpeningCashCents: 200})
	require.NoError(t, err)

	sessions, total, err := f.cash.List(f.ctx, f.manager, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, sessions, 2)
}

func TestCashSessionService_Summary(t *testing.T) {
	f := newFixture(t)
	session, err := f.cash.Open(f.ctx, f.cashier, models.OpenCashSessionRequest{OpeningCashCents: 1000})
	require.NoError(t, err)

	f.paidOrder(t, 1500, models.PaymentProviderCash)
	f.paidOrder(t, 2500, models.PaymentProviderCard)
	cancelled := f.orderWithItems(t, 700, 1)
	_, err = f.orders.CancelOrder(f.ctx, f.manager, cancelled.ID, models.CancelOrderRequest{Reason: "test"})
	require.NoError(t, err)
	f.orderWithItems(t, 900, 1) // still open, ignored

	summary, err := f.cash.Summary(f.ctx, f.manager, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.PaidOrders)
	assert.Equal(t, 1, summary.CancelledOrders)
	assert.Equal(t, int64(4000), summary.SalesCents)
	assert.Equal(t, int64(1500), summary.PaymentsByMethod[models.PaymentProviderCash])
	assert.Equal(t, int64(2500), summary.PaymentsByMethod[models.PaymentProviderCard])
	assert.Equal(t, session.OpenedAt, summary.From)
}

func TestSummarizeShift(t *testing.T) {
	from := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	to := from.Add(8 * time.Hour)
	sessionID := uuid.New()

	orders := []models.Order{
		{
			Status:        models.OrderStatusPaid,
			SubtotalCents: 2000,
			DiscountCents: 200,
			TaxCents:      100,
			TipCents:      300,
			TotalCents:    1900,
			Items: []models.OrderItem{
				{Status: models.ItemStatusServed},
				{Status: models.ItemStatusVoid},
			},
			Payments: []models.Payment{
				{Provider: models.PaymentProviderCash, Status: models.PaymentStatusCaptured, AmountCents: 1000},
				{Provider: models.PaymentProviderCard, Status: models.PaymentStatusCaptured, AmountCents: 900},
				{Provider: models.PaymentProviderCard, Status: models.PaymentStatusRefunded, AmountCents: 400},
				{Provider: models.PaymentProviderCard, Status: models.PaymentStatusFailed, AmountCents: 900},
			},
		},
		{
			Status: models.OrderStatusCancelled,
			Items:  []models.OrderItem{{Status: models.ItemStatusVoid}},
		},
		{
			Status:     models.OrderStatusForPayment,
			TotalCents: 5000,
			Payments: []models.Payment{
				{Provider: models.PaymentProviderCash, Status: models.PaymentStatusCaptured, AmountCents: 2500},
			},
		},
	}

	got := services.SummarizeShift(sessionID, from, to, orders)

	assert.Equal(t, sessionID, got.SessionID)
	assert.Equal(t, 1, got.PaidOrders)
	assert.Equal(t, 1, got.CancelledOrders)
	assert.Equal(t, int64(1900), got.SalesCents)
	assert.Equal(t, int64(2000), got.SubtotalCents)
	assert.Equal(t, int64(200), got.DiscountCents)
	assert.Equal(t, int64(100), got.TaxCents)
	assert.Equal(t, int64(300), got.TipCents)
	assert.Equal(t, int64(400), got.RefundCents)
	assert.Equal(t, 2, got.VoidItemCount)
	assert.Equal(t, map[models.PaymentProvider]int64{
		models.PaymentProviderCash: 1000,
		models.PaymentProviderCard: 900,
	}, got.PaymentsByMethod)
}

func TestSummarizeShift_Empty(t *testing.T) {
	got := services.SummarizeShift(uuid.New(), time.Time{}, time.Time{}, nil)
	assert.Zero(t, got.PaidOrders)
	assert.NotNil(t, got.PaymentsByMethod)
}
