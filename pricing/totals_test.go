package pricing_test

import (
	"testing"

	"pos-service/models"
	"pos-service/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func item(price int64, qty int, status models.ItemStatus) models.OrderItem {
	return models.OrderItem{
		ID:             uuid.New(),
		ProductID:      uuid.New(),
		UnitPriceCents: price,
		Quantity:       qty,
		Status:         status,
	}
}

func TestCalculateTotals_SingleLineWithTax(t *testing.T) {
	items := []models.OrderItem{item(1000, 2, models.ItemStatusNew)}

	got := pricing.CalculateTotals(items, 0, decimal.RequireFromString("0.05"))

	assert.Equal(t, int64(2000), got.SubtotalCents)
	assert.Equal(t, int64(100), got.TaxCents)
	assert.Equal(t, int64(2100), got.TotalCents)
}

func TestCalculateTotals_DiscountDoesNotReduceTaxBase(t *testing.T) {
	items := []models.OrderItem{item(1000, 2, models.ItemStatusNew)}
	discount := pricing.DiscountAmount(models.DiscountTypePercentage, 1000, pricing.SubtotalCents(items))

	got := pricing.CalculateTotals(items, discount, decimal.RequireFromString("0.05"))

	assert.Equal(t, int64(200), got.DiscountCents)
	assert.Equal(t, int64(100), got.TaxCents)
	assert.Equal(t, int64(1900), got.TotalCents)
}

func TestCalculateTotals_IgnoresVoidItems(t *testing.T) {
	items := []models.OrderItem{
		item(500, 1, models.ItemStatusSent),
		item(9999, 3, models.ItemStatusVoid),
	}

	got := pricing.CalculateTotals(items, 0, decimal.Zero)

	assert.Equal(t, int64(500), got.SubtotalCents)
	assert.Equal(t, int64(0), got.TaxCents)
	assert.Equal(t, int64(500), got.TotalCents)
}

func TestTaxCents_RoundsHalfUp(t *testing.T) {
	rate := decimal.RequireFromString("0.05")

	assert.Equal(t, int64(1), pricing.TaxCents(10, rate), "0.5 rounds up")
	assert.Equal(t, int64(0), pricing.TaxCents(9, rate), "0.45 rounds down")
	assert.Equal(t, int64(0), pricing.TaxCents(0, rate))
	assert.Equal(t, int64(0), pricing.TaxCents(1000, decimal.Zero))
}

func TestTotalCents_FloorsAtZero(t *testing.T) {
	assert.Equal(t, int64(0), pricing.TotalCents(100, 500, 5))
	assert.Equal(t, int64(105), pricing.TotalCents(100, 0, 5))
}

func TestRecompute_UsesAppliedDiscounts(t *testing.T) {
	o := &models.Order{
		Items: []models.OrderItem{item(1000, 2, models.ItemStatusNew)},
		Discounts: []models.AppliedDiscount{
			{AmountCents: 150},
			{AmountCents: 50},
		},
		TipCents: 300,
	}

	pricing.Recompute(o, decimal.RequireFromString("0.05"))

	assert.Equal(t, int64(2000), o.SubtotalCents)
	assert.Equal(t, int64(200), o.DiscountCents)
	assert.Equal(t, int64(100), o.TaxCents)
	assert.Equal(t, int64(1900), o.TotalCents)
	assert.Equal(t, int64(300), o.TipCents)
}

func TestDiscountAmount(t *testing.T) {
	tests := []struct {
		name       string
		typ        models.DiscountType
		value      int64
		applicable int64
		want       int64
	}{
		{"percentage ten", models.DiscountTypePercentage, 1000, 2000, 200},
		{"percentage rounds half up", models.DiscountTypePercentage, 1250, 1004, 126},
		{"percentage full", models.DiscountTypePercentage, 10000, 777, 777},
		{"fixed below subtotal", models.DiscountTypeFixed, 300, 2000, 300},
		{"fixed capped at subtotal", models.DiscountTypeFixed, 5000, 2000, 2000},
		{"bogo even", models.DiscountTypeBOGO, 0, 2000, 1000},
		{"bogo odd rounds up", models.DiscountTypeBOGO, 0, 999, 500},
		{"nothing applicable", models.DiscountTypeFixed, 300, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pricing.DiscountAmount(tt.typ, tt.value, tt.applicable))
		})
	}
}

func TestApplicableSubtotal_Scopes(t *testing.T) {
	drinks := uuid.New()
	food := uuid.New()

	coffee := item(300, 2, models.ItemStatusNew)
	coffee.CategoryID = &drinks
	burger := item(1200, 1, models.ItemStatusSent)
	burger.CategoryID = &food
	voided := item(400, 1, models.ItemStatusVoid)
	voided.CategoryID = &drinks
	items := []models.OrderItem{coffee, burger, voided}

	assert.Equal(t, int64(1800), pricing.ApplicableSubtotal(items, models.DiscountScopeOrder, nil, nil))
	assert.Equal(t, int64(600), pricing.ApplicableSubtotal(items, models.DiscountScopeCategory, []uuid.UUID{drinks}, nil))
	assert.Equal(t, int64(1200), pricing.ApplicableSubtotal(items, models.DiscountScopeProduct, nil, []uuid.UUID{burger.ProductID}))
	assert.Equal(t, int64(0), pricing.ApplicableSubtotal(items, models.DiscountScopeProduct, nil, []uuid.UUID{voided.ProductID}))
}
