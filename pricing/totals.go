// Package pricing holds the pure money and status rules of an order. Nothing
// here touches storage.
package pricing

import (
	"pos-service/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Totals is the result of a totals calculation, all in minor units.
type Totals struct {
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
}

// SubtotalCents sums unit price times quantity over billable items.
func SubtotalCents(items []models.OrderItem) int64 {
	var sum int64
	for _, it := range items {
		if it.Status == models.ItemStatusVoid {
			continue
		}
		sum += it.LineTotalCents()
	}
	return sum
}

// TaxCents applies rate to subtotal and rounds half-up to whole minor units.
func TaxCents(subtotal int64, rate decimal.Decimal) int64 {
	if subtotal <= 0 || !rate.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(subtotal).Mul(rate).Round(0).IntPart()
}

// TotalCents is subtotal - discount + tax, floored at zero.
func TotalCents(subtotal, discount, tax int64) int64 {
	total := subtotal - discount + tax
	if total < 0 {
		return 0
	}
	return total
}

// CalculateTotals computes order totals. Tax is taken on the pre-discount subtotal.
func CalculateTotals(items []models.OrderItem, discountCents int64, rate decimal.Decimal) Totals {
	subtotal := SubtotalCents(items)
	tax := TaxCents(subtotal, rate)
	return Totals{
		SubtotalCents: subtotal,
		DiscountCents: discountCents,
		TaxCents:      tax,
		TotalCents:    TotalCents(subtotal, discountCents, tax),
	}
}

// Recompute refreshes every monetary field of o from its items and applied
// discounts. TipCents is left alone.
func Recompute(o *models.Order, rate decimal.Decimal) {
	t := CalculateTotals(o.Items, o.AppliedDiscountCents(), rate)
	o.SubtotalCents = t.SubtotalCents
	o.DiscountCents = t.DiscountCents
	o.TaxCents = t.TaxCents
	o.TotalCents = t.TotalCents
}

// ApplicableSubtotal returns the part of the billable subtotal a discount with
// the given scope is computed against.
func ApplicableSubtotal(items []models.OrderItem, scope models.DiscountScope, categoryIDs, productIDs []uuid.UUID) int64 {
	switch scope {
	case models.DiscountScopeCategory:
		var sum int64
		for _, it := range items {
			if it.Status == models.ItemStatusVoid || it.CategoryID == nil {
				continue
			}
			if containsID(categoryIDs, *it.CategoryID) {
				sum += it.LineTotalCents()
			}
		}
		return sum
	case models.DiscountScopeProduct:
		var sum int64
		for _, it := range items {
			if it.Status == models.ItemStatusVoid {
				continue
			}
			if containsID(productIDs, it.ProductID) {
				sum += it.LineTotalCents()
			}
		}
		return sum
	default:
		return SubtotalCents(items)
	}
}

// DiscountAmount computes the monetary effect of a discount on an applicable
// subtotal. PERCENTAGE values are basis points; BOGO is a flat half.
func DiscountAmount(typ models.DiscountType, value, applicable int64) int64 {
	if applicable <= 0 {
		return 0
	}
	switch typ {
	case models.DiscountTypePercentage:
		if value <= 0 {
			return 0
		}
		amount := (applicable*value + 5000) / 10000
		if amount > applicable {
			return applicable
		}
		return amount
	case models.DiscountTypeFixed:
		if value <= 0 {
			return 0
		}
		if value > applicable {
			return applicable
		}
		return value
	case models.DiscountTypeBOGO:
		return (applicable + 1) / 2
	}
	return 0
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
