package services_test

import (
	"testing"
	"time"

	apperrors "pos-service/common/errors"
	"pos-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountService_CreateDiscount(t *testing.T) {
	f := newFixture(t)
	cat := uuid.New()

	d, err := f.discounts.CreateDiscount(f.ctx, f.manager, models.CreateDiscountRequest{
		Name:        "Two for one",
		Code:        " bogo ",
		Type:        models.DiscountTypeBOGO,
		Value:       5,
		Scope:       models.DiscountScopeCategory,
		CategoryIDs: []uuid.UUID{cat},
		ProductIDs:  []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)
	require.NotNil(t, d.Code)
	assert.Equal(t, "BOGO", *d.Code)
	assert.Equal(t, int64(0), d.Value)
	assert.Equal(t, []uuid.UUID{cat}, d.CategoryIDs)
	assert.Empty(t, d.ProductIDs)
	assert.Equal(t, models.DiscountStatusActive, d.Status)

	_, err = f.discounts.CreateDiscount(f.ctx, f.manager, models.CreateDiscountRequest{
		Name: "Clash", Code: "Bogo", Type: models.DiscountTypeFixed, Value: 100,
	})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestDiscountService_CreateDiscount_DefaultsToOrderScope(t *testing.T) {
	f := newFixture(t)
	d := f.percentDiscount(t, 1500, nil)
	assert.Equal(t, models.DiscountScopeOrder, d.Scope)
	assert.Nil(t, d.Code)
}

func TestDiscountService_CreateDiscount_Validation(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name string
		req  models.CreateDiscountRequest
	}{
		{"percentage above 100%", models.CreateDiscountRequest{Name: "x", Type: models.DiscountTypePercentage, Value: 10001}},
		{"percentage zero", models.CreateDiscountRequest{Name: "x", Type: models.DiscountTypePercentage}},
		{"fixed zero", models.CreateDiscountRequest{Name: "x", Type: models.DiscountTypeFixed}},
		{"unknown type", models.CreateDiscountRequest{Name: "x", Type: "FREE", Value: 1}},
		{"category scope without ids", models.CreateDiscountRequest{Name: "x", Type: models.DiscountTypeFixed, Value: 1, Scope: models.DiscountScopeCategory}},
		{"product scope without ids", models.CreateDiscountRequest{Name: "x", Type: models.DiscountTypeFixed, Value: 1, Scope: models.DiscountScopeProduct}},
		{"window reversed", models.CreateDiscountRequest{Name: "x", Type: models.DiscountTypeFixed, Value: 1, StartsAt: &now, EndsAt: &earlier}},
		{"max usage zero", models.CreateDiscountRequest{Name: "x", Type: models.DiscountTypeFixed, Value: 1, MaxUsageCount: intPtr(0)}},
		{"blank name", models.CreateDiscountRequest{Name: "  ", Type: models.DiscountTypeFixed, Value: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.discounts.CreateDiscount(f.ctx, f.manager, tt.req)
			assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		})
	}
}

func TestDiscountService_CashierCannotManageDiscounts(t *testing.T) {
	f := newFixture(t)
	_, err := f.discounts.CreateDiscount(f.ctx, f.cashier, models.CreateDiscountRequest{
		Name: "x", Type: models.DiscountTypeFixed, Value: 100,
	})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	d := f.percentDiscount(t, 1000, nil)
	err = f.discounts.ArchiveDiscount(f.ctx, f.cashier, d.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestDiscountService_ListAndArchive(t *testing.T) {
	f := newFixture(t)
	kept := f.percentDiscount(t, 1000, nil)
	gone := f.percentDiscount(t, 2000, nil)
	require.NoError(t, f.discounts.ArchiveDiscount(f.ctx, f.manager, gone.ID))

	active := models.DiscountStatusActive
	list, total, err := f.discounts.ListDiscounts(f.ctx, f.cashier, models.DiscountFilter{Status: &active}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)

	err = f.discounts.ArchiveDiscount(f.ctx, f.manager, uuid.New())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
