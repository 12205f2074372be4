package services_test

import (
	"testing"

	apperrors "pos-service/common/errors"
	"pos-service/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_WritesRequireManager(t *testing.T) {
	f := newFixture(t)

	_, err := f.catalog.CreateCategory(f.ctx, f.cashier, models.CreateCategoryRequest{Name: "Food"})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	_, err = f.catalog.CreateProduct(f.ctx, f.cashier, models.CreateProductRequest{Name: "Tea", SKU: "TEA", PriceCents: 200})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	_, err = f.catalog.CreateTaxRate(f.ctx, f.cashier, models.CreateTaxRateRequest{Name: "VAT", Rate: decimal.RequireFromString("0.1")})
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestCatalogService_CreateProduct(t *testing.T) {
	f := newFixture(t)
	food, err := f.catalog.CreateCategory(f.ctx, f.manager, models.CreateCategoryRequest{Name: " Food "})
	require.NoError(t, err)
	assert.Equal(t, "Food", food.Name)

	p, err := f.catalog.CreateProduct(f.ctx, f.manager, models.CreateProductRequest{
		Name: "Soup", SKU: "SOUP-1", PriceCents: 650, CategoryID: &food.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleActive, p.Status)

	_, err = f.catalog.CreateProduct(f.ctx, f.manager, models.CreateProductRequest{Name: "Soup again", SKU: "SOUP-1", PriceCents: 700})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	missing := uuid.New()
	_, err = f.catalog.CreateProduct(f.ctx, f.manager, models.CreateProductRequest{Name: "Bread", SKU: "BREAD", CategoryID: &missing})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	_, err = f.catalog.CreateProduct(f.ctx, f.manager, models.CreateProductRequest{Name: "Bad", SKU: "BAD", PriceCents: -1})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	products, total, err := f.catalog.ListProducts(f.ctx, f.cashier, models.ProductFilter{CategoryID: &food.ID}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, p.ID, products[0].ID)
}

func TestCatalogService_CreateCategory_Duplicate(t *testing.T) {
	f := newFixture(t)
	_, err := f.catalog.CreateCategory(f.ctx, f.manager, models.CreateCategoryRequest{Name: "Drinks"})
	require.NoError(t, err)

	_, err = f.catalog.CreateCategory(f.ctx, f.manager, models.CreateCategoryRequest{Name: "Drinks"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestCatalogService_ProductCache(t *testing.T) {
	f := newFixture(t)
	p := f.newProduct(t, 400, nil)
	o := f.newOrder(t)

	f.addItem(t, o.ID, p.ID, 1)
	f.addItem(t, o.ID, p.ID, 1)
	assert.Equal(t, 1, f.cache.hits)

	archived, err := f.catalog.ArchiveProduct(f.ctx, f.manager, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LifecycleArchived, archived.Status)
	assert.Equal(t, []uuid.UUID{p.ID}, f.cache.invalidated)

	_, err = f.orders.AddItem(f.ctx, f.cashier, o.ID, models.AddItemRequest{ProductID: p.ID, Quantity: 1})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCatalogService_UpdateProduct(t *testing.T) {
	f := newFixture(t)
	p := f.newProduct(t, 400, nil)

	name := "Flat white"
	got, err := f.catalog.UpdateProduct(f.ctx, f.manager, p.ID, models.UpdateProductRequest{Name: &name, PriceCents: int64Ptr(450)})
	require.NoError(t, err)
	assert.Equal(t, "Flat white", got.Name)
	assert.Equal(t, int64(450), got.PriceCents)
	assert.Equal(t, p.SKU, got.SKU)

	_, err = f.catalog.UpdateProduct(f.ctx, f.manager, uuid.New(), models.UpdateProductRequest{Name: &name})
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCatalogService_DefaultTaxRateSwitches(t *testing.T) {
	f := newFixture(t)
	f.withTaxRate(t, "0.05")
	reduced, err := f.catalog.CreateTaxRate(f.ctx, f.manager, models.CreateTaxRateRequest{
		Name: "Reduced", Rate: decimal.RequireFromString("0.10"), IsDefault: true,
	})
	require.NoError(t, err)

	rates, err := f.catalog.ListTaxRates(f.ctx, f.cashier)
	require.NoError(t, err)
	require.Len(t, rates, 2)
	defaults := 0
	for _, r := range rates {
		if r.IsDefault {
			defaults++
			assert.Equal(t, reduced.ID, r.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	o := f.orderWithItems(t, 1000, 1)
	assert.Equal(t, int64(100), o.TaxCents)
	assert.Equal(t, int64(1100), o.TotalCents)
}

func TestCatalogService_TaxRateBounds(t *testing.T) {
	f := newFixture(t)
	for _, rate := range []string{"-0.01", "1.5"} {
		_, err := f.catalog.CreateTaxRate(f.ctx, f.manager, models.CreateTaxRateRequest{Name: "Bad", Rate: decimal.RequireFromString(rate)})
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err), rate)
	}
}
