package services

import (
	"context"
	"testing"
	"time"

	"gomall/internal/errs"
	"gomall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSKU(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewCartService(gdb)
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		sku, err := svc.ValidateSKU(ctx, f.sku.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, f.sku.ID, sku.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.ValidateSKU(ctx, "22222222-2222-2222-2222-222222222222", 1)
		assert.ErrorIs(t, err, errs.ErrNotFoundSKU)
	})

	t.Run("soft-deleted sku", func(t *testing.T) {
		deleted := f.newSKU(t, f.shop.ID, 3, true)
		require.NoError(t, gdb.Model(deleted).Update("deleted_at", time.Now()).Error)
		_, err := svc.ValidateSKU(ctx, deleted.ID, 1)
		assert.ErrorIs(t, err, errs.ErrNotFoundSKU)
	})

	t.Run("quantity above stock", func(t *testing.T) {
		_, err := svc.ValidateSKU(ctx, f.sku.ID, 6)
		assert.ErrorIs(t, err, errs.ErrOutOfStock)
	})

	t.Run("zero stock", func(t *testing.T) {
		empty := f.newSKU(t, f.shop.ID, 0, true)
		_, err := svc.ValidateSKU(ctx, empty.ID, 1)
		assert.ErrorIs(t, err, errs.ErrOutOfStock)
	})

	t.Run("unpublished product", func(t *testing.T) {
		draft := f.newSKU(t, f.shop.ID, 3, false)
		_, err := svc.ValidateSKU(ctx, draft.ID, 1)
		assert.ErrorIs(t, err, errs.ErrProductNotFound)
	})

	t.Run("future publication", func(t *testing.T) {
		future := f.newSKU(t, f.shop.ID, 3, false)
		at := time.Now().Add(time.Hour)
		require.NoError(t, gdb.Model(&models.Product{}).Where("id = ?", future.ProductID).
			Update("published_at", at).Error)
		_, err := svc.ValidateSKU(ctx, future.ID, 1)
		assert.ErrorIs(t, err, errs.ErrProductNotFound)
	})
}

func TestAddToCart(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewCartService(gdb)
	ctx := context.Background()

	item, err := svc.AddToCart(ctx, f.buyer.ID, f.sku.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	// Same SKU again accumulates instead of duplicating.
	item, err = svc.AddToCart(ctx, f.buyer.ID, f.sku.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	var count int64
	require.NoError(t, gdb.Model(&models.CartItem{}).Where("user_id = ?", f.buyer.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The accumulated quantity is what gets validated, not the delta.
	_, err = svc.AddToCart(ctx, f.buyer.ID, f.sku.ID, 3)
	assert.ErrorIs(t, err, errs.ErrOutOfStock)
}

func TestUpdateCartItem(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewCartService(gdb)
	ctx := context.Background()

	item := f.addCartItem(t, f.sku.ID, 1)
	other := f.newSKU(t, f.shop.ID, 2, true)

	updated, err := svc.UpdateCartItem(ctx, f.buyer.ID, item.ID, other.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, other.ID, updated.SKUID)
	assert.Equal(t, 2, updated.Quantity)

	_, err = svc.UpdateCartItem(ctx, f.buyer.ID, item.ID, other.ID, 3)
	assert.ErrorIs(t, err, errs.ErrOutOfStock)

	_, err = svc.UpdateCartItem(ctx, f.shop.ID, item.ID, other.ID, 1)
	assert.ErrorIs(t, err, errs.ErrNotFoundCartItem)
}

func TestListCart_GroupsByShop(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewCartService(gdb)
	ctx := context.Background()

	role := &models.Role{Name: "SELLER3", IsActive: true}
	require.NoError(t, gdb.Create(role).Error)
	otherShop := &models.User{Email: "shop2@example.com", Password: "x", Name: "Shop 2", RoleID: role.ID}
	require.NoError(t, gdb.Create(otherShop).Error)
	otherSKU := f.newSKU(t, otherShop.ID, 4, true)

	f.addCartItem(t, f.sku.ID, 1)
	f.addCartItem(t, otherSKU.ID, 2)

	groups, total, err := svc.ListCart(ctx, f.buyer.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, groups, 2)

	byShop := make(map[string]CartShopGroup)
	for _, g := range groups {
		byShop[g.ShopID] = g
	}
	assert.Len(t, byShop[f.shop.ID].Items, 1)
	assert.Len(t, byShop[otherShop.ID].Items, 1)
}

func TestDeleteCartItems(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewCartService(gdb)
	ctx := context.Background()

	item := f.addCartItem(t, f.sku.ID, 1)
	foreign := &models.CartItem{UserID: f.shop.ID, SKUID: f.sku.ID, Quantity: 1}
	require.NoError(t, gdb.Create(foreign).Error)

	deleted, err := svc.DeleteCartItems(ctx, f.buyer.ID, []string{item.ID, foreign.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "foreign items are skipped")

	// Hard delete: the row is gone, not stamped.
	var count int64
	require.NoError(t, gdb.Unscoped().Model(&models.CartItem{}).Where("id = ?", item.ID).Count(&count).Error)
	assert.Zero(t, count)
}
