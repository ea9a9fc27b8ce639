package services

import (
	"context"
	"encoding/json"
	"testing"

	"gomall/internal/errs"
	"gomall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiver() models.OrderReceiver {
	return models.OrderReceiver{Name: "Alice", Phone: "0123456789", Address: "1 Main St"}
}

func TestPlaceOrder_EndToEnd(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	scheduler := &fakeScheduler{}
	svc := NewOrderService(gdb, scheduler)
	ctx := context.Background()

	item := f.addCartItem(t, f.sku.ID, 2)

	orders, payment, err := svc.PlaceOrder(ctx, f.buyer.ID, []OrderGroup{{
		ShopID:      f.shop.ID,
		Receiver:    receiver(),
		CartItemIDs: []string{item.ID},
	}})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.NotNil(t, payment)

	order := orders[0]
	assert.Equal(t, models.OrderStatusPendingPayment, order.Status)
	assert.Equal(t, f.shop.ID, order.ShopID)
	assert.Equal(t, f.buyer.ID, order.UserID)
	assert.Equal(t, payment.ID, order.PaymentID)

	require.Len(t, order.Items, 1)
	snapshot := order.Items[0]
	assert.Equal(t, 2, snapshot.Quantity)
	assert.Equal(t, "Keyboard", snapshot.ProductName)
	assert.Equal(t, 55.0, snapshot.SKUPrice)
	assert.Equal(t, "Black", snapshot.SKUValue)

	var translations []models.ProductTranslationSnapshot
	require.NoError(t, json.Unmarshal(snapshot.ProductTranslations, &translations))
	assert.Len(t, translations, 2)

	// Stock decremented, cart emptied, expiry scheduled.
	var sku models.SKU
	require.NoError(t, gdb.First(&sku, "id = ?", f.sku.ID).Error)
	assert.Equal(t, 3, sku.Stock)

	var cartCount int64
	require.NoError(t, gdb.Model(&models.CartItem{}).Where("user_id = ?", f.buyer.ID).Count(&cartCount).Error)
	assert.Zero(t, cartCount)

	assert.Equal(t, []string{payment.ID}, scheduler.scheduled)
}

func TestPlaceOrder_MultiShopSharesPayment(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})
	ctx := context.Background()

	role := &models.Role{Name: "SELLER2", IsActive: true}
	require.NoError(t, gdb.Create(role).Error)
	otherShop := &models.User{Email: "other@example.com", Password: "x", Name: "Other", RoleID: role.ID}
	require.NoError(t, gdb.Create(otherShop).Error)
	otherSKU := f.newSKU(t, otherShop.ID, 3, true)

	item1 := f.addCartItem(t, f.sku.ID, 1)
	item2 := f.addCartItem(t, otherSKU.ID, 1)

	orders, payment, err := svc.PlaceOrder(ctx, f.buyer.ID, []OrderGroup{
		{ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item1.ID}},
		{ShopID: otherShop.ID, Receiver: receiver(), CartItemIDs: []string{item2.ID}},
	})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, payment.ID, orders[0].PaymentID)
	assert.Equal(t, payment.ID, orders[1].PaymentID)
	assert.NotEqual(t, orders[0].ShopID, orders[1].ShopID)
}

// One invalid group poisons the whole batch: nothing is persisted and
// the cart survives untouched.
func TestPlaceOrder_BatchAtomicity(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})
	ctx := context.Background()

	item1 := f.addCartItem(t, f.sku.ID, 1)
	// Declared under the wrong shop on purpose.
	foreignSKU := f.newSKU(t, f.buyer.ID, 3, true)
	item2 := f.addCartItem(t, foreignSKU.ID, 1)

	_, _, err := svc.PlaceOrder(ctx, f.buyer.ID, []OrderGroup{
		{ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item1.ID}},
		{ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item2.ID}},
	})
	assert.ErrorIs(t, err, errs.ErrSKUNotBelongToShop)

	var orderCount, itemCount, cartCount int64
	require.NoError(t, gdb.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, gdb.Model(&models.OrderItem{}).Count(&itemCount).Error)
	require.NoError(t, gdb.Model(&models.CartItem{}).Count(&cartCount).Error)
	assert.Zero(t, orderCount)
	assert.Zero(t, itemCount)
	assert.Equal(t, int64(2), cartCount)

	var sku models.SKU
	require.NoError(t, gdb.First(&sku, "id = ?", f.sku.ID).Error)
	assert.Equal(t, 5, sku.Stock, "stock must be untouched after rollback")
}

func TestPlaceOrder_StaleCartItemID(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})

	item := f.addCartItem(t, f.sku.ID, 1)
	_, _, err := svc.PlaceOrder(context.Background(), f.buyer.ID, []OrderGroup{{
		ShopID:      f.shop.ID,
		Receiver:    receiver(),
		CartItemIDs: []string{item.ID, "11111111-1111-1111-1111-111111111111"},
	}})
	assert.ErrorIs(t, err, errs.ErrNotFoundCartItem)
}

// Referencing the same cart item twice must fail outright. If it
// slipped through, the batch would snapshot the quantity twice while
// decrementing stock once.
func TestPlaceOrder_DuplicateCartItemID(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})

	item := f.addCartItem(t, f.sku.ID, 2)
	_, _, err := svc.PlaceOrder(context.Background(), f.buyer.ID, []OrderGroup{{
		ShopID:      f.shop.ID,
		Receiver:    receiver(),
		CartItemIDs: []string{item.ID, item.ID},
	}})
	assert.ErrorIs(t, err, errs.ErrNotFoundCartItem)

	var orderCount int64
	require.NoError(t, gdb.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)

	var sku models.SKU
	require.NoError(t, gdb.First(&sku, "id = ?", f.sku.ID).Error)
	assert.Equal(t, 5, sku.Stock)
}

// A duplicate spread across two shop groups is caught the same way.
func TestPlaceOrder_DuplicateAcrossGroups(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})

	item := f.addCartItem(t, f.sku.ID, 1)
	_, _, err := svc.PlaceOrder(context.Background(), f.buyer.ID, []OrderGroup{
		{ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item.ID}},
		{ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item.ID}},
	})
	assert.ErrorIs(t, err, errs.ErrNotFoundCartItem)
}

func TestPlaceOrder_ForeignCartItemID(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})

	// An item owned by another user is invisible to the fetch.
	other := &models.CartItem{UserID: f.shop.ID, SKUID: f.sku.ID, Quantity: 1}
	require.NoError(t, gdb.Create(other).Error)

	_, _, err := svc.PlaceOrder(context.Background(), f.buyer.ID, []OrderGroup{{
		ShopID:      f.shop.ID,
		Receiver:    receiver(),
		CartItemIDs: []string{other.ID},
	}})
	assert.ErrorIs(t, err, errs.ErrNotFoundCartItem)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})

	item := f.addCartItem(t, f.sku.ID, 6)
	_, _, err := svc.PlaceOrder(context.Background(), f.buyer.ID, []OrderGroup{{
		ShopID:      f.shop.ID,
		Receiver:    receiver(),
		CartItemIDs: []string{item.ID},
	}})
	assert.ErrorIs(t, err, errs.ErrOutOfStock)
}

func TestPlaceOrder_LastUnitGoesToOneBuyer(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})
	ctx := context.Background()

	scarce := f.newSKU(t, f.shop.ID, 1, true)
	item1 := f.addCartItem(t, scarce.ID, 1)

	_, _, err := svc.PlaceOrder(ctx, f.buyer.ID, []OrderGroup{{
		ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item1.ID},
	}})
	require.NoError(t, err)

	item2 := f.addCartItem(t, scarce.ID, 1)
	_, _, err = svc.PlaceOrder(ctx, f.buyer.ID, []OrderGroup{{
		ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item2.ID},
	}})
	assert.ErrorIs(t, err, errs.ErrOutOfStock)

	var sku models.SKU
	require.NoError(t, gdb.First(&sku, "id = ?", scarce.ID).Error)
	assert.Equal(t, 0, sku.Stock, "stock must never go negative")
}

func TestPlaceOrder_UnpublishedProduct(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})

	unpublished := f.newSKU(t, f.shop.ID, 3, false)
	item := f.addCartItem(t, unpublished.ID, 1)

	_, _, err := svc.PlaceOrder(context.Background(), f.buyer.ID, []OrderGroup{{
		ShopID:      f.shop.ID,
		Receiver:    receiver(),
		CartItemIDs: []string{item.ID},
	}})
	assert.ErrorIs(t, err, errs.ErrProductNotFound)
}

func TestPlaceOrder_SchedulerFailureDoesNotUndoCheckout(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{err: assert.AnError})
	ctx := context.Background()

	item := f.addCartItem(t, f.sku.ID, 1)
	orders, _, err := svc.PlaceOrder(ctx, f.buyer.ID, []OrderGroup{{
		ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item.ID},
	}})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestCancelOrder(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})
	ctx := context.Background()

	item := f.addCartItem(t, f.sku.ID, 1)
	orders, _, err := svc.PlaceOrder(ctx, f.buyer.ID, []OrderGroup{{
		ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item.ID},
	}})
	require.NoError(t, err)
	orderID := orders[0].ID

	cancelled, err := svc.CancelOrder(ctx, f.buyer.ID, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	// Second cancel is rejected: the order is no longer pending.
	_, err = svc.CancelOrder(ctx, f.buyer.ID, orderID)
	assert.ErrorIs(t, err, errs.ErrCannotCancelOrder)
}

func TestCancelOrder_NotOwned(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})
	ctx := context.Background()

	item := f.addCartItem(t, f.sku.ID, 1)
	orders, _, err := svc.PlaceOrder(ctx, f.buyer.ID, []OrderGroup{{
		ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item.ID},
	}})
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, f.shop.ID, orders[0].ID)
	assert.ErrorIs(t, err, errs.ErrOrderNotFound)
}

func TestGetAndListOrders(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})
	ctx := context.Background()

	item := f.addCartItem(t, f.sku.ID, 2)
	orders, _, err := svc.PlaceOrder(ctx, f.buyer.ID, []OrderGroup{{
		ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item.ID},
	}})
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, f.buyer.ID, orders[0].ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	_, err = svc.GetOrder(ctx, f.shop.ID, orders[0].ID)
	assert.ErrorIs(t, err, errs.ErrOrderNotFound)

	pending := models.OrderStatusPendingPayment
	listed, total, err := svc.ListOrders(ctx, f.buyer.ID, &pending, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, listed, 1)

	cancelledStatus := models.OrderStatusCancelled
	listed, total, err = svc.ListOrders(ctx, f.buyer.ID, &cancelledStatus, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, listed)
}

func TestPaymentTotal(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewOrderService(gdb, &fakeScheduler{})
	ctx := context.Background()

	item := f.addCartItem(t, f.sku.ID, 2)
	_, payment, err := svc.PlaceOrder(ctx, f.buyer.ID, []OrderGroup{{
		ShopID: f.shop.ID, Receiver: receiver(), CartItemIDs: []string{item.ID},
	}})
	require.NoError(t, err)

	total, err := svc.PaymentTotal(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, 110.0, total)
}
