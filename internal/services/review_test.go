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

// newOrderWithProduct writes a payment, an order in the given status,
// and one order item snapshotting the fixture product.
func newOrderWithProduct(t *testing.T, f *storeFixture, userID string, status models.OrderStatus, productID string) *models.Order {
	t.Helper()

	payment := &models.Payment{Status: models.PaymentStatusSucceeded}
	require.NoError(t, f.db.Create(payment).Error)

	order := &models.Order{
		UserID:    userID,
		ShopID:    f.shop.ID,
		PaymentID: payment.ID,
		Status:    status,
	}
	require.NoError(t, f.db.Create(order).Error)

	item := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   productID,
		ProductName: "Keyboard",
		SKUID:       f.sku.ID,
		SKUPrice:    f.sku.Price,
		SKUValue:    f.sku.Value,
		Quantity:    1,
	}
	require.NoError(t, f.db.Create(item).Error)
	return order
}

func TestCreateReview_VerifiedPurchase(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewReviewService(gdb)
	order := newOrderWithProduct(t, f, f.buyer.ID, models.OrderStatusDelivered, f.product.ID)

	review, err := svc.Create(context.Background(), f.buyer.ID, ReviewInput{
		OrderID:   order.ID,
		ProductID: f.product.ID,
		Content:   "Great keyboard",
		Rating:    5,
	})
	require.NoError(t, err)
	assert.Equal(t, f.buyer.ID, review.UserID)
	assert.Equal(t, order.ID, review.OrderID)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, 0, review.UpdateCount)
}

func TestCreateReview_OrderNotDelivered(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewReviewService(gdb)
	order := newOrderWithProduct(t, f, f.buyer.ID, models.OrderStatusPendingDelivery, f.product.ID)

	_, err := svc.Create(context.Background(), f.buyer.ID, ReviewInput{
		OrderID:   order.ID,
		ProductID: f.product.ID,
		Content:   "Too early",
		Rating:    3,
	})
	assert.ErrorIs(t, err, errs.ErrOrderNotDelivered)
}

func TestCreateReview_ProductNotInOrder(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewReviewService(gdb)
	order := newOrderWithProduct(t, f, f.buyer.ID, models.OrderStatusDelivered, f.product.ID)
	other := f.newSKU(t, f.shop.ID, 3, true)

	_, err := svc.Create(context.Background(), f.buyer.ID, ReviewInput{
		OrderID:   order.ID,
		ProductID: other.ProductID,
		Content:   "Never bought this",
		Rating:    1,
	})
	assert.ErrorIs(t, err, errs.ErrProductNotInOrder)
}

func TestCreateReview_ForeignOrder(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewReviewService(gdb)
	order := newOrderWithProduct(t, f, f.shop.ID, models.OrderStatusDelivered, f.product.ID)

	_, err := svc.Create(context.Background(), f.buyer.ID, ReviewInput{
		OrderID:   order.ID,
		ProductID: f.product.ID,
		Content:   "Not my order",
		Rating:    4,
	})
	assert.ErrorIs(t, err, errs.ErrOrderNotFound)
}

func TestCreateReview_Duplicate(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewReviewService(gdb)
	order := newOrderWithProduct(t, f, f.buyer.ID, models.OrderStatusDelivered, f.product.ID)

	_, err := svc.Create(context.Background(), f.buyer.ID, ReviewInput{
		OrderID: order.ID, ProductID: f.product.ID, Content: "First", Rating: 5,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), f.buyer.ID, ReviewInput{
		OrderID: order.ID, ProductID: f.product.ID, Content: "Second", Rating: 1,
	})
	assert.ErrorIs(t, err, errs.ErrReviewAlreadyExists)
}

func TestUpdateReview_OnceOnly(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewReviewService(gdb)
	order := newOrderWithProduct(t, f, f.buyer.ID, models.OrderStatusDelivered, f.product.ID)

	review, err := svc.Create(context.Background(), f.buyer.ID, ReviewInput{
		OrderID: order.ID, ProductID: f.product.ID, Content: "Good", Rating: 4,
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), review.ID, f.buyer.ID, ReviewInput{
		Content: "Actually great", Rating: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Actually great", updated.Content)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, 1, updated.UpdateCount)

	_, err = svc.Update(context.Background(), review.ID, f.buyer.ID, ReviewInput{
		Content: "Changed my mind again", Rating: 2,
	})
	assert.ErrorIs(t, err, errs.ErrReviewEditLimit)
}

func TestUpdateReview_NotOwner(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewReviewService(gdb)
	order := newOrderWithProduct(t, f, f.buyer.ID, models.OrderStatusDelivered, f.product.ID)

	review, err := svc.Create(context.Background(), f.buyer.ID, ReviewInput{
		OrderID: order.ID, ProductID: f.product.ID, Content: "Mine", Rating: 4,
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), review.ID, f.shop.ID, ReviewInput{
		Content: "Hijacked", Rating: 1,
	})
	assert.ErrorIs(t, err, errs.ErrNotFoundRecord)
}

func TestListReviewsByProduct(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewReviewService(gdb)

	first := newOrderWithProduct(t, f, f.buyer.ID, models.OrderStatusDelivered, f.product.ID)
	second := newOrderWithProduct(t, f, f.shop.ID, models.OrderStatusDelivered, f.product.ID)

	older := &models.Review{
		Content: "Old take", Rating: 3,
		ProductID: f.product.ID, UserID: f.buyer.ID, OrderID: first.ID,
	}
	require.NoError(t, gdb.Create(older).Error)
	require.NoError(t, gdb.Model(older).UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)

	newer := &models.Review{
		Content: "Fresh take", Rating: 5,
		ProductID: f.product.ID, UserID: f.shop.ID, OrderID: second.ID,
	}
	require.NoError(t, gdb.Create(newer).Error)

	reviews, total, err := svc.ListByProduct(context.Background(), f.product.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, reviews, 2)
	assert.Equal(t, "Fresh take", reviews[0].Content)
	require.NotNil(t, reviews[0].User)
	assert.Equal(t, f.shop.Name, reviews[0].User.Name)
}

func TestListReviewsByProduct_SkipsDeleted(t *testing.T) {
	gdb := newTestDB(t)
	f := newStoreFixture(t, gdb)
	svc := NewReviewService(gdb)
	order := newOrderWithProduct(t, f, f.buyer.ID, models.OrderStatusDelivered, f.product.ID)

	review := &models.Review{
		Content: "Removed", Rating: 1,
		ProductID: f.product.ID, UserID: f.buyer.ID, OrderID: order.ID,
	}
	require.NoError(t, gdb.Create(review).Error)
	now := time.Now()
	require.NoError(t, gdb.Model(review).UpdateColumn("deleted_at", now).Error)

	reviews, total, err := svc.ListByProduct(context.Background(), f.product.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, reviews)

	_, err = svc.Get(context.Background(), review.ID)
	assert.ErrorIs(t, err, errs.ErrNotFoundRecord)
}
