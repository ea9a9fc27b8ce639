package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gomall/internal/db"
	"gomall/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// storeFixture is the minimal catalog a checkout needs: a buyer, a
// shop, and one published product with a stocked SKU.
type storeFixture struct {
	db      *gorm.DB
	buyer   *models.User
	shop    *models.User
	product *models.Product
	sku     *models.SKU
}

func newStoreFixture(t *testing.T, gdb *gorm.DB) *storeFixture {
	t.Helper()

	role := &models.Role{Name: "CLIENT", IsActive: true}
	require.NoError(t, gdb.Create(role).Error)

	buyer := &models.User{Email: "buyer@example.com", Password: "x", Name: "Buyer", RoleID: role.ID}
	require.NoError(t, gdb.Create(buyer).Error)
	shop := &models.User{Email: "shop@example.com", Password: "x", Name: "Shop", RoleID: role.ID}
	require.NoError(t, gdb.Create(shop).Error)

	published := time.Now().Add(-time.Hour)
	product := &models.Product{
		Name:        "Keyboard",
		BasePrice:   50,
		PublishedAt: &published,
		CreatedByID: shop.ID,
		Translations: []models.ProductTranslation{
			{LanguageID: "en", Name: "Keyboard", Description: "Mechanical keyboard"},
			{LanguageID: "vi", Name: "Ban phim", Description: "Ban phim co"},
		},
	}
	require.NoError(t, gdb.Create(&models.Language{ID: "en", Name: "English"}).Error)
	require.NoError(t, gdb.Create(&models.Language{ID: "vi", Name: "Vietnamese"}).Error)
	require.NoError(t, gdb.Create(product).Error)

	sku := &models.SKU{
		ProductID:   product.ID,
		Value:       "Black",
		Price:       55,
		Stock:       5,
		CreatedByID: shop.ID,
	}
	require.NoError(t, gdb.Create(sku).Error)

	return &storeFixture{db: gdb, buyer: buyer, shop: shop, product: product, sku: sku}
}

func (f *storeFixture) addCartItem(t *testing.T, skuID string, quantity int) *models.CartItem {
	t.Helper()
	item := &models.CartItem{UserID: f.buyer.ID, SKUID: skuID, Quantity: quantity}
	require.NoError(t, f.db.Create(item).Error)
	return item
}

func (f *storeFixture) newSKU(t *testing.T, ownerID string, stock int, published bool) *models.SKU {
	t.Helper()
	product := &models.Product{
		Name:        "Mouse",
		BasePrice:   20,
		CreatedByID: ownerID,
	}
	if published {
		at := time.Now().Add(-time.Minute)
		product.PublishedAt = &at
	}
	require.NoError(t, f.db.Create(product).Error)

	sku := &models.SKU{
		ProductID:   product.ID,
		Value:       "White",
		Price:       25,
		Stock:       stock,
		CreatedByID: ownerID,
	}
	require.NoError(t, f.db.Create(sku).Error)
	return sku
}

// fakeScheduler records scheduling calls instead of touching redis.
type fakeScheduler struct {
	scheduled []string
	cancelled []string
	err       error
}

func (f *fakeScheduler) ScheduleCancelPayment(_ context.Context, paymentID string) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled = append(f.scheduled, paymentID)
	return nil
}

func (f *fakeScheduler) CancelScheduled(_ context.Context, paymentID string) error {
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, paymentID)
	return nil
}
