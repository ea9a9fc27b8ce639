package services

import (
	"context"
	"errors"
	"time"

	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/utils/logger"

	"gorm.io/gorm"
)

// CartService manages per-user cart items and holds the SKU validation
// that the order pipeline reuses.
type CartService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{
		db:  db,
		log: logger.New("CART_SERVICE"),
	}
}

// CartShopGroup is one shop's slice of the user's cart.
type CartShopGroup struct {
	ShopID string            `json:"shopId"`
	Shop   *models.User      `json:"shop,omitempty"`
	Items  []models.CartItem `json:"items"`
}

// ValidateSKU checks that the SKU exists, has enough stock and belongs
// to a product that is currently purchasable. The distinct errors keep
// "never existed", "sold out" and "pulled from sale" apart for clients.
func (s *CartService) ValidateSKU(ctx context.Context, skuID string, quantity int) (*models.SKU, error) {
	var sku models.SKU
	err := models.Active(s.db.WithContext(ctx)).
		Preload("Product").
		First(&sku, "id = ?", skuID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFoundSKU
		}
		return nil, s.log.Error("failed to load sku", err)
	}

	if sku.Stock < 1 || sku.Stock < quantity {
		return nil, errs.ErrOutOfStock
	}

	if sku.Product == nil || !sku.Product.IsPublished(time.Now()) {
		return nil, errs.ErrProductNotFound
	}

	return &sku, nil
}

// AddToCart validates the SKU and upserts the (user, sku) cart item,
// accumulating the quantity when the item already exists. The combined
// quantity is validated against stock, not just the increment.
func (s *CartService) AddToCart(ctx context.Context, userID, skuID string, quantity int) (*models.CartItem, error) {
	var existing models.CartItem
	err := models.Active(s.db.WithContext(ctx)).
		Where("user_id = ? AND sku_id = ?", userID, skuID).
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.log.Error("failed to load cart item", err)
	}

	total := quantity
	if err == nil {
		total += existing.Quantity
	}
	if _, verr := s.ValidateSKU(ctx, skuID, total); verr != nil {
		return nil, verr
	}

	if err == nil {
		existing.Quantity = total
		if err := s.db.WithContext(ctx).Model(&existing).Update("quantity", total).Error; err != nil {
			return nil, s.log.Error("failed to update cart item quantity", err)
		}
		return &existing, nil
	}

	item := models.CartItem{UserID: userID, SKUID: skuID, Quantity: quantity}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, s.log.Error("failed to create cart item", err)
	}
	return &item, nil
}

// UpdateCartItem replaces the item's SKU and quantity after validating
// the target SKU. Only the owning user's items are reachable.
func (s *CartService) UpdateCartItem(ctx context.Context, userID, itemID, skuID string, quantity int) (*models.CartItem, error) {
	var item models.CartItem
	err := models.Active(s.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFoundCartItem
		}
		return nil, s.log.Error("failed to load cart item", err)
	}

	if _, verr := s.ValidateSKU(ctx, skuID, quantity); verr != nil {
		return nil, verr
	}

	item.SKUID = skuID
	item.Quantity = quantity
	if err := s.db.WithContext(ctx).Model(&item).
		Updates(map[string]interface{}{"sku_id": skuID, "quantity": quantity}).Error; err != nil {
		return nil, s.log.Error("failed to update cart item", err)
	}
	return &item, nil
}

// ListCart returns the user's cart paginated over items, grouped by the
// shop that owns each SKU.
func (s *CartService) ListCart(ctx context.Context, userID string, page, limit int) ([]CartShopGroup, int64, error) {
	var total int64
	query := models.Active(s.db.WithContext(ctx).Model(&models.CartItem{})).
		Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, s.log.Error("failed to count cart items", err)
	}

	var items []models.CartItem
	listQuery := models.Active(s.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Preload("SKU").
		Preload("SKU.Product").
		Preload("SKU.Product.Translations", "deleted_at IS NULL").
		Order("updated_at DESC")
	if page > 0 && limit > 0 {
		listQuery = listQuery.Offset((page - 1) * limit).Limit(limit)
	}
	if err := listQuery.Find(&items).Error; err != nil {
		return nil, 0, s.log.Error("failed to list cart items", err)
	}

	grouped := make(map[string]*CartShopGroup)
	var order []string
	for _, item := range items {
		if item.SKU == nil {
			continue
		}
		shopID := item.SKU.CreatedByID
		group, ok := grouped[shopID]
		if !ok {
			group = &CartShopGroup{ShopID: shopID}
			grouped[shopID] = group
			order = append(order, shopID)
		}
		group.Items = append(group.Items, item)
	}

	groups := make([]CartShopGroup, 0, len(order))
	for _, shopID := range order {
		groups = append(groups, *grouped[shopID])
	}
	return groups, total, nil
}

// DeleteCartItems hard-deletes the given items. Cart rows are working
// state, not history, so they are removed outright. Items that do not
// belong to the user are silently skipped.
func (s *CartService) DeleteCartItems(ctx context.Context, userID string, itemIDs []string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, itemIDs).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return 0, s.log.Error("failed to delete cart items", result.Error)
	}
	return result.RowsAffected, nil
}
