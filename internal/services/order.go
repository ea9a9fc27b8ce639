package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/utils/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CancellationScheduler is the deferred payment-expiry queue seen from
// the order pipeline. Keyed by payment id on both sides.
type CancellationScheduler interface {
	ScheduleCancelPayment(ctx context.Context, paymentID string) error
	CancelScheduled(ctx context.Context, paymentID string) error
}

// OrderGroup is one shop's slice of a checkout batch.
type OrderGroup struct {
	ShopID      string
	Receiver    models.OrderReceiver
	CartItemIDs []string
}

// OrderService runs the order placement pipeline and the order-facing
// reads and transitions.
type OrderService struct {
	db        *gorm.DB
	log       *logger.Logger
	scheduler CancellationScheduler
}

func NewOrderService(db *gorm.DB, scheduler CancellationScheduler) *OrderService {
	return &OrderService{
		db:        db,
		log:       logger.New("ORDER_SERVICE"),
		scheduler: scheduler,
	}
}

// PlaceOrder converts cart items into per-shop orders in five strict
// steps. Steps 1-4 validate against one read snapshot; step 5 is a
// single transaction that either commits every group or nothing, with
// a guarded stock decrement so two racing checkouts cannot both win
// the same stock.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, groups []OrderGroup) ([]models.Order, *models.Payment, error) {
	// Step 1: fetch the referenced cart items, restricted to the
	// requesting user. The count check runs against the request's flat
	// id list, so a stale id, another user's item, or the same item
	// referenced twice all fail the same way.
	idSet := make(map[string]bool)
	var itemIDs []string
	totalRefs := 0
	for _, group := range groups {
		totalRefs += len(group.CartItemIDs)
		for _, id := range group.CartItemIDs {
			if !idSet[id] {
				idSet[id] = true
				itemIDs = append(itemIDs, id)
			}
		}
	}

	var cartItems []models.CartItem
	err := models.Active(s.db.WithContext(ctx)).
		Where("user_id = ? AND id IN ?", userID, itemIDs).
		Preload("SKU").
		Preload("SKU.Product").
		Preload("SKU.Product.Translations", "deleted_at IS NULL").
		Find(&cartItems).Error
	if err != nil {
		return nil, nil, s.log.Error("failed to load cart items", err)
	}
	if len(cartItems) != totalRefs {
		return nil, nil, errs.ErrNotFoundCartItem
	}

	itemsByID := make(map[string]models.CartItem, len(cartItems))
	now := time.Now()
	for _, item := range cartItems {
		// Step 2: stock must cover the requested quantity.
		if item.SKU == nil || item.SKU.Stock < 1 || item.SKU.Stock < item.Quantity {
			return nil, nil, errs.ErrOutOfStock
		}
		// Step 3: the owning product must still be purchasable.
		if item.SKU.Product == nil || !item.SKU.Product.IsPublished(now) {
			return nil, nil, errs.ErrProductNotFound
		}
		itemsByID[item.ID] = item
	}

	// Step 4: every item's SKU owner must match its group's shop.
	for _, group := range groups {
		for _, id := range group.CartItemIDs {
			if itemsByID[id].SKU.CreatedByID != group.ShopID {
				return nil, nil, errs.ErrSKUNotBelongToShop
			}
		}
	}

	// Step 5: one transaction for the whole batch.
	var payment models.Payment
	var orders []models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment = models.Payment{Status: models.PaymentStatusPending}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		// Guarded decrement: the WHERE clause re-checks stock so a
		// concurrent checkout that already took the last units makes
		// this row count zero and the whole batch rolls back.
		for _, item := range cartItems {
			result := tx.Model(&models.SKU{}).
				Where("id = ? AND deleted_at IS NULL AND stock >= ?", item.SKUID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errs.ErrOutOfStock
			}
		}

		for _, group := range groups {
			order, err := buildOrder(userID, payment.ID, group, itemsByID)
			if err != nil {
				return err
			}
			if err := tx.Omit("Products.*").Create(order).Error; err != nil {
				return err
			}
			orders = append(orders, *order)
		}

		// Converted cart items are working state, removed outright.
		return tx.Where("user_id = ? AND id IN ?", userID, itemIDs).
			Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, nil, err
	}

	// The expiry job is advisory: it re-checks payment state when it
	// fires, so a scheduling failure must not undo the checkout.
	if s.scheduler != nil {
		if err := s.scheduler.ScheduleCancelPayment(ctx, payment.ID); err != nil {
			s.log.Error("failed to schedule payment expiry", err)
		}
	}

	return orders, &payment, nil
}

// buildOrder assembles one group's order with snapshot items and the
// distinct purchased products.
func buildOrder(userID, paymentID string, group OrderGroup, itemsByID map[string]models.CartItem) (*models.Order, error) {
	receiver, err := json.Marshal(group.Receiver)
	if err != nil {
		return nil, err
	}

	order := models.Order{
		UserID:      userID,
		ShopID:      group.ShopID,
		PaymentID:   paymentID,
		Status:      models.OrderStatusPendingPayment,
		Receiver:    datatypes.JSON(receiver),
		CreatedByID: &userID,
	}

	productSeen := make(map[string]bool)
	for _, id := range group.CartItemIDs {
		item := itemsByID[id]
		sku := item.SKU
		product := sku.Product

		snapshots := make([]models.ProductTranslationSnapshot, 0, len(product.Translations))
		for _, tr := range product.Translations {
			snapshots = append(snapshots, models.ProductTranslationSnapshot{
				ID:          tr.ID,
				Name:        tr.Name,
				Description: tr.Description,
				LanguageID:  tr.LanguageID,
			})
		}
		translations, err := json.Marshal(snapshots)
		if err != nil {
			return nil, err
		}

		order.Items = append(order.Items, models.OrderItem{
			ProductID:           product.ID,
			ProductName:         product.Name,
			SKUID:               sku.ID,
			SKUPrice:            sku.Price,
			SKUValue:            sku.Value,
			Image:               sku.Image,
			Quantity:            item.Quantity,
			ProductTranslations: datatypes.JSON(translations),
		})

		if !productSeen[product.ID] {
			productSeen[product.ID] = true
			order.Products = append(order.Products, *product)
		}
	}

	return &order, nil
}

// ListOrders returns the user's orders, optionally filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, userID string, status *models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	query := models.Active(s.db.WithContext(ctx).Model(&models.Order{})).
		Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, s.log.Error("failed to count orders", err)
	}

	var orders []models.Order
	listQuery := query.Preload("Items").Order("created_at DESC")
	if page > 0 && limit > 0 {
		listQuery = listQuery.Offset((page - 1) * limit).Limit(limit)
	}
	if err := listQuery.Find(&orders).Error; err != nil {
		return nil, 0, s.log.Error("failed to list orders", err)
	}
	return orders, total, nil
}

// GetOrder returns one of the user's orders with its snapshot items.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	var order models.Order
	err := models.Active(s.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", orderID, userID).
		Preload("Items").
		Preload("Payment").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrOrderNotFound
		}
		return nil, s.log.Error("failed to load order", err)
	}
	return &order, nil
}

// CancelOrder transitions a still-pending order to CANCELLED. The
// status check rides in the UPDATE's WHERE clause, so a second cancel
// (or a cancel racing a payment) affects zero rows and is rejected.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	var order models.Order
	err := models.Active(s.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrOrderNotFound
		}
		return nil, s.log.Error("failed to load order", err)
	}

	result := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND user_id = ? AND status = ? AND deleted_at IS NULL",
			orderID, userID, models.OrderStatusPendingPayment).
		Updates(map[string]interface{}{
			"status":        models.OrderStatusCancelled,
			"updated_by_id": userID,
		})
	if result.Error != nil {
		return nil, s.log.Error("failed to cancel order", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errs.ErrCannotCancelOrder
	}

	order.Status = models.OrderStatusCancelled
	order.UpdatedByID = &userID
	return &order, nil
}

// PaymentTotal sums price*quantity over every snapshot item attached
// to the payment's orders. Used by the webhook to validate transfers.
func (s *OrderService) PaymentTotal(ctx context.Context, paymentID string) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.payment_id = ? AND orders.deleted_at IS NULL", paymentID).
		Select("COALESCE(SUM(order_items.sku_price * order_items.quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, s.log.Error("failed to sum payment total", err)
	}
	return total, nil
}
