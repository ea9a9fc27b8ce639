package services

import (
	"context"
	"errors"

	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/utils/logger"

	"gorm.io/gorm"
)

// ReviewService enforces the verified-purchase rule: a review can only
// be written against a delivered order that contains the product, one
// review per (order, product), editable exactly once.
type ReviewService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{
		db:  db,
		log: logger.New("REVIEW_SERVICE"),
	}
}

type ReviewInput struct {
	OrderID   string
	ProductID string
	Content   string
	Rating    int
}

// ListByProduct returns the public review feed for a product, newest
// first, with the reviewer preloaded for display.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string, page, limit int) ([]models.Review, int64, error) {
	var total int64
	countQuery := models.Active(s.db.WithContext(ctx).Model(&models.Review{})).
		Where("product_id = ?", productID)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, s.log.Error("failed to count reviews", err)
	}

	var reviews []models.Review
	listQuery := models.Active(s.db.WithContext(ctx)).
		Where("product_id = ?", productID).
		Preload("User").
		Order("created_at DESC")
	if page > 0 && limit > 0 {
		listQuery = listQuery.Offset((page - 1) * limit).Limit(limit)
	}
	if err := listQuery.Find(&reviews).Error; err != nil {
		return nil, 0, s.log.Error("failed to list reviews", err)
	}
	return reviews, total, nil
}

func (s *ReviewService) Get(ctx context.Context, reviewID string) (*models.Review, error) {
	var review models.Review
	err := models.Active(s.db.WithContext(ctx)).
		Preload("User").
		First(&review, "id = ?", reviewID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFoundRecord
		}
		return nil, s.log.Error("failed to load review", err)
	}
	return &review, nil
}

// Create writes a review after proving the purchase: the order must
// belong to the reviewer, be DELIVERED, and contain the product.
func (s *ReviewService) Create(ctx context.Context, userID string, input ReviewInput) (*models.Review, error) {
	var order models.Order
	err := models.Active(s.db.WithContext(ctx)).
		First(&order, "id = ? AND user_id = ?", input.OrderID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrOrderNotFound
		}
		return nil, s.log.Error("failed to load order for review", err)
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, errs.ErrOrderNotDelivered
	}

	var itemCount int64
	err = s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("order_id = ? AND product_id = ?", order.ID, input.ProductID).
		Count(&itemCount).Error
	if err != nil {
		return nil, s.log.Error("failed to check order items", err)
	}
	if itemCount == 0 {
		return nil, errs.ErrProductNotInOrder
	}

	review := models.Review{
		Content:   input.Content,
		Rating:    input.Rating,
		ProductID: input.ProductID,
		UserID:    userID,
		OrderID:   order.ID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := models.Active(tx.Model(&models.Review{})).
			Where("order_id = ? AND product_id = ?", order.ID, input.ProductID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return errs.ErrReviewAlreadyExists
		}
		return tx.Create(&review).Error
	})
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, err
		}
		return nil, s.log.Error("failed to create review", err)
	}
	return &review, nil
}

// Update edits the caller's own review. A review can be edited once;
// the second attempt is rejected.
func (s *ReviewService) Update(ctx context.Context, reviewID, userID string, input ReviewInput) (*models.Review, error) {
	var review models.Review
	err := models.Active(s.db.WithContext(ctx)).
		First(&review, "id = ? AND user_id = ?", reviewID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFoundRecord
		}
		return nil, s.log.Error("failed to load review", err)
	}
	if review.UpdateCount >= 1 {
		return nil, errs.ErrReviewEditLimit
	}

	err = s.db.WithContext(ctx).Model(&review).Updates(map[string]interface{}{
		"content":      input.Content,
		"rating":       input.Rating,
		"update_count": gorm.Expr("update_count + 1"),
	}).Error
	if err != nil {
		return nil, s.log.Error("failed to update review", err)
	}
	return s.Get(ctx, review.ID)
}
