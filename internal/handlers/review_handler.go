package handlers

import (
	"net/http"

	"gomall/internal/api/middleware"
	"gomall/internal/api/validator"
	"gomall/internal/errs"
	"gomall/internal/services"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type ReviewHandler struct {
	reviews *services.ReviewService
	log     *logger.Logger
}

func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{
		reviews: services.NewReviewService(db),
		log:     logger.New("ReviewHandler"),
	}
}

// ListByProduct returns the public review feed for a product.
// @Summary List reviews for a product
// @Tags reviews
// @Produce json
// @Param productId path string true "Product ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} map[string]interface{}
// @Router /reviews/products/{productId} [get]
func (h *ReviewHandler) ListByProduct(c echo.Context) error {
	page, limit := pagination(c)
	reviews, total, err := h.reviews.ListByProduct(c.Request().Context(), c.Param("productId"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  reviews,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Create writes a review for a product bought in a delivered order.
// @Summary Create a review
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body validator.CreateReviewRequest true "Review"
// @Success 201 {object} models.Review
// @Failure 409 {object} map[string]interface{} "Already reviewed"
// @Failure 422 {object} map[string]interface{} "Order not delivered"
// @Security BearerAuth
// @Router /reviews [post]
func (h *ReviewHandler) Create(c echo.Context) error {
	var req validator.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	review, err := h.reviews.Create(c.Request().Context(), middleware.GetUserID(c), services.ReviewInput{
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Content:   req.Content,
		Rating:    req.Rating,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, review)
}

// Update edits the caller's own review. Each review can be edited once.
// @Summary Update a review
// @Tags reviews
// @Accept json
// @Produce json
// @Param reviewId path string true "Review ID"
// @Param request body validator.UpdateReviewRequest true "Review"
// @Success 200 {object} models.Review
// @Failure 422 {object} map[string]interface{} "Edit limit reached"
// @Security BearerAuth
// @Router /reviews/{reviewId} [put]
func (h *ReviewHandler) Update(c echo.Context) error {
	var req validator.UpdateReviewRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	review, err := h.reviews.Update(c.Request().Context(), c.Param("reviewId"), middleware.GetUserID(c), services.ReviewInput{
		Content: req.Content,
		Rating:  req.Rating,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, review)
}
