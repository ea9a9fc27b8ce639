package handlers

import (
	"net/http"
	"strconv"

	"gomall/internal/api/middleware"
	"gomall/internal/api/validator"
	"gomall/internal/errs"
	"gomall/internal/services"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type CartHandler struct {
	carts *services.CartService
	log   *logger.Logger
}

func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{carts: services.NewCartService(db), log: logger.New("CartHandler")}
}

// List returns the calling user's cart grouped by shop.
// @Summary List cart items
// @Tags carts
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /carts [get]
func (h *CartHandler) List(c echo.Context) error {
	page, limit := pagination(c)
	groups, total, err := h.carts.ListCart(c.Request().Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  groups,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Add puts a SKU in the cart, accumulating quantity for repeats.
// @Summary Add a SKU to the cart
// @Tags carts
// @Accept json
// @Produce json
// @Param request body validator.AddToCartRequest true "SKU and quantity"
// @Success 201 {object} models.CartItem
// @Failure 404 {object} map[string]interface{} "Unknown SKU or unpublished product"
// @Failure 422 {object} map[string]interface{} "Out of stock"
// @Security BearerAuth
// @Router /carts [post]
func (h *CartHandler) Add(c echo.Context) error {
	var req validator.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	item, err := h.carts.AddToCart(c.Request().Context(), middleware.GetUserID(c), req.SKUID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

// Update replaces a cart item's SKU and quantity.
// @Summary Update a cart item
// @Tags carts
// @Accept json
// @Produce json
// @Param id path string true "Cart item ID"
// @Param request body validator.UpdateCartItemRequest true "SKU and quantity"
// @Success 200 {object} models.CartItem
// @Security BearerAuth
// @Router /carts/{id} [put]
func (h *CartHandler) Update(c echo.Context) error {
	var req validator.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	item, err := h.carts.UpdateCartItem(c.Request().Context(),
		middleware.GetUserID(c), c.Param("id"), req.SKUID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

type deleteCartItemsRequest struct {
	CartItemIDs []string `json:"cartItemIds" validate:"required,min=1,dive,uuid"`
}

// Delete removes cart items outright. A POST because the payload is a
// body of ids, not a resource path.
// @Summary Delete cart items
// @Tags carts
// @Accept json
// @Produce json
// @Param request body deleteCartItemsRequest true "Cart item IDs"
// @Success 200 {object} map[string]int64
// @Security BearerAuth
// @Router /carts/delete [post]
func (h *CartHandler) Delete(c echo.Context) error {
	var req deleteCartItemsRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	deleted, err := h.carts.DeleteCartItems(c.Request().Context(), middleware.GetUserID(c), req.CartItemIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

// pagination reads page/limit query params with sane bounds.
func pagination(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
