package handlers

import (
	"net/http"

	"gomall/internal/api/middleware"
	"gomall/internal/api/validator"
	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/services"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type OrderHandler struct {
	orders *services.OrderService
	log    *logger.Logger
}

func NewOrderHandler(db *gorm.DB, scheduler services.CancellationScheduler) *OrderHandler {
	return &OrderHandler{
		orders: services.NewOrderService(db, scheduler),
		log:    logger.New("OrderHandler"),
	}
}

// Create converts cart items into per-shop orders in one batch.
// @Summary Place an order
// @Description Convert cart items into one order per shop, all-or-nothing
// @Tags orders
// @Accept json
// @Produce json
// @Param request body validator.CreateOrderRequest true "Per-shop groups"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Stale cart item or unpublished product"
// @Failure 422 {object} map[string]interface{} "Out of stock or wrong shop"
// @Security BearerAuth
// @Router /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	var req validator.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	groups := make([]services.OrderGroup, 0, len(req.Shops))
	for _, shop := range req.Shops {
		groups = append(groups, services.OrderGroup{
			ShopID: shop.ShopID,
			Receiver: models.OrderReceiver{
				Name:    shop.Receiver.Name,
				Phone:   shop.Receiver.Phone,
				Address: shop.Receiver.Address,
			},
			CartItemIDs: shop.CartItemIDs,
		})
	}

	orders, payment, err := h.orders.PlaceOrder(c.Request().Context(), middleware.GetUserID(c), groups)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"orders":      orders,
		"paymentId":   payment.ID,
		"paymentCode": services.PaymentCode(payment.ID),
	})
}

// List returns the calling user's orders.
// @Summary List orders
// @Tags orders
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	var status *models.OrderStatus
	if raw := c.QueryParam("status"); raw != "" {
		if err := c.Validate(struct {
			Status string `json:"status" validate:"order_status"`
		}{Status: raw}); err != nil {
			return err
		}
		s := models.OrderStatus(raw)
		status = &s
	}

	page, limit := pagination(c)
	orders, total, err := h.orders.ListOrders(c.Request().Context(), middleware.GetUserID(c), status, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  orders,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get returns one order with its snapshot items.
// @Summary Get an order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 404 {object} map[string]interface{} "Order not found"
// @Security BearerAuth
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	order, err := h.orders.GetOrder(c.Request().Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// Cancel cancels a still-pending order.
// @Summary Cancel an order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 404 {object} map[string]interface{} "Order not found"
// @Failure 422 {object} map[string]interface{} "Order is no longer pending"
// @Security BearerAuth
// @Router /orders/{id}/cancel [put]
func (h *OrderHandler) Cancel(c echo.Context) error {
	order, err := h.orders.CancelOrder(c.Request().Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}
