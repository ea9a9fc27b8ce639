package handlers

import (
	"net/http"

	"gomall/internal/api/validator"
	"gomall/internal/errs"
	"gomall/internal/services"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type PaymentHandler struct {
	payments *services.PaymentService
	log      *logger.Logger
}

func NewPaymentHandler(db *gorm.DB, orders *services.OrderService, scheduler services.CancellationScheduler) *PaymentHandler {
	return &PaymentHandler{
		payments: services.NewPaymentService(db, orders, scheduler),
		log:      logger.New("PaymentHandler"),
	}
}

// Receiver processes a bank-transfer webhook from the payment gateway.
// Authenticated by the static payment-api-key header, not a bearer
// token.
// @Summary Payment gateway webhook
// @Tags payment
// @Accept json
// @Produce json
// @Param payment-api-key header string true "Static API key"
// @Param request body validator.PaymentWebhookRequest true "Gateway payload"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{} "Invalid API key"
// @Failure 404 {object} map[string]interface{} "No matching pending payment"
// @Failure 422 {object} map[string]interface{} "Transfer does not cover the total"
// @Router /payment/receiver [post]
func (h *PaymentHandler) Receiver(c echo.Context) error {
	var req validator.PaymentWebhookRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	input := services.WebhookInput{
		Gateway:            req.Gateway,
		AmountIn:           req.AmountIn,
		TransferType:       req.TransferType,
		TransactionContent: req.TransactionContent,
	}
	if req.AccountNumber != nil {
		input.AccountNumber = *req.AccountNumber
	}
	if req.ReferenceNumber != nil {
		input.ReferenceNumber = *req.ReferenceNumber
	}
	if req.Code != nil {
		input.Code = *req.Code
	}
	if req.TransferType == "out" {
		input.AmountOut = req.AmountIn
		input.AmountIn = 0
	}

	payment, err := h.payments.HandleWebhook(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "payment processed",
		"paymentId": payment.ID,
		"status":    payment.Status,
	})
}
