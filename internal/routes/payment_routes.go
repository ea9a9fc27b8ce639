package routes

import (
	"gomall/internal/api/middleware"
	"gomall/internal/handlers"
	"gomall/internal/services"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SetupPaymentRoutes wires the gateway-facing webhook. The gateway
// authenticates with the static payment-api-key header; an admin with
// a bearer token may replay a webhook by hand, so both strategies are
// accepted.
func SetupPaymentRoutes(api *echo.Group, db *gorm.DB, orders *services.OrderService, scheduler services.CancellationScheduler, auth *middleware.AuthMiddleware) {
	log := logger.New("payment_routes")

	paymentHandler := handlers.NewPaymentHandler(db, orders, scheduler)

	payment := api.Group("/payment")
	payment.POST("/receiver", paymentHandler.Receiver,
		auth.Require(middleware.AnyOf(middleware.StrategyPaymentAPIKey, middleware.StrategyBearer)))

	log.Success("Payment routes initialized successfully")
}
