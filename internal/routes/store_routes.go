package routes

import (
	"gomall/internal/api/middleware"
	"gomall/internal/handlers"
	"gomall/internal/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SetupStoreRoutes wires the buyer-facing cart and order endpoints.
// Everything here requires a bearer token; which roles may actually
// reach each route is decided by the permission rows synced from this
// table.
func SetupStoreRoutes(api *echo.Group, db *gorm.DB, scheduler services.CancellationScheduler, auth *middleware.AuthMiddleware) {
	cartHandler := handlers.NewCartHandler(db)
	carts := api.Group("/carts", auth.Require(middleware.Bearer()))
	carts.GET("", cartHandler.List)
	carts.POST("", cartHandler.Add)
	carts.PUT("/:id", cartHandler.Update)
	carts.POST("/delete", cartHandler.Delete)

	orderHandler := handlers.NewOrderHandler(db, scheduler)
	orders := api.Group("/orders", auth.Require(middleware.Bearer()))
	orders.POST("", orderHandler.Create)
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Get)
	orders.PUT("/:id/cancel", orderHandler.Cancel)
}
