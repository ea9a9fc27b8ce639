package routes

import (
	"gomall/internal/api/middleware"
	"gomall/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SetupReviewRoutes wires the review feed. Reading a product's reviews
// is public; writing requires a logged-in buyer.
func SetupReviewRoutes(api *echo.Group, db *gorm.DB, auth *middleware.AuthMiddleware) {
	reviewHandler := handlers.NewReviewHandler(db)

	api.GET("/reviews/products/:productId", reviewHandler.ListByProduct)

	reviews := api.Group("/reviews", auth.Require(middleware.Bearer()))
	reviews.POST("", reviewHandler.Create)
	reviews.PUT("/:reviewId", reviewHandler.Update)
}
