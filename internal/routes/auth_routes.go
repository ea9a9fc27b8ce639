package routes

import (
	"gomall/internal/api/middleware"
	"gomall/internal/config"
	"gomall/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func SetupAuthRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config, auth *middleware.AuthMiddleware) {
	authHandler := handlers.NewAuthHandler(db, cfg)

	base := e.Group("/api/v1")

	// Public auth routes group
	public := base.Group("/auth")
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/refresh", authHandler.Refresh)
	public.POST("/logout", authHandler.Logout)

	// Protected user routes (require authentication)
	users := base.Group("/users", auth.Require(middleware.Bearer()))
	users.GET("/me", authHandler.Me)
	users.PUT("/me", authHandler.UpdateMe)
}
