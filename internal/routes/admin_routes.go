package routes

import (
	"gomall/internal/api/middleware"
	"gomall/internal/cache"
	"gomall/internal/handlers"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// SetupAccessControlRoutes wires role and permission management. Only
// the ADMIN base role keeps permission rows for these paths.
func SetupAccessControlRoutes(api *echo.Group, db *gorm.DB, roleCache cache.RolePermissionCache, auth *middleware.AuthMiddleware) {
	roleHandler := handlers.NewRoleHandler(db, roleCache)
	roles := api.Group("/roles", auth.Require(middleware.Bearer()))
	roles.GET("", roleHandler.List)
	roles.GET("/:id", roleHandler.Get)
	roles.POST("", roleHandler.Create)
	roles.PUT("/:id", roleHandler.Update)
	roles.DELETE("/:id", roleHandler.Delete)

	permissionHandler := handlers.NewPermissionHandler(db, roleCache)
	permissions := api.Group("/permissions", auth.Require(middleware.Bearer()))
	permissions.GET("", permissionHandler.List)
	permissions.GET("/:id", permissionHandler.Get)
	permissions.POST("", permissionHandler.Create)
	permissions.PUT("/:id", permissionHandler.Update)
	permissions.DELETE("/:id", permissionHandler.Delete)

	// User management lives under the admin segment, not /users: the
	// /users module is granted to every base role for self-service, and
	// these routes must never ride along with it.
	userHandler := handlers.NewUserHandler(db)
	users := api.Group("/admin/users", auth.Require(middleware.Bearer()))
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.POST("", userHandler.Create)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)
}
