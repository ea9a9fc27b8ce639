package api

import (
	"net/http"

	"gomall/internal/api/middleware"
	"gomall/internal/api/registry"
	"gomall/internal/routes"
	"gomall/internal/services"

	_ "gomall/docs/swagger"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Hello, World!")
	})
	// Health check
	// @Summary Health check
	// @Description Check if the server is running
	// @Accept json
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	auth := middleware.NewAuthMiddleware(s.config, s.db, s.roleCache)

	routes.SetupAuthRoutes(s.echo, s.db, s.config, auth)

	// API v1 group; every group below declares its own policy.
	api := s.echo.Group("/api/v1")

	catalog := s.echo.Group("/api/v1", auth.Require(middleware.Bearer()))
	registry.RegisterCatalogRoutes(api, catalog, s.db)

	routes.SetupStoreRoutes(api, s.db, s.scheduler, auth)
	routes.SetupReviewRoutes(api, s.db, auth)
	routes.SetupPaymentRoutes(api, s.db, services.NewOrderService(s.db, s.scheduler), s.scheduler, auth)
	routes.SetupAccessControlRoutes(api, s.db, s.roleCache, auth)
	routes.SetupWebsocketRoutes(api, s.hub, auth)
}
