package routes

import (
	"gomall/internal/api/middleware"
	"gomall/internal/ws"

	"github.com/labstack/echo/v4"
)

func SetupWebsocketRoutes(api *echo.Group, hub *ws.Hub, auth *middleware.AuthMiddleware) {
	api.GET("/ws/payment", hub.Handler, auth.Require(middleware.Bearer()))
}
