package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/handlers"
)

func RealtimeRoutes(app *fiber.App, h *handlers.RealtimeHandler) {
	api := app.Group("/api/v1")

	api.Use("/ws", handlers.UpgradeRequired)
	api.Get("/ws", websocket.New(h.ServeWs))
}
