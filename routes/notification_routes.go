package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/handlers"
)

func NotificationRoutes(app *fiber.App, h *handlers.NotificationHandler, protected fiber.Handler) {
	api := app.Group("/api/v1")

	notifications := api.Group("/notifications", protected)
	notifications.Get("", h.ListNotifications)
	notifications.Patch("/:notificationId/read", h.MarkRead)

	users := api.Group("/users", protected)
	users.Put("/me/push-token", h.RegisterPushToken)
}
