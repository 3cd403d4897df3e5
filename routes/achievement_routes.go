package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/handlers"
)

func AchievementRoutes(app *fiber.App, h *handlers.AchievementHandler, protected fiber.Handler) {
	api := app.Group("/api/v1")

	achievements := api.Group("/achievements", protected)
	achievements.Get("/me", h.ListMyAchievements)
}
