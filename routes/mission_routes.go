package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/handlers"
)

func MissionRoutes(app *fiber.App, h *handlers.MissionHandler, protected fiber.Handler) {
	api := app.Group("/api/v1")

	missions := api.Group("/missions", protected)
	missions.Get("/me", h.ListMyMissions)
	missions.Post("/:missionId/claim", h.ClaimMission)
}
