package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/handlers"
	"github.com/xavicoins/progression/middleware"
)

func ActivityRoutes(app *fiber.App, h *handlers.ActivityHandler, protected fiber.Handler) {
	api := app.Group("/api/v1")

	professor := api.Group("/professor", protected, middleware.ProfessorRequired())
	professor.Post("/activities", h.CreateActivity)
	professor.Get("/activities/:activityId/evidences", h.ListEvidences)
	professor.Post("/activities/:activityId/evidences/:evidenceId/review", h.ReviewEvidence)

	api.Post("/activities/:activityId/evidences", protected, middleware.StudentRequired(), h.SubmitEvidence)
}
