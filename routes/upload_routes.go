package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/handlers"
)

func UploadRoutes(app *fiber.App, h *handlers.UploadHandler, protected fiber.Handler) {
	api := app.Group("/api/v1")

	api.Get("/activities/:activityId/evidences/upload-signature", protected, h.EvidenceUploadSignature)
}
