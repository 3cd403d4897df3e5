package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/handlers"
)

func StudyRoutes(app *fiber.App, h *handlers.StudyHandler, protected fiber.Handler) {
	api := app.Group("/api/v1")

	study := api.Group("/study", protected)
	study.Get("/sessions/active", h.ActiveSession)
	study.Post("/sessions", h.StartSession)
	study.Post("/sessions/:sessionId/reviews", h.RecordReview)
	study.Post("/sessions/:sessionId/finish", h.FinishSession)
	study.Post("/sessions/:sessionId/cancel", h.CancelSession)
	study.Get("/decks/:deckId/cards", h.DeckCards)
}
