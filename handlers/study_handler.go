package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xavicoins/progression/services"
)

type StudyHandler struct {
	Study *services.StudyService
}

func (h *StudyHandler) ActiveSession(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	session, err := h.Study.Active(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to load study session")
	}
	return c.JSON(session)
}

type StartSessionRequest struct {
	DeckID      uuid.UUID `json:"deck_id" validate:"required"`
	SessionGoal int       `json:"session_goal" validate:"gte=0,lte=240"`
}

func (h *StudyHandler) StartSession(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req StartSessionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.Study.Start(c.UserContext(), userID, req.DeckID, req.SessionGoal)
	if err != nil {
		return serviceError(c, err, "Failed to start study session")
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

type ReviewCardRequest struct {
	CardID     uuid.UUID `json:"card_id" validate:"required"`
	Difficulty string    `json:"difficulty" validate:"required,oneof=again hard good easy"`
}

func (h *StudyHandler) RecordReview(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	sessionID, err := paramUUID(c, "sessionId")
	if err != nil {
		return err
	}
	var req ReviewCardRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	review, err := h.Study.RecordReview(c.UserContext(), userID, sessionID, req.CardID, req.Difficulty)
	if err != nil {
		return serviceError(c, err, "Failed to record review")
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

type FinishSessionRequest struct {
	CardsStudied int `json:"cards_studied" validate:"gte=0"`
}

func (h *StudyHandler) FinishSession(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	sessionID, err := paramUUID(c, "sessionId")
	if err != nil {
		return err
	}
	var req FinishSessionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.Study.Finish(c.UserContext(), userID, sessionID, req.CardsStudied)
	if err != nil {
		return serviceError(c, err, "Failed to finish study session")
	}
	return c.JSON(session)
}

func (h *StudyHandler) CancelSession(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	sessionID, err := paramUUID(c, "sessionId")
	if err != nil {
		return err
	}
	session, err := h.Study.Cancel(c.UserContext(), userID, sessionID)
	if err != nil {
		return serviceError(c, err, "Failed to cancel study session")
	}
	return c.JSON(session)
}

func (h *StudyHandler) DeckCards(c *fiber.Ctx) error {
	deckID, err := paramUUID(c, "deckId")
	if err != nil {
		return err
	}
	cards, err := h.Study.Cards(c.UserContext(), deckID)
	if err != nil {
		return serviceError(c, err, "Failed to load cards")
	}
	return c.JSON(cards)
}
