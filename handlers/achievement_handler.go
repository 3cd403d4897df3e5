package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/services"
)

type AchievementHandler struct {
	Achievements *services.AchievementService
}

func (h *AchievementHandler) ListMyAchievements(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	rows, err := h.Achievements.ListForUser(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to load achievements")
	}
	return c.JSON(rows)
}
