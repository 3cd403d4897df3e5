package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/services"
)

type MissionHandler struct {
	Missions *services.MissionService
}

func (h *MissionHandler) ListMyMissions(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	missions, err := h.Missions.ListUserMissions(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to load missions")
	}
	return c.JSON(missions)
}

func (h *MissionHandler) ClaimMission(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	missionID, err := paramUUID(c, "missionId")
	if err != nil {
		return err
	}
	um, err := h.Missions.ClaimReward(c.UserContext(), userID, missionID)
	if err != nil {
		return serviceError(c, err, "Failed to claim mission reward")
	}
	return c.JSON(um)
}
