package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/services"
	"github.com/xavicoins/progression/utils"
)

type NotificationHandler struct {
	Notifications *services.NotificationService
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	page, pageSize := utils.Pagination(c, 20)

	rows, total, err := h.Notifications.ListForUser(c.UserContext(), userID, page, pageSize)
	if err != nil {
		return serviceError(c, err, "Failed to load notifications")
	}
	return c.JSON(fiber.Map{
		"data":      rows,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	notificationID, err := paramUUID(c, "notificationId")
	if err != nil {
		return err
	}
	n, err := h.Notifications.MarkRead(c.UserContext(), userID, notificationID)
	if err != nil {
		return serviceError(c, err, "Failed to update notification")
	}
	return c.JSON(n)
}

type PushTokenRequest struct {
	Token string `json:"token" validate:"omitempty,max=255"`
}

// RegisterPushToken stores the device push token. An empty token unregisters the device.
func (h *NotificationHandler) RegisterPushToken(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req PushTokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.Notifications.RegisterPushToken(c.UserContext(), userID, req.Token); err != nil {
		return serviceError(c, err, "Failed to save push token")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
