package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/xavicoins/progression/models"
	"github.com/xavicoins/progression/services"
)

type ActivityHandler struct {
	Activities *services.ActivityService
	Rewards    *services.RewardService
}

type CreateActivityRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	MathTopic   string `json:"math_topic" validate:"required,max=100"`
	Xavicoins   int64  `json:"xavicoins" validate:"gte=0"`
	Difficulty  int    `json:"difficulty" validate:"required,min=1,max=4"`
}

func (h *ActivityHandler) CreateActivity(c *fiber.Ctx) error {
	professorID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req CreateActivityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	activity, err := h.Activities.Create(c.UserContext(), professorID, services.CreateActivityInput{
		Title:       req.Title,
		Description: req.Description,
		MathTopic:   req.MathTopic,
		Xavicoins:   req.Xavicoins,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		return serviceError(c, err, "Failed to create activity")
	}
	return c.Status(fiber.StatusCreated).JSON(activity)
}

type ReviewEvidenceRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

func (h *ActivityHandler) ReviewEvidence(c *fiber.Ctx) error {
	activityID, err := paramUUID(c, "activityId")
	if err != nil {
		return err
	}
	evidenceID, err := paramUUID(c, "evidenceId")
	if err != nil {
		return err
	}
	var req ReviewEvidenceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	activity, err := h.Rewards.ApproveOrReject(c.UserContext(), evidenceID, req.Status, activityID)
	if err != nil {
		return serviceError(c, err, "Failed to review evidence")
	}
	return c.JSON(activity)
}

func (h *ActivityHandler) ListEvidences(c *fiber.Ctx) error {
	activityID, err := paramUUID(c, "activityId")
	if err != nil {
		return err
	}
	status := c.Query("status")
	switch status {
	case "", models.EvidencePending, models.EvidenceApproved, models.EvidenceRejected:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Invalid status filter")
	}

	evidences, err := h.Activities.ListEvidences(c.UserContext(), activityID, status)
	if err != nil {
		return serviceError(c, err, "Failed to list evidences")
	}
	return c.JSON(evidences)
}

type SubmitEvidenceRequest struct {
	FileURL string `json:"file_url" validate:"required,url"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *ActivityHandler) SubmitEvidence(c *fiber.Ctx) error {
	studentID, err := currentUser(c)
	if err != nil {
		return err
	}
	activityID, err := paramUUID(c, "activityId")
	if err != nil {
		return err
	}
	var req SubmitEvidenceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	evidence, err := h.Activities.SubmitEvidence(c.UserContext(), studentID, activityID, req.FileURL, req.Comment)
	if err != nil {
		return serviceError(c, err, "Failed to submit evidence")
	}
	return c.Status(fiber.StatusCreated).JSON(evidence)
}
