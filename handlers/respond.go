package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xavicoins/progression/services"
	"github.com/xavicoins/progression/utils"
)

var validate = validator.New()

// ErrorHandler renders errors returned by handlers and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
	return c.Status(code).JSON(fiber.Map{
		"status":  "error",
		"code":    code,
		"message": err.Error(),
	})
}

// serviceError maps the service error kinds onto HTTP statuses.
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("🔥 %s: %v | Path: %s", fallback, err, c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallback})
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

func currentUser(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := utils.CurrentUserID(c)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	return id, nil
}

// parseBody decodes and validates the request body into req.
func parseBody(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
