package middleware

import (
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/xavicoins/progression/models"
	"github.com/xavicoins/progression/utils"
)

func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

func requireRole(role, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if utils.CurrentRole(c) != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": message})
		}
		return c.Next()
	}
}

func ProfessorRequired() fiber.Handler {
	return requireRole(models.RoleProfessor, "Forbidden: Professor access required")
}

func StudentRequired() fiber.Handler {
	return requireRole(models.RoleStudent, "Forbidden: Student access required")
}
