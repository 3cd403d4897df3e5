package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavicoins/progression/models"
)

func sign(t *testing.T, secret, role string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    role,
		"exp":     exp.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func status(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestProtectedAndRoles(t *testing.T) {
	app := fiber.New()
	app.Get("/", Protected("secret"), ProfessorRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusBadRequest},
		{"wrong secret", sign(t, "other", models.RoleProfessor, time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", sign(t, "secret", models.RoleProfessor, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"student", sign(t, "secret", models.RoleStudent, time.Now().Add(time.Hour)), http.StatusForbidden},
		{"professor", sign(t, "secret", models.RoleProfessor, time.Now().Add(time.Hour)), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status(t, app, tt.token))
		})
	}
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(2))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, http.StatusOK, status(t, app, ""))
	assert.Equal(t, http.StatusOK, status(t, app, ""))
	assert.Equal(t, http.StatusTooManyRequests, status(t, app, ""))
}

func TestRateLimitDisabled(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(0))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, status(t, app, ""))
	}
}
