package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(secret, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// UserIDFromClaims reads the user_id claim.
func UserIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	return uuid.Parse(raw)
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}

// CurrentUserID returns the authenticated user set by middleware.Protected.
func CurrentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, ok := claimsFromCtx(c)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	return UserIDFromClaims(claims)
}

func CurrentRole(c *fiber.Ctx) string {
	claims, ok := claimsFromCtx(c)
	if !ok {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}
