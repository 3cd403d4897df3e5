package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestParseToken(t *testing.T) {
	id := uuid.New()
	valid := sign(t, "secret", jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": id.String(),
		"role":    "student",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	expired := sign(t, "secret", jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": id.String(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	claims, err := ParseToken("secret", valid)
	require.NoError(t, err)
	got, err := UserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseToken("other", valid)
	assert.Error(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)
	_, err = ParseToken("secret", "garbage")
	assert.Error(t, err)

	_, err = UserIDFromClaims(jwt.MapClaims{"user_id": 42})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
