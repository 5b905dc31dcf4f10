package traffmonetizer

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Date(2030, time.March, 1, 12, 0, 0, 0, time.UTC)
	token := signToken(t, jwt.MapClaims{"exp": exp.Unix(), "sub": "42"})

	got, err := TokenExpiry(token)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))
}

func TestTokenExpiry_NoExp(t *testing.T) {
	_, err := TokenExpiry(signToken(t, jwt.MapClaims{"sub": "42"}))
	assert.ErrorIs(t, err, ErrNoExpiry)
}

func TestTokenExpiry_NotAJWT(t *testing.T) {
	_, err := TokenExpiry("opaque-token")
	assert.Error(t, err)
}
