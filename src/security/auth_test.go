package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-of-at-least-32-bytes!!"

func TestTokenRoundtrip(t *testing.T) {
	svc := NewAuthService(testSecret, time.Hour)

	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	sub, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService(testSecret, time.Hour)
	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	otherSvc := NewAuthService("another-jwt-secret-of-at-least-32-bytes", time.Hour)
	_, err = otherSvc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewAuthService(testSecret, -time.Minute)
	token, err := svc.GenerateToken("42")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	svc := NewAuthService(testSecret, time.Hour)

	hash, err := svc.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, svc.CompareHashAndPassword(hash, "correct horse battery staple"))
	assert.Error(t, svc.CompareHashAndPassword(hash, "wrong password"))
}

func TestRandomTokensAreUnique(t *testing.T) {
	svc := NewAuthService(testSecret, time.Hour)

	a, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	c, err := GenerateRandomToken()
	require.NoError(t, err)
	assert.NotEmpty(t, c)
}
