package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("user-1", "alice@example.com", RoleUser, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, RoleUser, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "alice@example.com", RoleUser, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken("user-1", "alice@example.com", RoleUser, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenMissing(t *testing.T) {
	_, err := ValidateToken("", testSecret)
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = ValidateToken("garbage", testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenDefaultsRole(t *testing.T) {
	token, err := GenerateToken("user-1", "", "", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, claims.Role)
}

func TestStripBearer(t *testing.T) {
	token, err := StripBearer("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	token, err = StripBearer("bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = StripBearer("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = StripBearer("abc123")
	assert.ErrorIs(t, err, ErrInvalidScheme)

	_, err = StripBearer("Basic abc123")
	assert.ErrorIs(t, err, ErrInvalidScheme)
}

func TestHasRole(t *testing.T) {
	user := &Claims{Role: RoleUser}
	admin := &Claims{Role: RoleAdmin}

	assert.True(t, user.HasRole(RoleUser))
	assert.False(t, user.HasRole(RoleAdmin))
	assert.True(t, admin.HasRole(RoleAdmin))
	assert.True(t, admin.HasRole(RoleUser))
}

func TestServiceVerifyHeader(t *testing.T) {
	svc := NewService(testSecret, time.Hour)

	token, err := svc.GenerateToken("user-1", "alice@example.com", RoleUser)
	require.NoError(t, err)

	claims, err := svc.VerifyHeader("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = svc.VerifyHeader(token)
	assert.ErrorIs(t, err, ErrInvalidScheme)
}
