package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateAccessToken(42, "a@example.com", "student", testSecret, "classroom", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret, "classroom")
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "student", claims.Role)
}

func TestValidateExpired(t *testing.T) {
	token, err := GenerateAccessToken(1, "", "", testSecret, "", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret, "")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "", "", testSecret, "", time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateWrongIssuer(t *testing.T) {
	token, err := GenerateAccessToken(1, "", "", testSecret, "someone-else", time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret, "classroom")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{RegisteredClaims: gojwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, claims).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaimsUserIDRejectsGarbage(t *testing.T) {
	for _, sub := range []string{"", "abc", "0", "-5"} {
		c := &Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: sub}}
		_, err := c.UserID()
		assert.ErrorIs(t, err, ErrInvalidToken, sub)
	}
}
