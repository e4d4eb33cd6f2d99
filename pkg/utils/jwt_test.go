package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	j := NewJWTUtil("secret", 1)
	tok, err := j.GenerateToken(42, "buyer")
	require.NoError(t, err)

	claims, err := j.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "buyer", claims.Role)
}

func TestParseTokenExpired(t *testing.T) {
	j := NewJWTUtil("secret", -1)
	tok, err := j.GenerateToken(1, "admin")
	require.NoError(t, err)

	_, err = j.ParseToken(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseTokenWrongSecret(t *testing.T) {
	tok, err := NewJWTUtil("a", 1).GenerateToken(1, "admin")
	require.NoError(t, err)

	_, err = NewJWTUtil("b", 1).ParseToken(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = NewJWTUtil("b", 1).ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
