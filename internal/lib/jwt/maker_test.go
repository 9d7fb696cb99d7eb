package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_GenerateAndParse(t *testing.T) {
	maker := NewMaker("test-secret", time.Minute)

	token, err := maker.GenerateToken("testuser", "user", "550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", claims.UserUID)
}

func TestMaker_ParseWithWrongSecret(t *testing.T) {
	maker := NewMaker("test-secret", time.Minute)
	other := NewMaker("other-secret", time.Minute)

	token, err := maker.GenerateToken("testuser", "user", "uid")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestMaker_ParseExpiredToken(t *testing.T) {
	maker := NewMaker("test-secret", -time.Minute)

	token, err := maker.GenerateToken("testuser", "user", "uid")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}
