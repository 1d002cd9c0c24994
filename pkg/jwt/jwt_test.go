package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.GenerateAccessToken("8b6f2c4e-0000-0000-0000-000000000001", "a@example.org")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "8b6f2c4e-0000-0000-0000-000000000001", claims.UserID)
	assert.Equal(t, "a@example.org", claims.Email)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, err := NewManager("one", time.Hour).GenerateAccessToken("u", "")
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewManager("secret", time.Nanosecond)
	token, err := m.GenerateAccessToken("u", "")
	require.NoError(t, err)
	time.Sleep(time.Second + 10*time.Millisecond)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}
