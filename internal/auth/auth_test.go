package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableside/internal/domain"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, ComparePassword("s3cret", hash))
	assert.False(t, ComparePassword("wrong", hash))
}

func TestTokenIssueAndParse(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	u := &domain.User{ID: 7, Username: "asha", Role: domain.RoleCashier}

	tok, err := tokens.Issue(u)
	require.NoError(t, err)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, domain.RoleCashier, claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewTokens("secret-a", time.Hour).Issue(&domain.User{ID: 1, Username: "x", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokens("secret-b", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	tokens := NewTokens("test-secret", -time.Minute)
	tok, err := tokens.Issue(&domain.User{ID: 1, Username: "x", Role: domain.RoleCashier})
	require.NoError(t, err)

	_, err = tokens.Parse(tok)
	assert.Error(t, err)
}
