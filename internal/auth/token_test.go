package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/config"
)

func newTokenService(expiry time.Duration) *TokenService {
	return NewTokenService(&config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "unit-test-secret",
			AccessTokenExpiry: expiry,
		},
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTokenService(30 * time.Minute)

	user := &store.User{
		UserID: "u-123",
		Email:  "trader@example.com",
		Role:   store.RoleUser,
	}

	token, err := svc.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "trader@example.com", claims.Subject)
	assert.Equal(t, "u-123", claims.UserID)
	assert.Equal(t, store.RoleUser, claims.Role)
}

func TestTokenExpired(t *testing.T) {
	svc := newTokenService(-time.Minute)

	token, err := svc.Issue(&store.User{UserID: "u-1", Email: "a@b.com", Role: store.RoleUser})
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	svc := newTokenService(time.Hour)

	token, err := svc.Issue(&store.User{UserID: "u-1", Email: "a@b.com", Role: store.RoleAdmin})
	require.NoError(t, err)

	other := NewTokenService(&config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "a-different-secret",
			AccessTokenExpiry: time.Hour,
		},
	})

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	svc := newTokenService(time.Hour)

	_, err := svc.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Validate("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
