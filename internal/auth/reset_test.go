package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewise/journal/pkg/config"
	"github.com/tradewise/journal/pkg/redis"
)

func newResetManager(t *testing.T, ttl time.Duration) *ResetManager {
	t.Helper()
	client, err := redis.New(&config.Config{
		Redis: config.RedisConfig{Enabled: false},
	})
	require.NoError(t, err)
	return NewResetManager(redis.NewTokenStore(client, "journal"), ttl)
}

func TestResetTokenSingleUse(t *testing.T) {
	m := newResetManager(t, time.Hour)
	ctx := context.Background()

	token, err := m.CreateToken(ctx, "trader@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := m.Consume(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "trader@example.com", email)

	// Second consume must fail
	_, err = m.Consume(ctx, token)
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetTokenExpired(t *testing.T) {
	m := newResetManager(t, -time.Second)
	ctx := context.Background()

	token, err := m.CreateToken(ctx, "late@example.com")
	require.NoError(t, err)

	_, err = m.Consume(ctx, token)
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}

func TestResetTokenUnknown(t *testing.T) {
	m := newResetManager(t, time.Hour)

	_, err := m.Consume(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}
