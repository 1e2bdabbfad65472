package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/tradewise/journal/pkg/redis"
)

// ErrResetTokenInvalid is returned when a reset token is unknown or expired
var ErrResetTokenInvalid = errors.New("reset token invalid or expired")

// ResetManager issues and consumes single-use password-reset tokens.
// Tokens live in the TTL-evicting token store, never in process memory.
type ResetManager struct {
	tokens *redis.TokenStore
	ttl    time.Duration
}

// NewResetManager creates a reset manager with the given token lifetime
func NewResetManager(tokens *redis.TokenStore, ttl time.Duration) *ResetManager {
	return &ResetManager{
		tokens: tokens,
		ttl:    ttl,
	}
}

// CreateToken generates a reset token for the given email and stores it
// with the configured TTL.
func (m *ResetManager) CreateToken(ctx context.Context, email string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	if err := m.tokens.Put(ctx, token, email, m.ttl); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	return token, nil
}

// Consume validates a reset token and deletes it, returning the email it
// was issued for. A token can be consumed at most once.
func (m *ResetManager) Consume(ctx context.Context, token string) (string, error) {
	email, found, err := m.tokens.Get(ctx, token)
	if err != nil {
		return "", fmt.Errorf("lookup reset token: %w", err)
	}
	if !found {
		return "", ErrResetTokenInvalid
	}

	if err := m.tokens.Delete(ctx, token); err != nil {
		return "", fmt.Errorf("invalidate reset token: %w", err)
	}

	return email, nil
}
