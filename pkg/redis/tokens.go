package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore maps single-use opaque tokens to a value with an explicit TTL.
// Backed by Redis when available; otherwise an in-process map that checks
// expiry on every access, so entries never outlive their TTL even without
// an external store.
type TokenStore struct {
	client *Client
	prefix string

	mu       sync.Mutex
	fallback map[string]fallbackEntry
}

type fallbackEntry struct {
	value   string
	expires time.Time
}

// NewTokenStore creates a token store under the given key prefix
func NewTokenStore(client *Client, prefix string) *TokenStore {
	return &TokenStore{
		client:   client,
		prefix:   prefix,
		fallback: make(map[string]fallbackEntry),
	}
}

func (s *TokenStore) key(token string) string {
	return fmt.Sprintf("%s:token:%s", s.prefix, token)
}

// Put stores a token with the given TTL
func (s *TokenStore) Put(ctx context.Context, token, value string, ttl time.Duration) error {
	if s.client.Enabled() {
		return s.client.Redis().Set(ctx, s.key(token), value, ttl).Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	s.fallback[token] = fallbackEntry{value: value, expires: time.Now().Add(ttl)}
	return nil
}

// Get returns the value for a token, or found=false if absent or expired
func (s *TokenStore) Get(ctx context.Context, token string) (string, bool, error) {
	if s.client.Enabled() {
		value, err := s.client.Redis().Get(ctx, s.key(token)).Result()
		switch {
		case err == redis.Nil:
			// Absent or expired key is not an error
			return "", false, nil
		case err != nil:
			return "", false, fmt.Errorf("token lookup failed: %w", err)
		}
		return value, true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.fallback[token]
	if !ok {
		return "", false, nil
	}
	if time.Now().After(entry.expires) {
		delete(s.fallback, token)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Delete removes a token
func (s *TokenStore) Delete(ctx context.Context, token string) error {
	if s.client.Enabled() {
		return s.client.Redis().Del(ctx, s.key(token)).Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fallback, token)
	return nil
}

// evictExpiredLocked drops expired fallback entries. Caller holds s.mu.
func (s *TokenStore) evictExpiredLocked() {
	now := time.Now()
	for token, entry := range s.fallback {
		if now.After(entry.expires) {
			delete(s.fallback, token)
		}
	}
}
