package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tradewise/journal/pkg/config"
)

func newDisabledClient(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{
		Redis: config.RedisConfig{Enabled: false},
	}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return client
}

func TestDisabledClient(t *testing.T) {
	client := newDisabledClient(t)

	if client.Enabled() {
		t.Error("expected disabled client")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}

func TestTokenStoreFallback(t *testing.T) {
	client := newDisabledClient(t)
	store := NewTokenStore(client, "journal")
	ctx := context.Background()

	if err := store.Put(ctx, "tok1", "user@example.com", time.Hour); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	value, found, err := store.Get(ctx, "tok1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !found || value != "user@example.com" {
		t.Errorf("Get() = (%q, %v), want (user@example.com, true)", value, found)
	}

	if err := store.Delete(ctx, "tok1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, found, _ := store.Get(ctx, "tok1"); found {
		t.Error("token should be gone after Delete")
	}
}

func TestTokenStoreFallbackExpiry(t *testing.T) {
	client := newDisabledClient(t)
	store := NewTokenStore(client, "journal")
	ctx := context.Background()

	if err := store.Put(ctx, "tok2", "expired@example.com", -time.Second); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	if _, found, _ := store.Get(ctx, "tok2"); found {
		t.Error("expired token should not be returned")
	}
}

func TestTokenStoreBackendErrorPropagates(t *testing.T) {
	// An enabled client whose backend is unreachable must surface the
	// failure, not report the token as absent.
	client := &Client{
		rdb: goredis.NewClient(&goredis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		}),
		enabled: true,
	}
	defer client.Close()

	store := NewTokenStore(client, "journal")
	_, found, err := store.Get(context.Background(), "tok3")
	if err == nil {
		t.Fatal("Get() should fail when the backend is down")
	}
	if found {
		t.Error("Get() reported found=true on a backend failure")
	}
}

func TestRateLimiterDisabledAllowsAll(t *testing.T) {
	client := newDisabledClient(t)
	limiter := NewRateLimiter(client, "journal")
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		allowed, _, err := limiter.Allow(ctx, RateLimitConfig{
			Key:    "1.2.3.4",
			Limit:  1,
			Window: time.Minute,
		})
		if err != nil {
			t.Fatalf("Allow() failed: %v", err)
		}
		if !allowed {
			t.Fatal("disabled limiter should always allow")
		}
	}
}
