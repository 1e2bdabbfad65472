package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewise/journal/internal/auth"
	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/config"
	"github.com/tradewise/journal/pkg/logger"
	"github.com/tradewise/journal/pkg/redis"
)

type fakeUserStore struct {
	mu      sync.Mutex
	byEmail map[string]*store.User
	created []*store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*store.User)}
}

func (f *fakeUserStore) Create(_ context.Context, u *store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[u.Email]; exists {
		return store.ErrConflict
	}
	f.byEmail[u.Email] = u
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) UpdatePasswordByEmail(_ context.Context, email, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return store.ErrNotFound
	}
	u.Password = hash
	return nil
}

type fakeLoginStore struct {
	mu      sync.Mutex
	records []store.LoginRecord
	done    chan struct{}
}

func newFakeLoginStore() *fakeLoginStore {
	return &fakeLoginStore{done: make(chan struct{}, 8)}
}

func (f *fakeLoginStore) Record(_ context.Context, rec *store.LoginRecord) error {
	f.mu.Lock()
	f.records = append(f.records, *rec)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeLoginStore) waitForRecord(t *testing.T) store.LoginRecord {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("login record was never written")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[len(f.records)-1]
}

func testConfig() *config.Config {
	return &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret",
			AccessTokenExpiry: 30 * time.Minute,
			ResetTokenTTL:     time.Hour,
		},
	}
}

func newAuthHandler(users *fakeUserStore, logins *fakeLoginStore) *AuthHandler {
	cfg := testConfig()
	log := logger.New(cfg)
	tokens := auth.NewTokenService(cfg)

	client, err := redis.New(cfg)
	if err != nil {
		panic(err)
	}
	reset := auth.NewResetManager(redis.NewTokenStore(client, "reset"), cfg.Auth.ResetTokenTTL)

	return NewAuthHandler(users, logins, tokens, reset, log)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.RemoteAddr = "203.0.113.7:51234"
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func registerUser(t *testing.T, h *AuthHandler, email, password string) {
	t.Helper()
	rec := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"first_name": "Jo",
		"last_name":  "Kim",
		"email":      email,
		"password":   password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRegisterValidation(t *testing.T) {
	h := newAuthHandler(newFakeUserStore(), newFakeLoginStore())

	rec := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"email": "jo@test.dev",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"email":    "jo@test.dev",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users, newFakeLoginStore())

	registerUser(t, h, "jo@test.dev", "password123")

	rec := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"email":    "jo@test.dev",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterAssignsIdentityAndRole(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users, newFakeLoginStore())

	registerUser(t, h, "Jo@Test.Dev", "password123")

	require.Len(t, users.created, 1)
	u := users.created[0]
	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, "jo@test.dev", u.Email)
	assert.Equal(t, store.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "password123", u.Password)
}

func TestLoginSuccessRecordsAttempt(t *testing.T) {
	users := newFakeUserStore()
	logins := newFakeLoginStore()
	h := newAuthHandler(users, logins)

	registerUser(t, h, "jo@test.dev", "password123")

	rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email":    "jo@test.dev",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)

	attempt := logins.waitForRecord(t)
	assert.Equal(t, "success", attempt.Status)
	assert.Equal(t, "203.0.113.7", attempt.IPAddress)
}

func TestLoginWrongPassword(t *testing.T) {
	users := newFakeUserStore()
	logins := newFakeLoginStore()
	h := newAuthHandler(users, logins)

	registerUser(t, h, "jo@test.dev", "password123")

	rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email":    "jo@test.dev",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	attempt := logins.waitForRecord(t)
	assert.Equal(t, "failure", attempt.Status)
}

func TestLoginUnknownEmail(t *testing.T) {
	h := newAuthHandler(newFakeUserStore(), newFakeLoginStore())

	rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email":    "nobody@test.dev",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginDisabledAccount(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users, newFakeLoginStore())

	registerUser(t, h, "jo@test.dev", "password123")
	users.byEmail["jo@test.dev"].IsActive = false

	rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email":    "jo@test.dev",
		"password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	users := newFakeUserStore()
	h := newAuthHandler(users, newFakeLoginStore())

	registerUser(t, h, "jo@test.dev", "password123")
	oldHash := users.byEmail["jo@test.dev"].Password

	rec := postJSON(t, h.ForgotPassword, "/api/auth/forgot-password", map[string]string{
		"email": "jo@test.dev",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ResetToken string `json:"reset_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ResetToken)

	rec = postJSON(t, h.ResetPassword, "/api/auth/reset-password", map[string]string{
		"token":        resp.ResetToken,
		"new_password": "a-new-password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, oldHash, users.byEmail["jo@test.dev"].Password)

	// Token is single use
	rec = postJSON(t, h.ResetPassword, "/api/auth/reset-password", map[string]string{
		"token":        resp.ResetToken,
		"new_password": "another-password",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForgotPasswordUnknownUser(t *testing.T) {
	h := newAuthHandler(newFakeUserStore(), newFakeLoginStore())

	rec := postJSON(t, h.ForgotPassword, "/api/auth/forgot-password", map[string]string{
		"email": "nobody@test.dev",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:9999"

	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}
