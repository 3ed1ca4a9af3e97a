package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskminder/internal/domain"
	"taskminder/internal/service/auth"
	"taskminder/internal/store"
)

// fakeUserStore is an in-memory store.UserStore for handler tests.
type fakeUserStore struct {
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (s *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return store.ErrEmailExists
	}

	if user.HashedPassword == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.MinCost)
		if err != nil {
			return err
		}
		user.HashedPassword = string(hash)
		user.Password = ""
	}

	copied := *user
	s.byID[user.ID] = &copied
	s.byEmail[user.Email] = &copied
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

// fakeJWTService issues recognizable token strings instead of real JWTs so
// handler tests stay independent of signing details.
type fakeJWTService struct {
	lifetime   time.Duration
	refreshErr error
}

func newFakeJWTService() *fakeJWTService {
	return &fakeJWTService{lifetime: 60 * time.Minute}
}

func (s *fakeJWTService) GenerateToken(_ context.Context, userID uuid.UUID) (string, error) {
	return "access:" + userID.String(), nil
}

func (s *fakeJWTService) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	var id string
	if _, err := fmt.Sscanf(token, "access:%s", &id); err != nil {
		return nil, auth.ErrInvalidToken
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: userID, TokenType: "access"}, nil
}

func (s *fakeJWTService) GenerateRefreshToken(_ context.Context, userID uuid.UUID) (string, error) {
	return "refresh:" + userID.String(), nil
}

func (s *fakeJWTService) ValidateRefreshToken(_ context.Context, token string) (*auth.Claims, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	var id string
	if _, err := fmt.Sscanf(token, "refresh:%s", &id); err != nil {
		return nil, auth.ErrInvalidRefreshToken
	}
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, auth.ErrInvalidRefreshToken
	}
	return &auth.Claims{UserID: userID, TokenType: "refresh"}, nil
}

func (s *fakeJWTService) AccessTokenLifetime() time.Duration {
	return s.lifetime
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedUser registers a user with a bcrypt hash directly in the fake store.
func seedUser(t *testing.T, users *fakeUserStore, email, password string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := &domain.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: string(hash),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	users.byID[user.ID] = user
	users.byEmail[user.Email] = user
	return user
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == "taskminder_session" {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Signup(t *testing.T) {
	t.Parallel()

	t.Run("creates user and opens session", func(t *testing.T) {
		t.Parallel()

		users := newFakeUserStore()
		handler := NewAuthHandler(users, newFakeJWTService(), auth.NewBcryptVerifier(), testLogger())

		req := jsonRequest(t, http.MethodPost, "/signup", SignupRequest{
			Email:    "new@example.com",
			Password: "password123",
		})
		rec := httptest.NewRecorder()
		handler.Signup(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		cookie := sessionCookie(t, rec)
		require.NotNil(t, cookie, "signup should set the session cookie")
		assert.Equal(t, resp.AccessToken, cookie.Value)
		assert.True(t, cookie.HttpOnly)

		stored, err := users.GetByEmail(context.Background(), "new@example.com")
		require.NoError(t, err)
		assert.Empty(t, stored.Password, "plaintext password must not be retained")
		assert.NotEmpty(t, stored.HashedPassword)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		t.Parallel()

		users := newFakeUserStore()
		seedUser(t, users, "taken@example.com", "password123")
		handler := NewAuthHandler(users, newFakeJWTService(), auth.NewBcryptVerifier(), testLogger())

		req := jsonRequest(t, http.MethodPost, "/signup", SignupRequest{
			Email:    "taken@example.com",
			Password: "password123",
		})
		rec := httptest.NewRecorder()
		handler.Signup(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Nil(t, sessionCookie(t, rec))
	})

	t.Run("rejects invalid payloads", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name string
			req  SignupRequest
		}{
			{"missing email", SignupRequest{Password: "password123"}},
			{"malformed email", SignupRequest{Email: "not-an-email", Password: "password123"}},
			{"short password", SignupRequest{Email: "a@example.com", Password: "short"}},
		}

		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				handler := NewAuthHandler(newFakeUserStore(), newFakeJWTService(), auth.NewBcryptVerifier(), testLogger())
				rec := httptest.NewRecorder()
				handler.Signup(rec, jsonRequest(t, http.MethodPost, "/signup", tc.req))

				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials open a session", func(t *testing.T) {
		t.Parallel()

		users := newFakeUserStore()
		user := seedUser(t, users, "user@example.com", "password123")
		handler := NewAuthHandler(users, newFakeJWTService(), auth.NewBcryptVerifier(), testLogger())

		req := jsonRequest(t, http.MethodPost, "/login", LoginRequest{
			Email:    "user@example.com",
			Password: "password123",
		})
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, user.ID, resp.UserID)

		cookie := sessionCookie(t, rec)
		require.NotNil(t, cookie)
		assert.Equal(t, resp.AccessToken, cookie.Value)
	})

	t.Run("wrong password is rejected without a session", func(t *testing.T) {
		t.Parallel()

		users := newFakeUserStore()
		seedUser(t, users, "user@example.com", "password123")
		handler := NewAuthHandler(users, newFakeJWTService(), auth.NewBcryptVerifier(), testLogger())

		req := jsonRequest(t, http.MethodPost, "/login", LoginRequest{
			Email:    "user@example.com",
			Password: "wrong-password",
		})
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, sessionCookie(t, rec), "failed login must not set a session cookie")
	})

	t.Run("unknown email is indistinguishable from wrong password", func(t *testing.T) {
		t.Parallel()

		users := newFakeUserStore()
		seedUser(t, users, "user@example.com", "password123")
		handler := NewAuthHandler(users, newFakeJWTService(), auth.NewBcryptVerifier(), testLogger())

		wrongPassword := httptest.NewRecorder()
		handler.Login(wrongPassword, jsonRequest(t, http.MethodPost, "/login", LoginRequest{
			Email:    "user@example.com",
			Password: "wrong-password",
		}))

		unknownEmail := httptest.NewRecorder()
		handler.Login(unknownEmail, jsonRequest(t, http.MethodPost, "/login", LoginRequest{
			Email:    "nobody@example.com",
			Password: "password123",
		}))

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
		assert.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("valid refresh token issues a new pair", func(t *testing.T) {
		t.Parallel()

		users := newFakeUserStore()
		user := seedUser(t, users, "user@example.com", "password123")
		handler := NewAuthHandler(users, newFakeJWTService(), auth.NewBcryptVerifier(), testLogger())

		req := jsonRequest(t, http.MethodPost, "/refresh", RefreshTokenRequest{
			RefreshToken: "refresh:" + user.ID.String(),
		})
		rec := httptest.NewRecorder()
		handler.Refresh(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotNil(t, sessionCookie(t, rec))
	})

	t.Run("expired refresh token is unauthorized", func(t *testing.T) {
		t.Parallel()

		jwtService := newFakeJWTService()
		jwtService.refreshErr = auth.ErrExpiredRefreshToken
		handler := NewAuthHandler(newFakeUserStore(), jwtService, auth.NewBcryptVerifier(), testLogger())

		req := jsonRequest(t, http.MethodPost, "/refresh", RefreshTokenRequest{
			RefreshToken: "refresh:whatever",
		})
		rec := httptest.NewRecorder()
		handler.Refresh(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Parallel()

	handler := NewAuthHandler(newFakeUserStore(), newFakeJWTService(), auth.NewBcryptVerifier(), testLogger())

	rec := httptest.NewRecorder()
	handler.Logout(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie, "logout must rewrite the session cookie")
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge, "cookie must be expired")
}
