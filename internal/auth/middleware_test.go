package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/config"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapLoader map[uuid.UUID]*domain.User

func (m mapLoader) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func testConfig(apiKey string) *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "unit-test-secret",
			JWTIssuer: "sales-api-test",
			TokenTTL:  60,
			APIKey:    apiKey,
		},
	}
}

func serve(mw *auth.Middleware, req *http.Request) (*httptest.ResponseRecorder, *auth.UserContext) {
	var captured *auth.UserContext
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, captured
}

func TestMiddleware_Authenticate_WithAPIKey(t *testing.T) {
	mw := auth.NewMiddleware(testConfig("key-123"), mapLoader{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("x-api-key", "key-123")
	w, uc := serve(mw, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, uc)
	assert.True(t, uc.IsSystem())
	assert.Equal(t, auth.SystemUserID, uc.UserID)
	assert.Equal(t, "api_key", uc.AuthType)
}

func TestMiddleware_Authenticate_WithInvalidAPIKey(t *testing.T) {
	mw := auth.NewMiddleware(testConfig("key-123"), mapLoader{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("x-api-key", "wrong")
	w, uc := serve(mw, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, uc)
}

func TestMiddleware_Authenticate_APIKeyDisabledWhenEmpty(t *testing.T) {
	mw := auth.NewMiddleware(testConfig(""), mapLoader{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("x-api-key", "anything")
	w, _ := serve(mw, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_WithBearerToken(t *testing.T) {
	user := newUser(func(u *domain.User) { u.Email = "jane@example.com"; u.IsRoleSales = true })
	mw := auth.NewMiddleware(testConfig(""), mapLoader{user.ID: user}, zap.NewNop())

	token, err := mw.Validator().IssueToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w, uc := serve(mw, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, uc)
	assert.Equal(t, user.ID, uc.UserID)
	assert.Same(t, user, uc.User)
	assert.Equal(t, "jwt", uc.AuthType)
}

func TestMiddleware_Authenticate_Rejections(t *testing.T) {
	active := newUser(nil)
	revoked := newUser(func(u *domain.User) { u.Access = false })
	deleted := newUser(func(u *domain.User) { u.Active = false })
	missing := newUser(nil)

	loader := mapLoader{active.ID: active, revoked.ID: revoked, deleted.ID: deleted}
	mw := auth.NewMiddleware(testConfig(""), loader, zap.NewNop())

	tokenFor := func(u *domain.User) string {
		tok, err := mw.Validator().IssueToken(u)
		require.NoError(t, err)
		return tok
	}

	otherSecret := auth.NewJWTValidator(&config.AuthConfig{JWTSecret: "other", JWTIssuer: "sales-api-test", TokenTTL: 60})
	forged, err := otherSecret.IssueToken(active)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + forged},
		{"revoked access", "Bearer " + tokenFor(revoked)},
		{"deleted user", "Bearer " + tokenFor(deleted)},
		{"unknown user", "Bearer " + tokenFor(missing)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w, uc := serve(mw, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Nil(t, uc)
		})
	}
}

func TestJWTValidator_Expired(t *testing.T) {
	v := auth.NewJWTValidator(&config.AuthConfig{JWTSecret: "s", TokenTTL: 1})
	user := newUser(nil)

	claims := auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	require.NoError(t, err)

	_, _, err = v.ValidateToken(tok)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTValidator_RejectsOtherAlgorithms(t *testing.T) {
	v := auth.NewJWTValidator(&config.AuthConfig{JWTSecret: "s", TokenTTL: 1})
	user := newUser(nil)

	claims := auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s"))
	require.NoError(t, err)

	_, _, err = v.ValidateToken(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRequireAdmin(t *testing.T) {
	mw := auth.NewMiddleware(testConfig(""), mapLoader{}, zap.NewNop())
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name string
		user *domain.User
		code int
	}{
		{"admin", newUser(func(u *domain.User) { u.IsRoleAdmin = true }), http.StatusOK},
		{"pm", newUser(func(u *domain.User) { u.IsRolePM = true }), http.StatusOK},
		{"sales", newUser(func(u *domain.User) { u.IsRoleSales = true }), http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
			req = req.WithContext(auth.WithUserContext(req.Context(), auth.NewUserContext(tc.user, "jwt")))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, auth.CheckPassword(hash, "correct horse"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
}
