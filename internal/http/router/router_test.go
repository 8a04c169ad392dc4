package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/config"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/http/handler"
	"github.com/straye-as/sales-api/internal/http/middleware"
	"github.com/straye-as/sales-api/internal/http/router"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"github.com/straye-as/sales-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()
	cfg := &config.Config{
		App:  config.AppConfig{Name: "sales-api", Environment: "development"},
		Auth: config.AuthConfig{JWTSecret: "router-test-secret", JWTIssuer: "sales-api-test", TokenTTL: 60, APIKey: "system-key"},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 100, RequestsPerMinuteAuth: 100},
	}

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	userService := service.NewUserService(userRepo, log)
	authMiddleware := auth.NewMiddleware(cfg, userRepo, log)

	rt := router.NewRouter(cfg, log, db, nil, authMiddleware, middleware.NewRateLimiter(&cfg.RateLimit, log), router.Handlers{
		Auth:          handler.NewAuthHandler(userService, authMiddleware.Validator(), log),
		Users:         handler.NewUserHandler(userService, log),
		Companies:     handler.NewCompanyHandler(service.NewCompanyService(companyRepo, userRepo, log), log),
		Contacts:      handler.NewContactHandler(nil, log),
		Opportunities: handler.NewOpportunityHandler(nil, log),
		Quotes:        handler.NewQuoteHandler(nil, log),
		POs:           handler.NewPOHandler(nil, log),
		Tasks:         handler.NewTaskHandler(nil, log),
		Currencies:    handler.NewCurrencyHandler(nil, log),
		Sequences: handler.NewNumberSequenceHandler(
			service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), log), log),
	})
	return rt.Setup(), db
}

func request(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	h, _ := setupRouter(t)

	w := request(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = request(h, http.MethodGet, "/health/db", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	w = request(h, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "datawarehouse")
}

func TestRouter_Authentication(t *testing.T) {
	h, db := setupRouter(t)

	assert.Equal(t, http.StatusUnauthorized, request(h, http.MethodGet, "/api/v1/companies", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		request(h, http.MethodGet, "/api/v1/companies", "", map[string]string{"x-api-key": "wrong"}).Code)
	assert.Equal(t, http.StatusOK,
		request(h, http.MethodGet, "/api/v1/companies", "", map[string]string{"x-api-key": "system-key"}).Code)

	hash, err := auth.HashPassword("pass-1234")
	require.NoError(t, err)
	user := testutil.CreateUser(t, db, func(u *domain.User) {
		u.IsRoleSales = true
		u.Password = hash
	})

	w := request(h, http.MethodPost, "/api/v1/auth/login",
		`{"email": "`+user.Email+`", "password": "pass-1234"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token domain.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))

	bearer := map[string]string{"Authorization": "Bearer " + token.Token}
	w = request(h, http.MethodGet, "/api/v1/auth/me", "", bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.Email)

	w = request(h, http.MethodPost, "/api/v1/currencies/refresh", "", bearer)
	assert.Equal(t, http.StatusForbidden, w.Code, "refresh is admin only")

	w = request(h, http.MethodGet, "/api/v1/sequences", "", bearer)
	assert.Equal(t, http.StatusForbidden, w.Code, "sequences are admin only")
}

func TestRouter_Sequences(t *testing.T) {
	h, db := setupRouter(t)
	system := map[string]string{"x-api-key": "system-key"}

	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), zap.NewNop())
	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		_, err := numbers.NextQuoteNumber(context.Background(), now)
		require.NoError(t, err)
	}

	w := request(h, http.MethodGet, "/api/v1/sequences", "", system)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var seqs []domain.NumberSequenceDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &seqs))
	require.Len(t, seqs, 1)
	assert.Equal(t, "quote", seqs[0].Scope)
	assert.Equal(t, service.QuotePeriod(now), seqs[0].Period)
	assert.Equal(t, 2, seqs[0].LastSequence)

	w = request(h, http.MethodGet, "/api/v1/sequences/quotes/current", "", system)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var current domain.NumberSequenceDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Equal(t, 2, current.LastSequence)
	assert.Equal(t, service.QuotePeriod(now), current.Period)
}
