package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/config"
	"github.com/straye-as/sales-api/internal/domain"
	"go.uber.org/zap"
)

// UserLoader loads the user a token was issued for
type UserLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	jwtValidator *JWTValidator
	users        UserLoader
	apiKey       string
	logger       *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.Config, users UserLoader, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtValidator: NewJWTValidator(&cfg.Auth),
		users:        users,
		apiKey:       cfg.Auth.APIKey,
		logger:       logger,
	}
}

// Validator exposes the token validator, used to issue tokens from tooling and tests
func (m *Middleware) Validator() *JWTValidator {
	return m.jwtValidator
}

// Authenticate accepts an x-api-key header (system user) or a bearer token
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			userCtx := NewUserContext(SystemUser(), "api_key")
			m.logAuthenticated(r, userCtx, start)
			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
			return
		}

		userID, _, err := m.jwtValidator.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil || user == nil {
			http.Error(w, "Unauthorized: unknown user", http.StatusUnauthorized)
			return
		}
		if !user.Active || !user.Access {
			http.Error(w, "Unauthorized: access revoked", http.StatusUnauthorized)
			return
		}

		userCtx := NewUserContext(user, "jwt")
		m.logAuthenticated(r, userCtx, start)
		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// RequireAdmin lets through system, admin and project manager users
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := ActorFromContext(r.Context())
		if u == nil {
			http.Error(w, "Forbidden: no user context", http.StatusForbidden)
			return
		}
		if !u.IsRoleSystem && !u.IsRoleAdmin && !u.IsRolePM {
			http.Error(w, "Forbidden: admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) logAuthenticated(r *http.Request, u *UserContext, start time.Time) {
	m.logger.Debug("request authenticated",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("auth_type", u.AuthType),
		zap.String("user_id", u.UserID.String()),
		zap.Duration("auth_duration", time.Since(start)),
	)
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}
