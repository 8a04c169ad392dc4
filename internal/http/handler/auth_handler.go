package handler

import (
	"net/http"

	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/mapper"
	"github.com/straye-as/sales-api/internal/service"
	"go.uber.org/zap"
)

// TokenIssuer signs bearer tokens for a user
type TokenIssuer interface {
	IssueToken(user *domain.User) (string, error)
}

type AuthHandler struct {
	userService *service.UserService
	tokens      TokenIssuer
	logger      *zap.Logger
}

func NewAuthHandler(userService *service.UserService, tokens TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		logger:      logger,
	}
}

// Login godoc
// @Summary Exchange email and password for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.TokenResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.logger, "log in", err)
		return
	}
	token, err := h.tokens.IssueToken(user)
	if err != nil {
		respondError(w, h.logger, "issue token", err)
		return
	}

	respondJSON(w, http.StatusOK, domain.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		User:      mapper.ToUserDTO(user),
	})
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the caller with role and access flags
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.ActorFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToUserDTO(user))
}
