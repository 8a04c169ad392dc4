package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	AuthType    string
	// User is the loaded user row with its role and permission flags
	User *domain.User
}

type contextKey string

const userContextKey contextKey = "userContext"

// SystemUserID identifies requests authenticated with the API key
var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000000")

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// ActorFromContext returns the acting user, or nil for unauthenticated contexts
func ActorFromContext(ctx context.Context) *domain.User {
	uc, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return uc.User
}

// NewUserContext builds a context value from a loaded user
func NewUserContext(u *domain.User, authType string) *UserContext {
	return &UserContext{
		UserID:      u.ID,
		DisplayName: u.FullName(),
		Email:       u.Email,
		AuthType:    authType,
		User:        u,
	}
}

// SystemUser is the synthetic user behind API key requests
func SystemUser() *domain.User {
	u := &domain.User{
		FName:        "System",
		LName:        "User",
		Email:        "system@sales-api.local",
		Access:       true,
		IsRoleSystem: true,
	}
	u.ID = SystemUserID
	u.Active = true
	return u
}

// IsSystem reports whether the request runs as the system user
func (u *UserContext) IsSystem() bool {
	return u.User != nil && u.User.IsRoleSystem
}

// Can is a shorthand for Authorize with the context's user
func (u *UserContext) Can(action Action, entity EntityType, ownerID *uuid.UUID) Decision {
	return Authorize(u.User, action, entity, ownerID)
}
