package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/mapper"
	"github.com/straye-as/sales-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// List returns a page of users. Only admins and project managers may list.
func (s *UserService) List(ctx context.Context, page repository.Page, filters repository.UserFilters) ([]domain.UserDTO, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := gate(actor, auth.ActionRead, auth.EntityUser, nil); err != nil {
		return nil, 0, err
	}

	users, total, err := s.userRepo.List(ctx, page, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, total, nil
}

// GetByID returns a user. Everybody may read their own record.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if actor.ID != id {
		if err := gate(actor, auth.ActionRead, auth.EntityUser, nil); err != nil {
			return nil, err
		}
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := gate(actor, auth.ActionCreate, auth.EntityUser, nil); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.userRepo.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		FName:            req.FName,
		LName:            req.LName,
		Email:            email,
		Password:         hash,
		Access:           true,
		Title:            req.Title,
		Phone:            req.Phone,
		IsRoleAdmin:      req.IsRoleAdmin,
		IsRoleSales:      req.IsRoleSales,
		IsRoleEstimator:  req.IsRoleEstimator,
		IsRolePM:         req.IsRolePM,
		IsRoleService:    req.IsRoleService,
		IsRoleAccounting: req.IsRoleAccounting,
	}
	stampCreated(&user.Audit, actor, time.Now().UTC())

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, writeError(err, "create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID.String()), zap.String("by", actor.ID.String()))
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	if user.IsDeleted() {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	if err := gate(actor, auth.ActionUpdate, auth.EntityUser, ownerOf(&user.Audit)); err != nil {
		return nil, err
	}

	if req.FName != nil {
		user.FName = *req.FName
	}
	if req.LName != nil {
		user.LName = *req.LName
	}
	if req.Title != nil {
		user.Title = *req.Title
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Access != nil {
		user.Access = *req.Access
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = hash
	}
	setFlag(&user.IsRoleAdmin, req.IsRoleAdmin)
	setFlag(&user.IsRoleSales, req.IsRoleSales)
	setFlag(&user.IsRoleEstimator, req.IsRoleEstimator)
	setFlag(&user.IsRolePM, req.IsRolePM)
	setFlag(&user.IsRoleService, req.IsRoleService)
	setFlag(&user.IsRoleAccounting, req.IsRoleAccounting)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, writeError(err, "update user")
	}

	s.logger.Info("user updated", zap.String("user_id", user.ID.String()), zap.String("by", actor.ID.String()))
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return lookupError(err, "user")
	}
	if err := gate(actor, auth.ActionDelete, auth.EntityUser, ownerOf(&user.Audit)); err != nil {
		return err
	}
	if err := stampDeleted(&user.Audit, actor, time.Now().UTC()); err != nil {
		return fmt.Errorf("user %w", err)
	}
	user.Access = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted", zap.String("user_id", user.ID.String()), zap.String("by", actor.ID.String()))
	return nil
}

func setFlag(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Authenticate checks email and password. Unknown emails, wrong passwords and revoked users all
// return ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.Active || !user.Access || !auth.CheckPassword(user.Password, password) {
		s.logger.Warn("login rejected", zap.String("user_id", user.ID.String()))
		return nil, ErrUnauthorized
	}
	return user, nil
}
