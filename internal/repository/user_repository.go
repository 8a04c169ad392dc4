package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
	"gorm.io/gorm"
)

// UserFilters narrows the user list
type UserFilters struct {
	Role   string
	Active *bool
	Search string
}

var userRoleColumns = map[string]string{
	"system":     "is_role_system",
	"admin":      "is_role_admin",
	"sales":      "is_role_sales",
	"estimator":  "is_role_estimator",
	"pm":         "is_role_pm",
	"service":    "is_role_service",
	"accounting": "is_role_accounting",
}

type UserRepository struct {
	session
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{session{db: db}}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Create(user).Error
	})
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Save(user).Error
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.First(&user, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.First(&user, "email = ?", email).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActive returns the active user with id, or nil when there is none
func (r *UserRepository) FindActive(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Where("id = ? AND active = ?", id, true).First(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether another user already uses email
func (r *UserRepository) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.User{}).Where("email = ? AND id <> ?", email, exclude).Count(&count).Error
	})
	return count > 0, err
}

func (r *UserRepository) List(ctx context.Context, page Page, filters UserFilters) ([]domain.User, int64, error) {
	var users []domain.User
	var total int64
	err := r.with(ctx, func(db *gorm.DB) error {
		q := activeFilter(db.Model(&domain.User{}), filters.Active)
		if col, ok := userRoleColumns[filters.Role]; ok {
			q = q.Where(col+" = ?", true)
		}
		if filters.Search != "" {
			like := "%" + filters.Search + "%"
			q = q.Where("(f_name LIKE ? OR l_name LIKE ? OR email LIKE ?)", like, like, like)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return page.apply(q).Order("l_name, f_name").Find(&users).Error
	})
	return users, total, err
}
