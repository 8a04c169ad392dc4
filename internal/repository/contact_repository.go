package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactFilters narrows the contact list
type ContactFilters struct {
	CompanyID *uuid.UUID
	Active    *bool
	Search    string
}

type ContactRepository struct {
	session
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{session{db: db}}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Create(contact).Error
	})
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Save(contact).Error
	})
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Preload("Company").First(&contact, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// FindActive returns the active contact with id, or nil when there is none
func (r *ContactRepository) FindActive(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Where("id = ? AND active = ?", id, true).First(&contact).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// HasDuplicate reports an active contact of the company with the same names
func (r *ContactRepository) HasDuplicate(ctx context.Context, companyID uuid.UUID, fName, lName string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.Contact{}).
			Where("company_id = ? AND f_name = ? AND l_name = ? AND active = ? AND id <> ?", companyID, fName, lName, true, exclude).
			Count(&count).Error
	})
	return count > 0, err
}

func (r *ContactRepository) List(ctx context.Context, page Page, filters ContactFilters) ([]domain.Contact, int64, error) {
	var contacts []domain.Contact
	var total int64
	err := r.with(ctx, func(db *gorm.DB) error {
		q := activeFilter(db.Model(&domain.Contact{}), filters.Active)
		if filters.CompanyID != nil {
			q = q.Where("company_id = ?", *filters.CompanyID)
		}
		if filters.Search != "" {
			like := "%" + filters.Search + "%"
			q = q.Where("(f_name LIKE ? OR l_name LIKE ? OR email LIKE ?)", like, like, like)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return page.apply(q).Order("l_name, f_name").Find(&contacts).Error
	})
	return contacts, total, err
}
