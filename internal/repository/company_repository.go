package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompanyFilters narrows the company list
type CompanyFilters struct {
	Active *bool
	State  string
	// Relations keeps companies flagged with any of client, partner, supplier, competitor
	Relations []string
	Search    string
	// OwnerID restricts the list to companies added by or assigned to this user
	OwnerID *uuid.UUID
}

var companyRelationColumns = map[string]string{
	"client":     "is_client",
	"partner":    "is_partner",
	"supplier":   "is_supplier",
	"competitor": "is_competitor",
}

var companySortFields = map[string]string{
	"name":    "name",
	"city":    "city",
	"state":   "state",
	"addDate": "add_date",
}

// CompanyRepository handles database operations for companies
type CompanyRepository struct {
	session
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{session{db: db}}
}

func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Create(company).Error
	})
}

// Update updates a company's fields
func (r *CompanyRepository) Update(ctx context.Context, company *domain.Company) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Save(company).Error
	})
}

// GetByID retrieves a company with its active contacts
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	var company domain.Company
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.
			Preload("Contacts", func(db *gorm.DB) *gorm.DB {
				return db.Where("active = ?", true).Order("l_name, f_name")
			}).
			First(&company, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// FindActive returns the active company with id, or nil when there is none
func (r *CompanyRepository) FindActive(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	var company domain.Company
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Where("id = ? AND active = ?", id, true).First(&company).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// HasDuplicate reports an active company with the same name and city
func (r *CompanyRepository) HasDuplicate(ctx context.Context, name, city string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.Company{}).
			Where("name = ? AND city = ? AND active = ? AND id <> ?", name, city, true, exclude).
			Count(&count).Error
	})
	return count > 0, err
}

// List returns one page of companies
func (r *CompanyRepository) List(ctx context.Context, page Page, filters CompanyFilters, sort SortConfig) ([]domain.Company, int64, error) {
	var companies []domain.Company
	var total int64
	err := r.with(ctx, func(db *gorm.DB) error {
		q := activeFilter(db.Model(&domain.Company{}), filters.Active)
		q = ownerScope(q, filters.OwnerID, "sales_user_id")
		if filters.State != "" {
			q = q.Where("state = ?", filters.State)
		}
		if filters.Search != "" {
			q = q.Where("name LIKE ?", "%"+filters.Search+"%")
		}
		var relations []string
		for _, rel := range filters.Relations {
			if col, ok := companyRelationColumns[rel]; ok {
				relations = append(relations, col+" = true")
			}
		}
		if len(relations) > 0 {
			cond := relations[0]
			for _, rc := range relations[1:] {
				cond += " OR " + rc
			}
			q = q.Where("(" + cond + ")")
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return page.apply(q).Order(orderBy(sort, companySortFields, "name")).Find(&companies).Error
	})
	return companies, total, err
}
