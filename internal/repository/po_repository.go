package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// POFilters narrows the purchase order list
type POFilters struct {
	CompanyID *uuid.UUID
	Status    *domain.POStatus
	Active    *bool
	Search    string
	OwnerID   *uuid.UUID
}

var poSortFields = map[string]string{
	"poNumber": "po_number",
	"status":   "status",
	"subTotal": "sub_total",
	"poDate":   "po_date",
	"date":     "add_date",
}

// PORepository handles purchase orders and their items
type PORepository struct {
	session
	items *ChildStore[domain.POItem]
}

func NewPORepository(db *gorm.DB) *PORepository {
	return &PORepository{
		session: session{db: db},
		items:   newChildStore[domain.POItem](db, "po_id", true),
	}
}

// Items is the reconcile store of purchase order items
func (r *PORepository) Items() *ChildStore[domain.POItem] { return r.items }

func (r *PORepository) Create(ctx context.Context, po *domain.PO) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Create(po).Error
	})
}

func (r *PORepository) Update(ctx context.Context, po *domain.PO) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Save(po).Error
	})
}

// GetByID loads a purchase order with its company, buyer and ordered items
func (r *PORepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PO, error) {
	var po domain.PO
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.
			Preload("Company").
			Preload("Buyer").
			Preload("Items", byOrder).
			First(&po, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// FindActive returns the active purchase order with id, or nil when there is none
func (r *PORepository) FindActive(ctx context.Context, id uuid.UUID) (*domain.PO, error) {
	var po domain.PO
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Where("id = ? AND active = ?", id, true).First(&po).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// HasDuplicate reports another active purchase order of the company with the same number
func (r *PORepository) HasDuplicate(ctx context.Context, companyID uuid.UUID, poNumber string, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.PO{}).
			Where("company_id = ? AND po_number = ? AND active = ? AND id <> ?", companyID, poNumber, true, exclude).
			Count(&count).Error
	})
	return count > 0, err
}

func (r *PORepository) List(ctx context.Context, page Page, filters POFilters, sort SortConfig) ([]domain.PO, int64, error) {
	var list []domain.PO
	var total int64
	err := r.with(ctx, func(db *gorm.DB) error {
		q := activeFilter(db.Model(&domain.PO{}), filters.Active)
		if filters.CompanyID != nil {
			q = q.Where("company_id = ?", *filters.CompanyID)
		}
		if filters.Status != nil {
			q = q.Where("status = ?", *filters.Status)
		}
		if filters.Search != "" {
			q = q.Where("po_number LIKE ?", "%"+filters.Search+"%")
		}
		q = ownerScope(q, filters.OwnerID, "sales_user_id")
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return page.apply(q).Preload("Company").Order(orderBy(sort, poSortFields, "add_date")).Find(&list).Error
	})
	return list, total, err
}
