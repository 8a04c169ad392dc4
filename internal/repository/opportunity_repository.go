package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OpportunityFilters narrows the opportunity list
type OpportunityFilters struct {
	CompanyID   *uuid.UUID
	SalesUserID *uuid.UUID
	Status      *domain.OpportunityStatus
	Active      *bool
	Search      string
	// OwnerID limits the list to opportunities added by, or sold by, the user
	OwnerID *uuid.UUID
}

var opportunitySortFields = map[string]string{
	"name":            "name",
	"status":          "status",
	"amountEstimated": "amount_estimated",
	"date":            "add_date",
}

// OpportunityRepository handles opportunities and their parts, contacts and proposals
type OpportunityRepository struct {
	session
	parts     *ChildStore[domain.OpportunityPart]
	contacts  *ChildStore[domain.OpportunityContact]
	proposals *ChildStore[domain.OpportunityProposal]
}

func NewOpportunityRepository(db *gorm.DB) *OpportunityRepository {
	return &OpportunityRepository{
		session:   session{db: db},
		parts:     newChildStore[domain.OpportunityPart](db, "opportunity_id", true),
		contacts:  newChildStore[domain.OpportunityContact](db, "opportunity_id", true),
		proposals: newChildStore[domain.OpportunityProposal](db, "opportunity_id", false),
	}
}

// Parts is the reconcile store of opportunity parts
func (r *OpportunityRepository) Parts() *ChildStore[domain.OpportunityPart] { return r.parts }

// Contacts is the reconcile store of opportunity contacts
func (r *OpportunityRepository) Contacts() *ChildStore[domain.OpportunityContact] { return r.contacts }

// Proposals is the reconcile store of opportunity proposals
func (r *OpportunityRepository) Proposals() *ChildStore[domain.OpportunityProposal] {
	return r.proposals
}

func (r *OpportunityRepository) Create(ctx context.Context, o *domain.Opportunity) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Create(o).Error
	})
}

func (r *OpportunityRepository) Update(ctx context.Context, o *domain.Opportunity) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Save(o).Error
	})
}

// GetByID loads an opportunity with its ordered parts, contacts and proposals
func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	var o domain.Opportunity
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.
			Preload("Parts", byOrder).
			Preload("Contacts", byOrder).
			Preload("Contacts.Contact").
			Preload("Proposals").
			Preload("Proposals.ProposalUser").
			First(&o, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FindActive returns the active opportunity with id, or nil when there is none
func (r *OpportunityRepository) FindActive(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	var o domain.Opportunity
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Where("id = ? AND active = ?", id, true).First(&o).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// HasDuplicate reports an active opportunity of the company with the same name added since since
func (r *OpportunityRepository) HasDuplicate(ctx context.Context, companyID uuid.UUID, name string, since time.Time, exclude uuid.UUID) (bool, error) {
	var count int64
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.Opportunity{}).
			Where("company_id = ? AND name = ? AND active = ? AND add_date >= ? AND id <> ?", companyID, name, true, since, exclude).
			Count(&count).Error
	})
	return count > 0, err
}

// FindPart returns the opportunity part with id, or nil when there is none
func (r *OpportunityRepository) FindPart(ctx context.Context, id uuid.UUID) (*domain.OpportunityPart, error) {
	var p domain.OpportunityPart
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.First(&p, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPartQuoted flags whether a quote part has been built from the opportunity part
func (r *OpportunityRepository) SetPartQuoted(ctx context.Context, id uuid.UUID, quoted bool) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.OpportunityPart{}).Where("id = ?", id).Update("quoted", quoted).Error
	})
}

// SetAmountQuoted stores the total of the latest quote on the opportunity
func (r *OpportunityRepository) SetAmountQuoted(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.Opportunity{}).Where("id = ?", id).Update("amount_quoted", amount).Error
	})
}

func (r *OpportunityRepository) List(ctx context.Context, page Page, filters OpportunityFilters, sort SortConfig) ([]domain.Opportunity, int64, error) {
	var list []domain.Opportunity
	var total int64
	err := r.with(ctx, func(db *gorm.DB) error {
		q := activeFilter(db.Model(&domain.Opportunity{}), filters.Active)
		if filters.CompanyID != nil {
			q = q.Where("company_id = ?", *filters.CompanyID)
		}
		if filters.SalesUserID != nil {
			q = q.Where("sales_user_id = ?", *filters.SalesUserID)
		}
		if filters.Status != nil {
			q = q.Where("status = ?", *filters.Status)
		}
		if filters.Search != "" {
			q = q.Where("name LIKE ?", "%"+filters.Search+"%")
		}
		q = ownerScope(q, filters.OwnerID, "sales_user_id")
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return page.apply(q).Order(orderBy(sort, opportunitySortFields, "add_date")).Find(&list).Error
	})
	return list, total, err
}

// OpportunityPartFinder adapts the repository to part lookups by id
type OpportunityPartFinder struct {
	repo *OpportunityRepository
}

// PartFinder returns the part lookup used by quote validation
func (r *OpportunityRepository) PartFinder() OpportunityPartFinder {
	return OpportunityPartFinder{repo: r}
}

// FindActive returns the part with id, or nil when there is none
func (f OpportunityPartFinder) FindActive(ctx context.Context, id uuid.UUID) (*domain.OpportunityPart, error) {
	return f.repo.FindPart(ctx, id)
}
