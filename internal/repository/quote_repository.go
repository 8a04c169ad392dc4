package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteFilters narrows the quote list
type QuoteFilters struct {
	OpportunityID *uuid.UUID
	CompanyID     *uuid.UUID
	Status        *domain.QuoteStatus
	Active        *bool
	Search        string
	// OwnerID limits the list to quotes added by, or sold by, the user
	OwnerID *uuid.UUID
}

var quoteSortFields = map[string]string{
	"quoteNumber": "quotes.quote_number",
	"name":        "quotes.name",
	"status":      "quotes.status",
	"subTotal":    "quotes.sub_total",
	"date":        "quotes.add_date",
}

// QuoteRepository handles quotes and their nested parts, items, costs and contacts
type QuoteRepository struct {
	session
	parts    *ChildStore[domain.QuotePart]
	items    *ChildStore[domain.QuotePartItem]
	costs    *ChildStore[domain.QuotePartItemCost]
	contacts *ChildStore[domain.QuoteContact]
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	r := &QuoteRepository{
		session:  session{db: db},
		parts:    newChildStore[domain.QuotePart](db, "quote_id", true),
		items:    newChildStore[domain.QuotePartItem](db, "quote_part_id", true),
		costs:    newChildStore[domain.QuotePartItemCost](db, "quote_part_item_id", true),
		contacts: newChildStore[domain.QuoteContact](db, "quote_id", true),
	}
	r.items.cascade = func(db *gorm.DB, item *domain.QuotePartItem) error {
		return db.Where("quote_part_item_id = ?", item.ID).Delete(&domain.QuotePartItemCost{}).Error
	}
	r.parts.cascade = func(db *gorm.DB, part *domain.QuotePart) error {
		items := db.Model(&domain.QuotePartItem{}).Select("id").Where("quote_part_id = ?", part.ID)
		if err := db.Where("quote_part_item_id IN (?)", items).Delete(&domain.QuotePartItemCost{}).Error; err != nil {
			return err
		}
		return db.Where("quote_part_id = ?", part.ID).Delete(&domain.QuotePartItem{}).Error
	}
	return r
}

func (r *QuoteRepository) Parts() *ChildStore[domain.QuotePart] { return r.parts }
func (r *QuoteRepository) Items() *ChildStore[domain.QuotePartItem] { return r.items }
func (r *QuoteRepository) Costs() *ChildStore[domain.QuotePartItemCost] { return r.costs }
func (r *QuoteRepository) Contacts() *ChildStore[domain.QuoteContact] { return r.contacts }

func (r *QuoteRepository) Create(ctx context.Context, q *domain.Quote) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Create(q).Error
	})
}

func (r *QuoteRepository) Update(ctx context.Context, q *domain.Quote) error {
	return r.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Save(q).Error
	})
}

// GetByID loads the whole quote tree, every level in order
func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var q domain.Quote
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.
			Preload("Opportunity").
			Preload("Contacts", byOrder).
			Preload("Contacts.Contact").
			Preload("Parts", byOrder).
			Preload("Parts.Items", byOrder).
			Preload("Parts.Items.Costs", byOrder).
			First(&q, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// FindActive returns the active quote with id, or nil when there is none
func (r *QuoteRepository) FindActive(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var q domain.Quote
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Where("id = ? AND active = ?", id, true).First(&q).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// FindItem returns the quote item with id when its quote is active, or nil
func (r *QuoteRepository) FindItem(ctx context.Context, id uuid.UUID) (*domain.QuotePartItem, error) {
	var item domain.QuotePartItem
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.
			Joins("JOIN quote_parts ON quote_parts.id = quote_part_items.quote_part_id").
			Joins("JOIN quotes ON quotes.id = quote_parts.quote_id").
			Where("quote_part_items.id = ? AND quotes.active = ?", id, true).
			First(&item).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CountPartsFor counts quote parts of active quotes built from the opportunity part
func (r *QuoteRepository) CountPartsFor(ctx context.Context, opportunityPartID uuid.UUID) (int64, error) {
	var count int64
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.QuotePart{}).
			Joins("JOIN quotes ON quotes.id = quote_parts.quote_id").
			Where("quote_parts.opportunity_part_id = ? AND quotes.active = ?", opportunityPartID, true).
			Count(&count).Error
	})
	return count, err
}

func (r *QuoteRepository) List(ctx context.Context, page Page, filters QuoteFilters, sort SortConfig) ([]domain.Quote, int64, error) {
	var list []domain.Quote
	var total int64
	err := r.with(ctx, func(db *gorm.DB) error {
		q := db.Model(&domain.Quote{})
		if filters.Active == nil {
			q = q.Where("quotes.active = ?", true)
		} else {
			q = q.Where("quotes.active = ?", *filters.Active)
		}
		if filters.OpportunityID != nil {
			q = q.Where("quotes.opportunity_id = ?", *filters.OpportunityID)
		}
		if filters.CompanyID != nil {
			q = q.Joins("JOIN opportunities ON opportunities.id = quotes.opportunity_id").
				Where("opportunities.company_id = ?", *filters.CompanyID)
		}
		if filters.Status != nil {
			q = q.Where("quotes.status = ?", *filters.Status)
		}
		if filters.Search != "" {
			like := "%" + filters.Search + "%"
			q = q.Where("(quotes.name LIKE ? OR quotes.quote_number LIKE ?)", like, like)
		}
		if filters.OwnerID != nil {
			q = q.Where("(quotes.add_user_id = ? OR quotes.sales_user_id = ?)", *filters.OwnerID, *filters.OwnerID)
		}
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		return page.apply(q).Order(orderBy(sort, quoteSortFields, "quotes.add_date")).Find(&list).Error
	})
	return list, total, err
}

// QuoteItemFinder adapts the repository to quote item lookups by id
type QuoteItemFinder struct {
	repo *QuoteRepository
}

// ItemFinder returns the quote item lookup used by purchase order validation
func (r *QuoteRepository) ItemFinder() QuoteItemFinder {
	return QuoteItemFinder{repo: r}
}

// FindActive returns the item with id, or nil when there is none
func (f QuoteItemFinder) FindActive(ctx context.Context, id uuid.UUID) (*domain.QuotePartItem, error) {
	return f.repo.FindItem(ctx, id)
}
