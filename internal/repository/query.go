package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 200

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig holds sorting configuration for list queries
type SortConfig struct {
	Field string // API field name
	Order SortOrder
}

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// orderBy maps the API field onto a whitelisted column, falling back to defaultColumn
func orderBy(cfg SortConfig, fieldMap map[string]string, defaultColumn string) clause.OrderByColumn {
	column, ok := fieldMap[cfg.Field]
	if !ok {
		column = defaultColumn
	}
	return clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: cfg.Order != SortOrderAsc}
}

// Page selects one page of a list
type Page struct {
	Page     int
	PageSize int
}

// Normalize clamps the page into valid bounds
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	p = p.Normalize()
	return q.Offset((p.Page - 1) * p.PageSize).Limit(p.PageSize)
}

// ownerScope restricts q to rows created by or assigned to userID.
// A nil userID leaves the query unscoped.
func ownerScope(q *gorm.DB, userID *uuid.UUID, assignedColumn string) *gorm.DB {
	if userID == nil {
		return q
	}
	if assignedColumn == "" {
		return q.Where("add_user_id = ?", *userID)
	}
	return q.Where("(add_user_id = ? OR "+assignedColumn+" = ?)", *userID, *userID)
}

// activeFilter applies an optional active flag; nil means active rows only
func activeFilter(q *gorm.DB, active *bool) *gorm.DB {
	if active == nil {
		return q.Where("active = ?", true)
	}
	return q.Where("active = ?", *active)
}

func byOrder(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}})
}
