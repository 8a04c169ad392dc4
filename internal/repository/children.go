package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChildStore persists the rows of one child collection keyed by a parent column.
// It satisfies reconcile.Store. Associations are never saved through it; nested
// collections are reconciled separately.
type ChildStore[T any] struct {
	session
	parentColumn string
	ordered      bool
	// cascade removes grandchildren before the row itself is deleted
	cascade func(db *gorm.DB, row *T) error
}

func newChildStore[T any](db *gorm.DB, parentColumn string, ordered bool) *ChildStore[T] {
	return &ChildStore[T]{session: session{db: db}, parentColumn: parentColumn, ordered: ordered}
}

// ListByParent returns the stored children of parentID, in order when the type is ordered
func (s *ChildStore[T]) ListByParent(ctx context.Context, parentID uuid.UUID) ([]*T, error) {
	var rows []*T
	err := s.with(ctx, func(db *gorm.DB) error {
		q := db.Where(s.parentColumn+" = ?", parentID)
		if s.ordered {
			q = byOrder(q)
		}
		return q.Find(&rows).Error
	})
	return rows, err
}

// Create inserts row
func (s *ChildStore[T]) Create(ctx context.Context, row *T) error {
	return s.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Create(row).Error
	})
}

// Update saves every column of row
func (s *ChildStore[T]) Update(ctx context.Context, row *T) error {
	return s.with(ctx, func(db *gorm.DB) error {
		return db.Omit(clause.Associations).Save(row).Error
	})
}

// Delete removes row and, for nested types, its grandchildren
func (s *ChildStore[T]) Delete(ctx context.Context, row *T) error {
	return s.with(ctx, func(db *gorm.DB) error {
		if s.cascade != nil {
			if err := s.cascade(db, row); err != nil {
				return err
			}
		}
		return db.Delete(row).Error
	})
}
