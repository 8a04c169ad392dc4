package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/straye-as/sales-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSequenceRepository handles document number sequences.
// A sequence is kept per scope (document kind) and period (e.g. an ISO week).
type NumberSequenceRepository struct {
	session
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{session{db: db}}
}

// GetNextNumber atomically increments and returns the sequence for scope/period.
// The row is locked with SELECT FOR UPDATE; a missing row starts at 1.
// Called inside a transaction the lock is held until that transaction ends.
func (r *NumberSequenceRepository) GetNextNumber(ctx context.Context, scope, period string) (int, error) {
	var next int
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			var seq domain.NumberSequence
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("scope = ? AND period = ?", scope, period).
				First(&seq).Error

			now := time.Now()
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				seq = domain.NumberSequence{
					Scope:        scope,
					Period:       period,
					LastSequence: 1,
					CreatedAt:    now,
					UpdatedAt:    now,
				}
				if err := tx.Create(&seq).Error; err != nil {
					return fmt.Errorf("failed to create number sequence: %w", err)
				}
				next = 1
			case err != nil:
				return fmt.Errorf("failed to get number sequence: %w", err)
			default:
				next = seq.LastSequence + 1
				if err := tx.Model(&seq).Updates(map[string]interface{}{
					"last_sequence": next,
					"updated_at":    now,
				}).Error; err != nil {
					return fmt.Errorf("failed to update number sequence: %w", err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// GetCurrentSequence returns the last issued value, 0 when none was issued
func (r *NumberSequenceRepository) GetCurrentSequence(ctx context.Context, scope, period string) (int, error) {
	var seq domain.NumberSequence
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Where("scope = ? AND period = ?", scope, period).First(&seq).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", err)
	}
	return seq.LastSequence, nil
}

// ListSequences returns all sequences, newest period first
func (r *NumberSequenceRepository) ListSequences(ctx context.Context) ([]domain.NumberSequence, error) {
	var sequences []domain.NumberSequence
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Order("scope ASC, period DESC").Find(&sequences).Error
	})
	return sequences, err
}
