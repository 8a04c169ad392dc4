package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/currency"
	"github.com/straye-as/sales-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CurrencyRepository handles the currencies table
type CurrencyRepository struct {
	session
}

func NewCurrencyRepository(db *gorm.DB) *CurrencyRepository {
	return &CurrencyRepository{session{db: db}}
}

// List returns currencies ordered by code, only selected ones when selectedOnly is set
func (r *CurrencyRepository) List(ctx context.Context, selectedOnly bool) ([]domain.Currency, error) {
	var list []domain.Currency
	err := r.with(ctx, func(db *gorm.DB) error {
		q := db.Order("code")
		if selectedOnly {
			q = q.Where("selected = ?", true)
		}
		return q.Find(&list).Error
	})
	return list, err
}

func (r *CurrencyRepository) Get(ctx context.Context, code string) (*domain.Currency, error) {
	var c domain.Currency
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.First(&c, "code = ?", strings.ToUpper(code)).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// IsKnown reports whether code has a rate row
func (r *CurrencyRepository) IsKnown(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.with(ctx, func(db *gorm.DB) error {
		return db.Model(&domain.Currency{}).Where("code = ?", strings.ToUpper(code)).Count(&count).Error
	})
	return count > 0, err
}

// Seed inserts every catalog currency that is missing. Existing rows are left alone.
func (r *CurrencyRepository) Seed(ctx context.Context, selected []string, now time.Time) (int, error) {
	picked := make(map[string]bool, len(selected))
	for _, code := range selected {
		picked[strings.ToUpper(code)] = true
	}

	seeds := currency.Catalog()
	rows := make([]domain.Currency, 0, len(seeds))
	for _, s := range seeds {
		rows = append(rows, domain.Currency{
			Code:          s.Code,
			Selected:      picked[s.Code],
			Rate:          s.Rate,
			Symbol:        s.Symbol,
			Name:          s.Name,
			SymbolNative:  s.SymbolNative,
			DecimalDigits: s.DecimalDigits,
			Rounding:      s.Rounding,
			Date:          now,
		})
	}

	var inserted int64
	err := r.with(ctx, func(db *gorm.DB) error {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
		inserted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed currencies: %w", err)
	}
	return int(inserted), nil
}

// SaveRates writes the snapshot's rates onto the matching rows.
// Codes without a row are inserted with catalog metadata when the catalog knows them.
func (r *CurrencyRepository) SaveRates(ctx context.Context, rates *currency.Rates) error {
	return r.with(ctx, func(db *gorm.DB) error {
		for code, rate := range rates.Map() {
			row := domain.Currency{Code: code, Rate: rate, Date: rates.FetchedAt()}
			if info, ok := currency.Lookup(code); ok {
				row.Name = info.Name
				row.Symbol = info.Symbol
				row.SymbolNative = info.SymbolNative
				row.DecimalDigits = info.DecimalDigits
				row.Rounding = info.Rounding
			}
			err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"rate", "date"}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("failed to save rate %s: %w", code, err)
			}
		}
		return nil
	})
}

// Snapshot builds a rates snapshot from the stored rows
func (r *CurrencyRepository) Snapshot(ctx context.Context, base string) (*currency.Rates, error) {
	list, err := r.List(ctx, false)
	if err != nil {
		return nil, err
	}
	rates := make(map[string]decimal.Decimal, len(list))
	var fetched time.Time
	for _, c := range list {
		rates[c.Code] = c.Rate
		if c.Date.After(fetched) {
			fetched = c.Date
		}
	}
	return currency.NewRates(base, rates, fetched), nil
}

// Feed exposes the stored rows as a rate feed
func (r *CurrencyRepository) Feed(base string) currency.Feed {
	return currency.FeedFunc(func(ctx context.Context) (*currency.Rates, error) {
		return r.Snapshot(ctx, base)
	})
}
