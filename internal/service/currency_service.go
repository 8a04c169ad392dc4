package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/currency"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/mapper"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/storage"
	"go.uber.org/zap"
)

// RateSource supplies the rates a recalculation converts costs with
type RateSource interface {
	Rates(ctx context.Context) (*currency.Rates, error)
}

// CurrencyService owns the currency rows and the in-memory rate table.
// The stored rows are the durable copy; the table is what conversions read.
type CurrencyService struct {
	currencyRepo *repository.CurrencyRepository
	table        *currency.Table
	feed         currency.Feed
	archive      storage.Storage
	base         string
	selected     []string
	logger       *zap.Logger
}

// NewCurrencyService creates a currency service. feed is where Refresh pulls
// rates from; archive may be nil to skip snapshot archiving.
func NewCurrencyService(
	currencyRepo *repository.CurrencyRepository,
	table *currency.Table,
	feed currency.Feed,
	archive storage.Storage,
	base string,
	selected []string,
	logger *zap.Logger,
) *CurrencyService {
	if base == "" {
		base = currency.DefaultBase
	}
	return &CurrencyService{
		currencyRepo: currencyRepo,
		table:        table,
		feed:         feed,
		archive:      archive,
		base:         strings.ToUpper(base),
		selected:     selected,
		logger:       logger,
	}
}

func (s *CurrencyService) List(ctx context.Context, selectedOnly bool) ([]domain.CurrencyDTO, error) {
	list, err := s.currencyRepo.List(ctx, selectedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	dtos := make([]domain.CurrencyDTO, len(list))
	for i := range list {
		dtos[i] = mapper.ToCurrencyDTO(&list[i])
	}
	return dtos, nil
}

func (s *CurrencyService) Get(ctx context.Context, code string) (*domain.CurrencyDTO, error) {
	c, err := s.currencyRepo.Get(ctx, code)
	if err != nil {
		return nil, lookupError(err, "currency")
	}
	dto := mapper.ToCurrencyDTO(c)
	return &dto, nil
}

// Load fills the rate table from the stored rows
func (s *CurrencyService) Load(ctx context.Context) error {
	snap, err := s.currencyRepo.Snapshot(ctx, s.base)
	if err != nil {
		return fmt.Errorf("failed to load currency rates: %w", err)
	}
	s.table.Replace(snap)
	s.logger.Info("currency rates loaded", zap.Int("currencies", snap.Len()))
	return nil
}

// Rates returns the stored rates, read through the transaction in ctx when there is one.
// When the store cannot be read the last loaded snapshot is used.
func (s *CurrencyService) Rates(ctx context.Context) (*currency.Rates, error) {
	snap, err := s.table.Refresh(ctx, s.currencyRepo.Feed(s.base))
	if err != nil {
		if snap.Len() == 0 {
			return nil, err
		}
		s.logger.Warn("using cached currency rates", zap.Error(err))
	}
	return snap, nil
}

// Refresh pulls a new snapshot from the feed, stores it and swaps it in.
// A failed fetch leaves the previous snapshot in effect.
func (s *CurrencyService) Refresh(ctx context.Context) (*currency.Rates, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.refresh(ctx)
}

// RefreshJob is Refresh for the scheduler, which runs without an acting user
func (s *CurrencyService) RefreshJob(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

func (s *CurrencyService) refresh(ctx context.Context) (*currency.Rates, error) {
	snap, err := s.feed.FetchRates(ctx)
	if err == nil && snap.Len() == 0 {
		err = currency.ErrNoRates
	}
	if err != nil {
		s.logger.Error("currency refresh failed", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	if !strings.EqualFold(snap.Base(), s.base) {
		return nil, fmt.Errorf("feed base %s does not match %s", snap.Base(), s.base)
	}

	if err := s.currencyRepo.SaveRates(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save rates: %w", err)
	}
	s.table.Replace(snap)

	if s.archive != nil {
		if name, err := s.archiveSnapshot(ctx, snap); err != nil {
			s.logger.Warn("failed to archive rate snapshot", zap.Error(err))
		} else {
			s.logger.Debug("rate snapshot archived", zap.String("name", name))
		}
	}

	s.logger.Info("currency rates refreshed",
		zap.Int("currencies", snap.Len()),
		zap.Time("fetched_at", snap.FetchedAt()))
	return snap, nil
}

type archivedSnapshot struct {
	Base      string                     `json:"base"`
	FetchedAt time.Time                  `json:"fetchedAt"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

func (s *CurrencyService) archiveSnapshot(ctx context.Context, snap *currency.Rates) (string, error) {
	at := snap.FetchedAt().UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	body, err := json.Marshal(archivedSnapshot{Base: snap.Base(), FetchedAt: at, Rates: snap.Map()})
	if err != nil {
		return "", err
	}
	name := path.Join("rates", snap.Base(), at.Format("2006/01/02"), at.Format("150405")+".json")
	if _, err := s.archive.Put(ctx, name, "application/json", bytes.NewReader(body)); err != nil {
		return "", err
	}
	return name, nil
}

// Seed inserts the catalog currencies that are missing and reloads the table
func (s *CurrencyService) Seed(ctx context.Context) (int, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return 0, err
	}
	return s.seed(ctx)
}

// SeedOnStart is Seed for application startup
func (s *CurrencyService) SeedOnStart(ctx context.Context) (int, error) {
	return s.seed(ctx)
}

func (s *CurrencyService) seed(ctx context.Context) (int, error) {
	n, err := s.currencyRepo.Seed(ctx, s.selected, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if err := s.Load(ctx); err != nil {
		return n, err
	}
	if n > 0 {
		s.logger.Info("currencies seeded", zap.Int("inserted", n))
	}
	return n, nil
}

// Convert converts amount with the current snapshot
func (s *CurrencyService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*domain.ConversionDTO, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	value, err := s.table.Convert(amount, from, to)
	if err != nil {
		return nil, err
	}
	return &domain.ConversionDTO{Amount: amount, From: from, To: to, Value: value}, nil
}

func (s *CurrencyService) requireAdmin(ctx context.Context) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if actor.IsRoleSystem || actor.IsRoleAdmin {
		return nil
	}
	return &auth.ForbiddenError{Reason: "Not authorized to manage currencies"}
}
