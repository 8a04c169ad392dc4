package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/repository"
	"go.uber.org/zap"
)

const quoteScope = "quote"

// revisionSep separates a quote number from its revision counter
const revisionSep = "-R"

// NumberSequenceService issues quote numbers.
//
// Format: Q{YY}{WW}{NN}, where YY/WW are the ISO year and week and NN counts the
// quotes issued that week. Example: Q241101 is the first quote of week 11 of 2024.
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
	}
}

// NextQuoteNumber reserves the next quote number of the ISO week containing now.
// Called inside a transaction, the reservation rolls back with it.
func (s *NumberSequenceService) NextQuoteNumber(ctx context.Context, now time.Time) (string, error) {
	period := QuotePeriod(now)
	seq, err := s.repo.GetNextNumber(ctx, quoteScope, period)
	if err != nil {
		s.logger.Error("failed to get next quote sequence",
			zap.String("period", period),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate quote number: %w", err)
	}

	number := fmt.Sprintf("Q%s%02d", period, seq)
	s.logger.Debug("issued quote number", zap.String("number", number))
	return number, nil
}

// CurrentQuoteSequence returns the last sequence issued in the week containing now, without incrementing
func (s *NumberSequenceService) CurrentQuoteSequence(ctx context.Context, now time.Time) (int, error) {
	return s.repo.GetCurrentSequence(ctx, quoteScope, QuotePeriod(now))
}

// Sequences lists every counter, newest period first
func (s *NumberSequenceService) Sequences(ctx context.Context) ([]domain.NumberSequence, error) {
	return s.repo.ListSequences(ctx)
}

// RevisionNumber derives the number of the next revision: Q241101 becomes
// Q241101-R1 and Q241101-R1 becomes Q241101-R2.
func RevisionNumber(prev string) string {
	i := strings.LastIndex(prev, revisionSep)
	if i < 0 {
		return prev + revisionSep + "1"
	}
	n, err := strconv.Atoi(prev[i+len(revisionSep):])
	if err != nil || n < 1 {
		return prev + revisionSep + "1"
	}
	return prev[:i] + revisionSep + strconv.Itoa(n+1)
}

// QuotePeriod is the YYWW counter period of the ISO week containing now
func QuotePeriod(now time.Time) string {
	year, week := now.UTC().ISOWeek()
	return fmt.Sprintf("%02d%02d", year%100, week)
}
