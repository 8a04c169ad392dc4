package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"github.com/straye-as/sales-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNumberSequenceService_NextQuoteNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), zap.NewNop())
	ctx := context.Background()

	first, err := svc.NextQuoteNumber(ctx, testutil.Now)
	require.NoError(t, err)
	assert.Equal(t, "Q241101", first)

	second, err := svc.NextQuoteNumber(ctx, testutil.Now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "Q241102", second, "same ISO week shares the counter")

	nextWeek, err := svc.NextQuoteNumber(ctx, testutil.Now.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Equal(t, "Q241201", nextWeek)

	// 1 January 2021 belongs to week 53 of 2020
	boundary, err := svc.NextQuoteNumber(ctx, time.Date(2021, time.January, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Q205301", boundary)

	seq, err := svc.CurrentQuoteSequence(ctx, testutil.Now)
	require.NoError(t, err)
	assert.Equal(t, 2, seq)

	seqs, err := svc.Sequences(ctx)
	require.NoError(t, err)
	assert.Len(t, seqs, 3)
}

func TestNumberSequenceService_RollsBackWithTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), zap.NewNop())
	tx := repository.NewTxRunner(db)

	err := tx.Run(context.Background(), func(ctx context.Context) error {
		if _, err := svc.NextQuoteNumber(ctx, testutil.Now); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	number, err := svc.NextQuoteNumber(context.Background(), testutil.Now)
	require.NoError(t, err)
	assert.Equal(t, "Q241101", number)
}

func TestRevisionNumber(t *testing.T) {
	tests := []struct {
		prev string
		want string
	}{
		{"Q241101", "Q241101-R1"},
		{"Q241101-R1", "Q241101-R2"},
		{"Q241101-R9", "Q241101-R10"},
		{"Q241101-Rx", "Q241101-Rx-R1"},
		{"Q241101-R0", "Q241101-R0-R1"},
		{"", "-R1"},
	}
	for _, tc := range tests {
		t.Run(tc.prev, func(t *testing.T) {
			assert.Equal(t, tc.want, service.RevisionNumber(tc.prev))
		})
	}
}
