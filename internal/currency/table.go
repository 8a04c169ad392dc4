package currency

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Feed supplies a full replacement snapshot of exchange rates
type Feed interface {
	FetchRates(ctx context.Context) (*Rates, error)
}

// FeedFunc adapts a function to the Feed interface
type FeedFunc func(ctx context.Context) (*Rates, error)

// FetchRates calls f
func (f FeedFunc) FetchRates(ctx context.Context) (*Rates, error) {
	return f(ctx)
}

// Table holds the current snapshot
type Table struct {
	current atomic.Pointer[Rates]
}

// NewTable creates a table seeded with initial, which may be nil
func NewTable(initial *Rates) *Table {
	t := &Table{}
	if initial == nil {
		initial = NewRates(DefaultBase, nil, time.Time{})
	}
	t.current.Store(initial)
	return t
}

// Snapshot returns the snapshot in effect now
func (t *Table) Snapshot() *Rates {
	return t.current.Load()
}

// Replace swaps in a new snapshot
func (t *Table) Replace(r *Rates) {
	if r == nil {
		return
	}
	t.current.Store(r)
}

// Refresh pulls a snapshot from feed and replaces the current one.
// On error the previous snapshot stays in effect.
func (t *Table) Refresh(ctx context.Context, feed Feed) (*Rates, error) {
	r, err := feed.FetchRates(ctx)
	if err != nil {
		return t.Snapshot(), fmt.Errorf("failed to fetch rates: %w", err)
	}
	if r.Len() == 0 {
		return t.Snapshot(), fmt.Errorf("failed to fetch rates: %w", ErrNoRates)
	}
	t.Replace(r)
	return r, nil
}

// Convert converts using the current snapshot
func (t *Table) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	return t.Snapshot().Convert(amount, from, to)
}
