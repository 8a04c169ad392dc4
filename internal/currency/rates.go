// Package currency holds exchange-rate snapshots and conversion between currencies.
//
// A Rates value is immutable once built. Table keeps the current snapshot and swaps
// it atomically on refresh, so a conversion in flight keeps using the snapshot it
// started with.
package currency

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoRates is returned when converting with an empty snapshot
	ErrNoRates = errors.New("There is not currencies")

	// ErrUnknownCurrency is wrapped by NotFoundError
	ErrUnknownCurrency = errors.New("currency not found")
)

// NotFoundError reports a currency code missing from the snapshot
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("'%s' is notFound", e.Code)
}

func (e *NotFoundError) Unwrap() error {
	return ErrUnknownCurrency
}

// Rates is a snapshot of rates expressed against one base currency
type Rates struct {
	base      string
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
}

// NewRates builds a snapshot. Codes are upper-cased; non-positive rates are dropped.
func NewRates(base string, rates map[string]decimal.Decimal, fetchedAt time.Time) *Rates {
	r := &Rates{
		base:      strings.ToUpper(base),
		rates:     make(map[string]decimal.Decimal, len(rates)),
		fetchedAt: fetchedAt,
	}
	for code, rate := range rates {
		if !rate.IsPositive() {
			continue
		}
		r.rates[strings.ToUpper(code)] = rate
	}
	return r
}

// Base returns the base currency code
func (r *Rates) Base() string {
	return r.base
}

// FetchedAt returns when the snapshot was taken
func (r *Rates) FetchedAt() time.Time {
	return r.fetchedAt
}

// Len returns the number of currencies in the snapshot
func (r *Rates) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rates)
}

// Rate returns the rate of code against the base currency
func (r *Rates) Rate(code string) (decimal.Decimal, bool) {
	if r == nil {
		return decimal.Zero, false
	}
	rate, ok := r.rates[strings.ToUpper(code)]
	return rate, ok
}

// Has reports whether code is known
func (r *Rates) Has(code string) bool {
	_, ok := r.Rate(code)
	return ok
}

// Codes returns the known codes in no particular order
func (r *Rates) Codes() []string {
	if r == nil {
		return nil
	}
	codes := make([]string, 0, len(r.rates))
	for code := range r.rates {
		codes = append(codes, code)
	}
	return codes
}

// Map returns a copy of the rate table
func (r *Rates) Map() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, r.Len())
	if r == nil {
		return out
	}
	for code, rate := range r.rates {
		out[code] = rate
	}
	return out
}

// Convert converts amount from one currency into another.
// Same-currency conversion returns amount unchanged, even on an empty snapshot.
func (r *Rates) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if strings.EqualFold(from, to) {
		return amount, nil
	}
	if r.Len() == 0 {
		return decimal.Zero, ErrNoRates
	}

	rateFrom, ok := r.Rate(from)
	if !ok {
		return decimal.Zero, &NotFoundError{Code: from}
	}
	rateTo, ok := r.Rate(to)
	if !ok {
		return decimal.Zero, &NotFoundError{Code: to}
	}

	return amount.Mul(rateTo.Div(rateFrom)), nil
}
