package currency_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/currency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testRates() *currency.Rates {
	return currency.NewRates("USD", map[string]decimal.Decimal{
		"USD": d("1"),
		"MXN": d("20"),
		"EUR": d("0.8"),
	}, time.Now())
}

func TestRates_Convert(t *testing.T) {
	rates := testRates()

	tests := []struct {
		name     string
		amount   string
		from     string
		to       string
		expected string
	}{
		{name: "same currency", amount: "123.45", from: "MXN", to: "MXN", expected: "123.45"},
		{name: "base to other", amount: "10", from: "USD", to: "MXN", expected: "200"},
		{name: "other to base", amount: "200", from: "MXN", to: "USD", expected: "10"},
		{name: "cross rate", amount: "100", from: "EUR", to: "MXN", expected: "2500"},
		{name: "lower case codes", amount: "1", from: "usd", to: "mxn", expected: "20"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rates.Convert(d(tc.amount), tc.from, tc.to)
			require.NoError(t, err)
			assert.True(t, d(tc.expected).Equal(got), "got %s want %s", got, tc.expected)
		})
	}
}

func TestRates_Convert_SameCurrencyOnEmptyTable(t *testing.T) {
	empty := currency.NewRates("USD", nil, time.Now())

	got, err := empty.Convert(d("42"), "EUR", "EUR")
	require.NoError(t, err)
	assert.True(t, d("42").Equal(got))
}

func TestRates_Convert_Errors(t *testing.T) {
	t.Run("empty table", func(t *testing.T) {
		empty := currency.NewRates("USD", nil, time.Now())
		_, err := empty.Convert(d("1"), "USD", "MXN")
		require.ErrorIs(t, err, currency.ErrNoRates)
		assert.Equal(t, "There is not currencies", err.Error())
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := testRates().Convert(d("1"), "XYZ", "USD")
		require.ErrorIs(t, err, currency.ErrUnknownCurrency)
		assert.Equal(t, "'XYZ' is notFound", err.Error())

		var nf *currency.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "XYZ", nf.Code)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := testRates().Convert(d("1"), "USD", "ABC")
		require.ErrorIs(t, err, currency.ErrUnknownCurrency)
		assert.Equal(t, "'ABC' is notFound", err.Error())
	})
}

func TestNewRates_DropsNonPositive(t *testing.T) {
	rates := currency.NewRates("usd", map[string]decimal.Decimal{
		"usd": d("1"),
		"BAD": d("0"),
		"NEG": d("-3"),
	}, time.Time{})

	assert.Equal(t, "USD", rates.Base())
	assert.Equal(t, 1, rates.Len())
	assert.True(t, rates.Has("USD"))
	assert.False(t, rates.Has("BAD"))
	assert.False(t, rates.Has("NEG"))
}

func TestTable_Refresh(t *testing.T) {
	table := currency.NewTable(nil)
	assert.Equal(t, 0, table.Snapshot().Len())

	r, err := table.Refresh(context.Background(), currency.StaticFeed{})
	require.NoError(t, err)
	assert.Equal(t, len(currency.Catalog()), r.Len())
	assert.Same(t, r, table.Snapshot())

	got, err := table.Convert(d("1"), "USD", "MXN")
	require.NoError(t, err)
	assert.True(t, d("20.14").Equal(got))
}

func TestTable_Refresh_KeepsPreviousOnFailure(t *testing.T) {
	initial := testRates()
	table := currency.NewTable(initial)

	failing := currency.FeedFunc(func(ctx context.Context) (*currency.Rates, error) {
		return nil, errors.New("feed down")
	})
	_, err := table.Refresh(context.Background(), failing)
	require.Error(t, err)
	assert.Same(t, initial, table.Snapshot())

	empty := currency.FeedFunc(func(ctx context.Context) (*currency.Rates, error) {
		return currency.NewRates("USD", nil, time.Now()), nil
	})
	_, err = table.Refresh(context.Background(), empty)
	require.ErrorIs(t, err, currency.ErrNoRates)
	assert.Same(t, initial, table.Snapshot())
}

func TestTable_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	a := currency.NewRates("USD", map[string]decimal.Decimal{"USD": d("1"), "MXN": d("10")}, time.Now())
	b := currency.NewRates("USD", map[string]decimal.Decimal{"USD": d("1"), "MXN": d("20")}, time.Now())
	table := currency.NewTable(a)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if (i+j)%2 == 0 {
					table.Replace(a)
					continue
				}
				got, err := table.Convert(d("1"), "USD", "MXN")
				assert.NoError(t, err)
				assert.True(t, got.Equal(d("10")) || got.Equal(d("20")))
				table.Replace(b)
			}
		}(i)
	}
	wg.Wait()
}

func TestCatalog(t *testing.T) {
	info, ok := currency.Lookup("EUR")
	require.True(t, ok)
	assert.Equal(t, "Euro", info.Name)
	assert.Equal(t, 2, info.DecimalDigits)

	_, ok = currency.Lookup("XYZ")
	assert.False(t, ok)

	seeds := currency.Catalog()
	for i := 1; i < len(seeds); i++ {
		assert.Less(t, seeds[i-1].Code, seeds[i].Code)
	}
}
