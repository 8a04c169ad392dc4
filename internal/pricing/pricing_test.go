package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/currency"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func quoteWithCost(cost *domain.QuotePartItemCost, qty string) *domain.Quote {
	return &domain.Quote{
		Status:       domain.QuoteStatusPending,
		CurrencyCode: "USD",
		TaxPerc:      d("0.16"),
		Parts: []*domain.QuotePart{{
			Items: []*domain.QuotePartItem{{
				Quantity: d(qty),
				Costs:    []*domain.QuotePartItemCost{cost},
			}},
		}},
	}
}

func TestRecalculateQuote_RoundTrip(t *testing.T) {
	cost := &domain.QuotePartItemCost{Quantity: d("1"), CostMaterial: d("50"), Profit: d("0.5"), CurrencyCode: "USD"}
	q := quoteWithCost(cost, "2")

	assertDec(t, "50", pricing.CostAmount(cost), "cost amount")
	assertDec(t, "100", pricing.CostPrice(cost), "price")

	require.NoError(t, pricing.RecalculateQuote(q, currency.NewRates("USD", nil, time.Time{})))

	item := q.Parts[0].Items[0]
	assertDec(t, "100", item.CalUnitPrice, "calUnitPrice")
	assertDec(t, "50", item.UnitCost, "unitCost")
	assertDec(t, "200", pricing.ItemSubTotal(item), "item subtotal")
	assertDec(t, "200", q.SubTotal, "subTotal")
	assertDec(t, "100", q.Cost, "cost")
	assertDec(t, "0", q.Optional, "optional")

	f := pricing.QuoteFigures(q)
	assertDec(t, "32", f.TaxAmount, "taxAmount")
	assertDec(t, "232", f.Total, "total")
	assertDec(t, "100", f.Profit, "profit")
	assertDec(t, "0.5", f.ProfitPerc, "profitPerc")
	assert.Equal(t, domain.QuoteStatusInProgress, q.Status)
}

func TestRecalculateQuote_ConvertsCostCurrency(t *testing.T) {
	rates := currency.NewRates("USD", map[string]decimal.Decimal{"USD": d("1"), "MXN": d("20")}, time.Now())
	cost := &domain.QuotePartItemCost{Quantity: d("2"), CostMaterial: d("10"), CostLabor: d("5"), CostOther: d("5"), Profit: d("0"), CurrencyCode: "USD"}
	q := quoteWithCost(cost, "1")
	q.CurrencyCode = "MXN"

	require.NoError(t, pricing.RecalculateQuote(q, rates))
	assertDec(t, "800", q.Parts[0].Items[0].CalUnitPrice, "converted price")
	assertDec(t, "800", q.SubTotal, "subTotal")
}

func TestRecalculateQuote_UnknownCurrencyFails(t *testing.T) {
	rates := currency.NewRates("USD", map[string]decimal.Decimal{"USD": d("1")}, time.Now())
	q := quoteWithCost(&domain.QuotePartItemCost{Quantity: d("1"), CostMaterial: d("1"), CurrencyCode: "XYZ"}, "1")

	err := pricing.RecalculateQuote(q, rates)
	require.Error(t, err)
	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)
}

func TestRecalculateQuote_OptionalAndFixed(t *testing.T) {
	q := &domain.Quote{
		Status:       domain.QuoteStatusInProgress,
		CurrencyCode: "USD",
		Parts: []*domain.QuotePart{
			{Items: []*domain.QuotePartItem{{
				Quantity:   d("3"),
				Fixed:      true,
				FixedPrice: d("40"),
				Costs:      []*domain.QuotePartItemCost{{Quantity: d("1"), CostMaterial: d("10"), CurrencyCode: "USD"}},
			}}},
			{IsOptional: true, Items: []*domain.QuotePartItem{{
				Quantity: d("1"),
				Costs:    []*domain.QuotePartItemCost{{Quantity: d("1"), CostMaterial: d("30"), CurrencyCode: "USD"}},
			}}},
		},
	}
	require.NoError(t, pricing.RecalculateQuote(q, currency.NewRates("USD", nil, time.Time{})))

	fixed := q.Parts[0].Items[0]
	assertDec(t, "10", fixed.CalUnitPrice, "fixed items are still calculated")
	assertDec(t, "40", pricing.ItemUnitPrice(fixed), "fixed price wins")
	assertDec(t, "120", q.SubTotal, "subTotal")
	assertDec(t, "30", q.Cost, "cost")
	assertDec(t, "30", q.Optional, "optional")
}

func TestRecalculateQuote_Discount(t *testing.T) {
	base := func(dt domain.DiscountType, discount, perc string) *domain.Quote {
		q := quoteWithCost(&domain.QuotePartItemCost{Quantity: d("1"), CostMaterial: d("100"), CurrencyCode: "USD"}, "2")
		q.DiscountType = dt
		q.Discount = d(discount)
		q.DiscountPerc = d(perc)
		return q
	}
	rates := currency.NewRates("USD", nil, time.Time{})

	tests := []struct {
		name         string
		quote        *domain.Quote
		discount     string
		discountPerc string
	}{
		{"percentage", base(domain.DiscountTypePercentage, "0", "0.1"), "20", "0.1"},
		{"amount", base(domain.DiscountTypeAmount, "50", "0"), "50", "0.25"},
		{"none clears", base(domain.DiscountTypeNone, "50", "0.3"), "0", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, pricing.RecalculateQuote(tc.quote, rates))
			assertDec(t, tc.discount, tc.quote.Discount, "discount")
			assertDec(t, tc.discountPerc, tc.quote.DiscountPerc, "discountPerc")
		})
	}

	t.Run("amount on empty quote", func(t *testing.T) {
		q := &domain.Quote{DiscountType: domain.DiscountTypeAmount, Discount: d("10"), CurrencyCode: "USD"}
		require.NoError(t, pricing.RecalculateQuote(q, rates))
		assertDec(t, "0", q.DiscountPerc, "discountPerc")
	})
}

func TestRecalculateQuote_StatusTransition(t *testing.T) {
	rates := currency.NewRates("USD", nil, time.Time{})

	q := quoteWithCost(&domain.QuotePartItemCost{Quantity: d("1"), CostMaterial: d("150"), CurrencyCode: "USD"}, "1")
	require.NoError(t, pricing.RecalculateQuote(q, rates))
	assertDec(t, "150", q.SubTotal, "subTotal")
	assert.Equal(t, domain.QuoteStatusInProgress, q.Status)

	q.Parts = nil
	require.NoError(t, pricing.RecalculateQuote(q, rates))
	assert.True(t, q.SubTotal.IsZero())
	assert.Equal(t, domain.QuoteStatusPending, q.Status)

	q.Status = domain.QuoteStatusDone
	require.NoError(t, pricing.RecalculateQuote(q, rates))
	assert.Equal(t, domain.QuoteStatusDone, q.Status, "only pending and in progress move automatically")
}

func TestQuoteFigures_ZeroNet(t *testing.T) {
	f := pricing.QuoteFigures(&domain.Quote{TaxPerc: d("0.16")})
	assert.True(t, f.ProfitPerc.IsZero())
	assert.True(t, f.Total.IsZero())
}

func TestRecalculatePO(t *testing.T) {
	po := &domain.PO{
		Status:  domain.POStatusReceived,
		TaxPerc: d("0.16"),
		Items: []*domain.POItem{
			{Quantity: d("2"), UnitPrice: d("10"), UnitCost: d("6")},
			{Quantity: d("1"), UnitPrice: d("5"), UnitCost: d("1")},
		},
	}
	pricing.RecalculatePO(po)
	assertDec(t, "25", po.SubTotal, "subTotal")
	assertDec(t, "13", po.Cost, "cost")
	assert.Equal(t, domain.POStatusOnRevision, po.Status)

	f := pricing.POFigures(po)
	assertDec(t, "29", f.Total, "total")
	assertDec(t, "29", f.Amount, "amount")
	assertDec(t, "12", f.Profit, "profit")
	assertDec(t, "48", f.ProfitPerc, "po profitPerc is a percentage")

	po.Items = []*domain.POItem{{Quantity: d("1"), UnitPrice: d("0.01")}}
	pricing.RecalculatePO(po)
	assert.Equal(t, domain.POStatusReceived, po.Status)

	po.Status = domain.POStatusAccepted
	po.Items = nil
	pricing.RecalculatePO(po)
	assert.Equal(t, domain.POStatusAccepted, po.Status)
}

func TestPOFigures_AmountGatedByStatus(t *testing.T) {
	po := &domain.PO{Status: 0, SubTotal: d("10")}
	assert.True(t, pricing.POFigures(po).Amount.IsZero())
}

func TestOpportunityAmount(t *testing.T) {
	o := &domain.Opportunity{AmountEstimated: d("10")}
	assertDec(t, "10", pricing.OpportunityAmount(o), "estimated")
	o.AmountQuoted = d("20")
	assertDec(t, "20", pricing.OpportunityAmount(o), "quoted")
	o.AmountWon = d("30")
	assertDec(t, "30", pricing.OpportunityAmount(o), "won")
}
