// Package pricing recomputes the money figures of quotes and purchase orders.
//
// Recalculate* functions write the stored totals onto the in-memory document tree
// and apply the automatic status transition. *Figures functions derive the values
// that are shown but never stored.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/currency"
	"github.com/straye-as/sales-api/internal/domain"
)

// ZeroTolerance is the subtotal at or below which a document counts as empty
var ZeroTolerance = decimal.RequireFromString("0.01")

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// CostAmount is quantity times the sum of the cost components
func CostAmount(c *domain.QuotePartItemCost) decimal.Decimal {
	return c.Quantity.Mul(c.CostMaterial.Add(c.CostLabor).Add(c.CostOther))
}

// CostPrice is the cost amount with the profit margin applied: amount / (1 - profit)
func CostPrice(c *domain.QuotePartItemCost) decimal.Decimal {
	margin := one.Sub(c.Profit)
	if !margin.IsPositive() {
		return decimal.Zero
	}
	return CostAmount(c).Div(margin)
}

// ItemUnitPrice is the fixed price for a fixed item, otherwise the calculated unit price
func ItemUnitPrice(item *domain.QuotePartItem) decimal.Decimal {
	return item.UnitPrice()
}

// ItemSubTotal is quantity times the unit price in effect
func ItemSubTotal(item *domain.QuotePartItem) decimal.Decimal {
	return item.Quantity.Mul(ItemUnitPrice(item))
}

// ItemCost is quantity times the unit cost
func ItemCost(item *domain.QuotePartItem) decimal.Decimal {
	return item.Quantity.Mul(item.UnitCost)
}

// RecalculateItem sums the item's costs, converted into currencyCode, into
// CalUnitPrice and UnitCost. Fixed items are recalculated too.
func RecalculateItem(item *domain.QuotePartItem, currencyCode string, rates *currency.Rates) error {
	price := decimal.Zero
	cost := decimal.Zero
	for _, c := range item.Costs {
		p, err := rates.Convert(CostPrice(c), c.CurrencyCode, currencyCode)
		if err != nil {
			return fmt.Errorf("failed to convert cost price: %w", err)
		}
		a, err := rates.Convert(CostAmount(c), c.CurrencyCode, currencyCode)
		if err != nil {
			return fmt.Errorf("failed to convert cost amount: %w", err)
		}
		price = price.Add(p)
		cost = cost.Add(a)
	}
	item.CalUnitPrice = price
	item.UnitCost = cost
	return nil
}

// RecalculateQuote recomputes every item of q and rolls the results up into
// SubTotal, Optional and Cost, then applies the discount and the automatic
// Pending/InProgress transition.
func RecalculateQuote(q *domain.Quote, rates *currency.Rates) error {
	subTotal := decimal.Zero
	optional := decimal.Zero
	cost := decimal.Zero

	for _, part := range q.Parts {
		for _, item := range part.Items {
			if err := RecalculateItem(item, q.CurrencyCode, rates); err != nil {
				return err
			}
			if part.IsOptional {
				optional = optional.Add(ItemSubTotal(item))
				continue
			}
			subTotal = subTotal.Add(ItemSubTotal(item))
			cost = cost.Add(ItemCost(item))
		}
	}

	q.SubTotal = subTotal
	q.Optional = optional
	q.Cost = cost
	q.Discount, q.DiscountPerc = applyDiscount(q.DiscountType, subTotal, q.Discount, q.DiscountPerc)
	q.Status = quoteAutoStatus(q.Status, subTotal)
	return nil
}

func applyDiscount(t domain.DiscountType, subTotal, discount, perc decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	switch t {
	case domain.DiscountTypePercentage:
		return subTotal.Mul(perc), perc
	case domain.DiscountTypeAmount:
		if subTotal.IsZero() {
			return discount, decimal.Zero
		}
		return discount, discount.Div(subTotal)
	default:
		return decimal.Zero, decimal.Zero
	}
}

func quoteAutoStatus(s domain.QuoteStatus, subTotal decimal.Decimal) domain.QuoteStatus {
	switch {
	case s == domain.QuoteStatusPending && subTotal.IsPositive():
		return domain.QuoteStatusInProgress
	case s == domain.QuoteStatusInProgress && subTotal.LessThanOrEqual(ZeroTolerance):
		return domain.QuoteStatusPending
	}
	return s
}

// RecalculatePO sums the items of po into SubTotal and Cost and flips
// Received/OnRevision on the same threshold as quotes. The discount is kept as entered.
func RecalculatePO(po *domain.PO) {
	subTotal := decimal.Zero
	cost := decimal.Zero
	for _, item := range po.Items {
		subTotal = subTotal.Add(item.Quantity.Mul(item.UnitPrice))
		cost = cost.Add(item.Quantity.Mul(item.UnitCost))
	}
	po.SubTotal = subTotal
	po.Cost = cost

	switch {
	case po.Status == domain.POStatusReceived && subTotal.GreaterThan(ZeroTolerance):
		po.Status = domain.POStatusOnRevision
	case po.Status == domain.POStatusOnRevision && subTotal.LessThanOrEqual(ZeroTolerance):
		po.Status = domain.POStatusReceived
	}
}

// Figures are the read-time values derived from the stored totals
type Figures struct {
	TaxAmount  decimal.Decimal
	Total      decimal.Decimal
	Profit     decimal.Decimal
	ProfitPerc decimal.Decimal
	// Amount is the total of a purchase order once received, zero before
	Amount decimal.Decimal
}

func figures(subTotal, discount, taxPerc, cost decimal.Decimal) Figures {
	net := subTotal.Sub(discount)
	f := Figures{
		TaxAmount: net.Mul(taxPerc),
		Total:     net.Mul(one.Add(taxPerc)),
		Profit:    net.Sub(cost),
	}
	if !net.IsZero() {
		f.ProfitPerc = f.Profit.Div(net)
	}
	return f
}

// QuoteFigures derives tax, total and profit of a quote
func QuoteFigures(q *domain.Quote) Figures {
	return figures(q.SubTotal, q.Discount, q.TaxPerc, q.Cost)
}

// POFigures derives tax, total, profit and the status-gated amount of a purchase order.
// Unlike quotes, a PO reports ProfitPerc on a 0-100 scale.
func POFigures(po *domain.PO) Figures {
	f := figures(po.SubTotal, po.Discount, po.TaxPerc, po.Cost)
	f.ProfitPerc = f.ProfitPerc.Mul(hundred)
	if po.Status >= domain.POStatusReceived {
		f.Amount = f.Total
	}
	return f
}

// OpportunityAmount picks won, then quoted, then estimated, whichever is first positive
func OpportunityAmount(o *domain.Opportunity) decimal.Decimal {
	switch {
	case o.AmountWon.IsPositive():
		return o.AmountWon
	case o.AmountQuoted.IsPositive():
		return o.AmountQuoted
	default:
		return o.AmountEstimated
	}
}
