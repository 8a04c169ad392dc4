package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/domain"
)

type poInput struct {
	CompanyID    *string          `json:"companyId" validate:"omitempty,uuid"`
	BuyerID      *string          `json:"buyerId" validate:"omitempty,uuid"`
	PONumber     *string          `json:"poNumber" validate:"omitempty,max=100"`
	PODate       *Date            `json:"poDate"`
	DeliveryDate *Date            `json:"deliveryDate"`
	Discount     *decimal.Decimal `json:"discount" validate:"omitempty,gte=0"`
	TaxPerc      *decimal.Decimal `json:"taxPerc" validate:"omitempty,gte=0,lt=1"`
	CurrencyCode *string          `json:"currencyCode" validate:"omitempty,max=5"`
	SetStatus    *int             `json:"setStatus" validate:"omitempty,oneof=50 100 250"`
	SalesUserID  *string          `json:"salesUserId" validate:"omitempty,uuid"`
	Items        []poItemInput    `json:"items" validate:"omitempty,dive"`
}

type poItemInput struct {
	ID              string           `json:"id" validate:"max=50"`
	Item            *string          `json:"item" validate:"omitempty,max=10"`
	Quantity        *decimal.Decimal `json:"quantity" validate:"omitempty,gte=0"`
	Unit            *string          `json:"unit" validate:"omitempty,max=15"`
	Description     *string          `json:"description"`
	UnitPrice       *decimal.Decimal `json:"unitPrice" validate:"omitempty,gte=0"`
	UnitCost        *decimal.Decimal `json:"unitCost" validate:"omitempty,gte=0"`
	QuotePartItemID *string          `json:"quotePartItemId" validate:"omitempty,eq=|uuid"`
}

var poKeys = []string{
	"companyId", "buyerId", "poNumber", "poDate", "deliveryDate", "discount", "taxPerc",
	"currencyCode", "items", "salesUserId", "setStatus",
}

var poItemKeys = []string{"id", "item", "quantity", "unit", "description", "unitPrice", "unitCost", "quotePartItemId"}

// POValidator validates purchase order writes
type POValidator struct {
	companies  CompanyFinder
	contacts   ContactFinder
	users      UserFinder
	quoteItems QuotePartItemFinder
	pos        PODuplicates
	currencies CurrencyChecker
	settings   Settings
}

// NewPOValidator creates a purchase order validator
func NewPOValidator(companies CompanyFinder, contacts ContactFinder, users UserFinder, quoteItems QuotePartItemFinder, pos PODuplicates, currencies CurrencyChecker, settings Settings) *POValidator {
	return &POValidator{
		companies:  companies,
		contacts:   contacts,
		users:      users,
		quoteItems: quoteItems,
		pos:        pos,
		currencies: currencies,
		settings:   settings,
	}
}

// Validate returns the purchase order to persist. Unrecognized keys are dropped.
func (v *POValidator) Validate(ctx context.Context, mode Mode, actor *domain.User, raw []byte, existing *domain.PO) (*domain.PO, error) {
	root, err := parseObject(raw)
	if err != nil {
		return nil, err
	}
	pick(root, poKeys...)
	if items, ok := root["items"].([]interface{}); ok {
		for _, it := range items {
			if obj, ok := it.(map[string]interface{}); ok {
				pick(obj, poItemKeys...)
			}
		}
	}
	if mode == ModeUpdate {
		if _, ok := root["companyId"]; ok {
			return nil, reject(`"companyId" is not allowed`)
		}
	}

	var in poInput
	if err := decodeObject(root, &in, nil); err != nil {
		return nil, err
	}
	if err := check(&in); err != nil {
		return nil, err
	}
	if mode == ModeCreate {
		if err := requireFields(
			requiredField("companyId", in.CompanyID != nil),
			requiredField("buyerId", in.BuyerID != nil),
			requiredField("salesUserId", in.SalesUserID != nil),
		); err != nil {
			return nil, err
		}
	}

	draft := &domain.PO{
		Status:       domain.POStatusReceived,
		TaxPerc:      v.settings.DefaultTaxPerc,
		CurrencyCode: v.settings.BaseCurrency,
	}
	if mode == ModeUpdate {
		copied := *existing
		copied.Company, copied.Buyer, copied.Items = nil, nil, nil
		draft = &copied
	}
	if in.CompanyID != nil {
		draft.CompanyID = mustID(*in.CompanyID)
	}
	if in.BuyerID != nil {
		draft.BuyerID = mustID(*in.BuyerID)
	}
	if in.SalesUserID != nil {
		draft.SalesUserID = mustID(*in.SalesUserID)
	}
	setString(&draft.PONumber, in.PONumber)
	setDate(&draft.PODate, in.PODate)
	setDate(&draft.DeliveryDate, in.DeliveryDate)
	setDecimal(&draft.TaxPerc, in.TaxPerc)
	if in.Discount != nil {
		draft.Discount = *in.Discount
		draft.DiscountType = domain.DiscountTypeNone
		if draft.Discount.IsPositive() {
			draft.DiscountType = domain.DiscountTypeAmount
		}
	}
	if in.CurrencyCode != nil && *in.CurrencyCode != "" {
		draft.CurrencyCode = strings.ToUpper(*in.CurrencyCode)
		known, err := v.currencies.IsKnown(ctx, draft.CurrencyCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check currency: %w", err)
		}
		if !known {
			return nil, reject(`"currencyCode" is invalid`)
		}
	}

	if draft.Items, err = v.mergeItems(ctx, in.Items, existing); err != nil {
		return nil, err
	}

	if mode == ModeCreate {
		company, err := v.companies.FindActive(ctx, draft.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load company: %w", err)
		}
		if company == nil {
			return nil, reject(`"companyId" is invalid`)
		}
		if !company.IsClient {
			return nil, reject(`"companyId" is not client`)
		}

		sales, err := v.users.FindActive(ctx, draft.SalesUserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load sales user: %w", err)
		}
		if sales == nil || !sales.IsRoleSales {
			return nil, reject(`"salesUserId" is invalid`)
		}

		buyer, err := v.contacts.FindActive(ctx, draft.BuyerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load buyer: %w", err)
		}
		if buyer == nil {
			return nil, reject(`"buyerId" is invalid`)
		}
		if buyer.CompanyID != company.ID {
			return nil, reject(`"buyerId" does not belong to company`)
		}
	} else if in.BuyerID != nil && draft.BuyerID != existing.BuyerID {
		buyer, err := v.contacts.FindActive(ctx, draft.BuyerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load buyer: %w", err)
		}
		if buyer == nil {
			return nil, reject(`"buyerId" is invalid`)
		}
		if buyer.CompanyID != draft.CompanyID {
			return nil, reject(`"buyerId" does not belong to company`)
		}
	}

	if in.SetStatus != nil {
		draft.Status = domain.POStatus(*in.SetStatus)
	}

	if draft.PONumber != "" {
		dup, err := v.pos.HasDuplicate(ctx, draft.CompanyID, draft.PONumber, draft.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check duplicate po: %w", err)
		}
		if dup {
			return nil, reject("Duplicated PO")
		}
	}

	return draft, nil
}

// mergeItems applies item input onto stored items. New items sourced from a quote
// item inherit its quantity, unit, description, price and cost when left blank.
func (v *POValidator) mergeItems(ctx context.Context, in []poItemInput, existing *domain.PO) ([]*domain.POItem, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]*domain.POItem, 0, len(in))
	for _, it := range in {
		id, err := childID(it.ID)
		if err != nil {
			return nil, err
		}
		item := &domain.POItem{}
		if id != uuid.Nil {
			var prev *domain.POItem
			if existing != nil {
				for _, ei := range existing.Items {
					if ei.ID == id {
						prev = ei
						break
					}
				}
			}
			if prev == nil {
				return nil, reject(`"id" is invalid`)
			}
			copied := *prev
			item = &copied
		}
		setString(&item.Item, it.Item)
		setDecimal(&item.Quantity, it.Quantity)
		setString(&item.Unit, it.Unit)
		setString(&item.Description, it.Description)
		setDecimal(&item.UnitPrice, it.UnitPrice)
		setDecimal(&item.UnitCost, it.UnitCost)
		if it.QuotePartItemID != nil {
			item.QuotePartItemID = refID(it.QuotePartItemID)
		}

		if id == uuid.Nil && item.QuotePartItemID != nil {
			source, err := v.quoteItems.FindActive(ctx, *item.QuotePartItemID)
			if err != nil {
				return nil, fmt.Errorf("failed to load quote item: %w", err)
			}
			if source == nil {
				return nil, reject(`"quotePartItemId" is invalid`)
			}
			inheritQuoteItem(item, source)
		}
		out = append(out, item)
	}
	return out, nil
}

func inheritQuoteItem(item *domain.POItem, source *domain.QuotePartItem) {
	if item.Quantity.IsZero() {
		item.Quantity = source.Quantity
	}
	if item.Description == "" {
		item.Description = source.Description
	}
	if item.Unit == "" {
		item.Unit = source.Unit
	}
	if item.UnitPrice.IsZero() {
		item.UnitPrice = source.UnitPrice()
	}
	if item.UnitCost.IsZero() {
		item.UnitCost = source.UnitCost
	}
	if item.Item == "" {
		item.Item = source.Item
	}
}
