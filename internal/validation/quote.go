package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/domain"
)

type quoteInput struct {
	Name          *string             `json:"name" validate:"omitempty,max=250"`
	QuoteDate     *Date               `json:"quoteDate"`
	QuoteExpDate  *Date               `json:"quoteExpDate"`
	QuoteDelivery *string             `json:"quoteDelivery" validate:"omitempty,max=250"`
	ParIntro      *string             `json:"parIntro"`
	ParClosing    *string             `json:"parClosing"`
	ParTerms      *string             `json:"parTerms"`
	CurrencyCode  *string             `json:"currencyCode" validate:"omitempty,max=5"`
	DiscountType  *int                `json:"discountType" validate:"omitempty,oneof=0 1 2"`
	Discount      *decimal.Decimal    `json:"discount" validate:"omitempty,gte=0"`
	DiscountPerc  *decimal.Decimal    `json:"discountPerc" validate:"omitempty,gte=0,lt=1"`
	TaxPerc       *decimal.Decimal    `json:"taxPerc" validate:"omitempty,gte=0,lt=1"`
	OpportunityID *string             `json:"opportunityId" validate:"omitempty,uuid"`
	SalesUserID   *string             `json:"salesUserId" validate:"omitempty,eq=|uuid"`
	Contacts      []quoteContactInput `json:"contacts" validate:"omitempty,dive"`
	Parts         []quotePartInput    `json:"parts" validate:"omitempty,dive"`
}

type quoteContactInput struct {
	ID        string `json:"id" validate:"max=50"`
	ContactID string `json:"contactId" validate:"required,uuid"`
}

type quotePartInput struct {
	ID                string           `json:"id" validate:"max=50"`
	Name              *string          `json:"name" validate:"omitempty,min=1,max=250"`
	Description       *string          `json:"description"`
	IsOptional        *bool            `json:"isOptional"`
	OpportunityPartID *string          `json:"opportunityPartId" validate:"omitempty,eq=|uuid"`
	Items             []quoteItemInput `json:"items" validate:"omitempty,dive"`
}

type quoteItemInput struct {
	ID          string           `json:"id" validate:"max=50"`
	Item        *string          `json:"item" validate:"omitempty,max=10"`
	Quantity    *decimal.Decimal `json:"quantity" validate:"omitempty,gte=0"`
	Unit        *string          `json:"unit" validate:"omitempty,max=15"`
	Description *string          `json:"description"`
	Fixed       *bool            `json:"fixed"`
	FixedPrice  *decimal.Decimal `json:"fixedPrice" validate:"omitempty,gte=0"`
	Costs       []quoteCostInput `json:"costs" validate:"omitempty,dive"`
}

type quoteCostInput struct {
	ID                  string           `json:"id" validate:"max=50"`
	Quantity            *decimal.Decimal `json:"quantity" validate:"omitempty,gte=0"`
	Unit                *string          `json:"unit" validate:"omitempty,max=15"`
	Description         *string          `json:"description"`
	Note                *string          `json:"note"`
	CostMaterial        *decimal.Decimal `json:"costMaterial" validate:"omitempty,gte=0"`
	CostLabor           *decimal.Decimal `json:"costLabor" validate:"omitempty,gte=0"`
	CostOther           *decimal.Decimal `json:"costOther" validate:"omitempty,gte=0"`
	Profit              *decimal.Decimal `json:"profit" validate:"omitempty,gte=0,lt=1"`
	CurrencyCode        *string          `json:"currencyCode" validate:"omitempty,max=5"`
	Pending             *bool            `json:"pending"`
	PendingFollowUpDate *Date            `json:"pendingFollowUpDate"`
}

var quoteDeep = []string{
	"order", "calUnitPrice", "unitCost", "unitPrice", "subTotal", "quoteId", "quotePartId",
	"quotePartItemId", "contact", "fullName",
}

var quoteOmit = []string{
	"id", "status", "strStatus", "quoteNumber", "optional", "cost", "revisedQuoteId",
	"opportunity", "salesUser", "addUser", "taxAmount", "total", "profit", "profitPerc",
	"amount", "date",
}

// QuoteValidator validates quote writes including the Part, Item and Cost tree
type QuoteValidator struct {
	opportunities OpportunityFinder
	parts         OpportunityPartFinder
	contacts      ContactFinder
	users         UserFinder
	currencies    CurrencyChecker
	settings      Settings
}

// NewQuoteValidator creates a quote validator
func NewQuoteValidator(opportunities OpportunityFinder, parts OpportunityPartFinder, contacts ContactFinder, users UserFinder, currencies CurrencyChecker, settings Settings) *QuoteValidator {
	return &QuoteValidator{
		opportunities: opportunities,
		parts:         parts,
		contacts:      contacts,
		users:         users,
		currencies:    currencies,
		settings:      settings,
	}
}

// Validate returns the quote to persist. existing must carry its full tree on update.
func (v *QuoteValidator) Validate(ctx context.Context, mode Mode, actor *domain.User, raw []byte, existing *domain.Quote) (*domain.Quote, error) {
	var in quoteInput
	if err := decode(raw, &in, quoteDeep, quoteOmit); err != nil {
		return nil, err
	}
	if err := check(&in); err != nil {
		return nil, err
	}
	if mode == ModeCreate {
		if err := requireFields(requiredField("opportunityId", in.OpportunityID != nil)); err != nil {
			return nil, err
		}
	} else if in.OpportunityID != nil && mustID(*in.OpportunityID) != existing.OpportunityID {
		return nil, reject(`"opportunityId" is not allowed`)
	}

	draft := &domain.Quote{Status: domain.QuoteStatusPending, TaxPerc: v.settings.DefaultTaxPerc}
	if mode == ModeUpdate {
		copied := *existing
		copied.Opportunity = nil
		copied.Parts, copied.Contacts = nil, nil
		draft = &copied
	} else {
		draft.OpportunityID = mustID(*in.OpportunityID)
	}

	opportunity, err := v.opportunities.FindActive(ctx, draft.OpportunityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load opportunity: %w", err)
	}
	if opportunity == nil {
		return nil, reject(`"opportunityId" is invalid`)
	}

	setString(&draft.Name, in.Name)
	setDate(&draft.QuoteDate, in.QuoteDate)
	setDate(&draft.QuoteExpDate, in.QuoteExpDate)
	setString(&draft.QuoteDelivery, in.QuoteDelivery)
	setString(&draft.ParIntro, in.ParIntro)
	setString(&draft.ParClosing, in.ParClosing)
	setString(&draft.ParTerms, in.ParTerms)
	setDecimal(&draft.Discount, in.Discount)
	setDecimal(&draft.DiscountPerc, in.DiscountPerc)
	setDecimal(&draft.TaxPerc, in.TaxPerc)
	if in.DiscountType != nil {
		draft.DiscountType = domain.DiscountType(*in.DiscountType)
	}
	if in.CurrencyCode != nil {
		draft.CurrencyCode = strings.ToUpper(*in.CurrencyCode)
	} else if mode == ModeCreate {
		draft.CurrencyCode = opportunity.CurrencyCode
	}

	bodySales := refID(in.SalesUserID)
	switch {
	case bodySales != nil:
		draft.SalesUserID = *bodySales
	case mode == ModeCreate:
		draft.SalesUserID = opportunity.SalesUserID
	}

	if draft.Contacts, err = mergeQuoteContacts(in.Contacts, existing); err != nil {
		return nil, err
	}
	if draft.Parts, err = v.mergeParts(in.Parts, existing, draft.CurrencyCode); err != nil {
		return nil, err
	}

	if mode == ModeCreate || in.CurrencyCode != nil {
		if err := v.knownCurrency(ctx, draft.CurrencyCode); err != nil {
			return nil, err
		}
	}
	for _, code := range costCurrencies(draft.Parts, draft.CurrencyCode) {
		if err := v.knownCurrency(ctx, code); err != nil {
			return nil, err
		}
	}

	if bodySales != nil {
		sales, err := v.users.FindActive(ctx, *bodySales)
		if err != nil {
			return nil, fmt.Errorf("failed to load sales user: %w", err)
		}
		if sales == nil {
			return nil, reject(`"salesUserId" is invalid`)
		}
	}

	if len(draft.Contacts) > 0 {
		ids := make([]uuid.UUID, len(draft.Contacts))
		for i, c := range draft.Contacts {
			ids[i] = c.ContactID
		}
		ok, err := allMatch(ctx, ids, func(ctx context.Context, id uuid.UUID) (bool, error) {
			c, err := v.contacts.FindActive(ctx, id)
			return c != nil && c.CompanyID == opportunity.CompanyID, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check contacts: %w", err)
		}
		if !ok {
			return nil, reject(`"contacts" invalid`)
		}
	}

	var sourced []uuid.UUID
	for _, p := range draft.Parts {
		if p.ID == uuid.Nil && p.OpportunityPartID != nil {
			sourced = append(sourced, *p.OpportunityPartID)
		}
	}
	if len(sourced) > 0 {
		ok, err := allMatch(ctx, sourced, func(ctx context.Context, id uuid.UUID) (bool, error) {
			part, err := v.parts.FindActive(ctx, id)
			return part != nil && part.OpportunityID == opportunity.ID, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check opportunity parts: %w", err)
		}
		if !ok {
			return nil, reject(`"opportunityPartId" is invalid`)
		}
	}

	return draft, nil
}

func (v *QuoteValidator) knownCurrency(ctx context.Context, code string) error {
	if code == "" {
		return reject(`"currencyCode" is invalid`)
	}
	known, err := v.currencies.IsKnown(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to check currency: %w", err)
	}
	if !known {
		return reject(`"currencyCode" is invalid`)
	}
	return nil
}

func costCurrencies(parts []*domain.QuotePart, quoteCurrency string) []string {
	seen := map[string]struct{}{quoteCurrency: {}}
	var codes []string
	for _, p := range parts {
		for _, it := range p.Items {
			for _, c := range it.Costs {
				if _, ok := seen[c.CurrencyCode]; ok {
					continue
				}
				seen[c.CurrencyCode] = struct{}{}
				codes = append(codes, c.CurrencyCode)
			}
		}
	}
	return codes
}

func mergeQuoteContacts(in []quoteContactInput, existing *domain.Quote) ([]*domain.QuoteContact, error) {
	if in == nil {
		return nil, nil
	}
	seen := make(map[uuid.UUID]struct{}, len(in))
	out := make([]*domain.QuoteContact, 0, len(in))
	for _, c := range in {
		id, err := childID(c.ID)
		if err != nil {
			return nil, err
		}
		contactID := mustID(c.ContactID)
		if _, dup := seen[contactID]; dup {
			return nil, reject(`"contacts" invalid`)
		}
		seen[contactID] = struct{}{}

		row := &domain.QuoteContact{}
		var prev *domain.QuoteContact
		if existing != nil {
			for _, ec := range existing.Contacts {
				if (id != uuid.Nil && ec.ID == id) || (id == uuid.Nil && ec.ContactID == contactID) {
					prev = ec
					break
				}
			}
		}
		if id != uuid.Nil && prev == nil {
			return nil, reject(`"id" is invalid`)
		}
		if prev != nil {
			copied := *prev
			copied.Contact = nil
			row = &copied
		}
		row.ContactID = contactID
		out = append(out, row)
	}
	return out, nil
}

func (v *QuoteValidator) mergeParts(in []quotePartInput, existing *domain.Quote, currencyCode string) ([]*domain.QuotePart, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]*domain.QuotePart, 0, len(in))
	for _, p := range in {
		id, err := childID(p.ID)
		if err != nil {
			return nil, err
		}
		part := &domain.QuotePart{}
		var prev *domain.QuotePart
		if id != uuid.Nil {
			if existing != nil {
				for _, ep := range existing.Parts {
					if ep.ID == id {
						prev = ep
						break
					}
				}
			}
			if prev == nil {
				return nil, reject(`"id" is invalid`)
			}
			copied := *prev
			copied.Items = nil
			part = &copied
			if p.OpportunityPartID != nil && !sameRef(prev.OpportunityPartID, refID(p.OpportunityPartID)) {
				return nil, reject(`"opportunityPartId" is not allowed`)
			}
		} else {
			if p.Name == nil {
				return nil, reject(`"name" is required`)
			}
			part.OpportunityPartID = refID(p.OpportunityPartID)
		}
		setString(&part.Name, p.Name)
		setString(&part.Description, p.Description)
		setBool(&part.IsOptional, p.IsOptional)

		if part.Items, err = mergeItems(p.Items, prev, currencyCode); err != nil {
			return nil, err
		}
		out = append(out, part)
	}
	return out, nil
}

func mergeItems(in []quoteItemInput, prev *domain.QuotePart, currencyCode string) ([]*domain.QuotePartItem, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]*domain.QuotePartItem, 0, len(in))
	for _, it := range in {
		id, err := childID(it.ID)
		if err != nil {
			return nil, err
		}
		item := &domain.QuotePartItem{}
		var prevItem *domain.QuotePartItem
		if id != uuid.Nil {
			if prev != nil {
				for _, ei := range prev.Items {
					if ei.ID == id {
						prevItem = ei
						break
					}
				}
			}
			if prevItem == nil {
				return nil, reject(`"id" is invalid`)
			}
			copied := *prevItem
			copied.Costs = nil
			item = &copied
		}
		setString(&item.Item, it.Item)
		setDecimal(&item.Quantity, it.Quantity)
		setString(&item.Unit, it.Unit)
		setString(&item.Description, it.Description)
		setBool(&item.Fixed, it.Fixed)
		setDecimal(&item.FixedPrice, it.FixedPrice)

		if item.Costs, err = mergeCosts(it.Costs, prevItem, currencyCode); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func mergeCosts(in []quoteCostInput, prev *domain.QuotePartItem, currencyCode string) ([]*domain.QuotePartItemCost, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]*domain.QuotePartItemCost, 0, len(in))
	for _, c := range in {
		id, err := childID(c.ID)
		if err != nil {
			return nil, err
		}
		cost := &domain.QuotePartItemCost{CurrencyCode: currencyCode}
		if id != uuid.Nil {
			var prevCost *domain.QuotePartItemCost
			if prev != nil {
				for _, ec := range prev.Costs {
					if ec.ID == id {
						prevCost = ec
						break
					}
				}
			}
			if prevCost == nil {
				return nil, reject(`"id" is invalid`)
			}
			copied := *prevCost
			cost = &copied
		}
		setDecimal(&cost.Quantity, c.Quantity)
		setString(&cost.Unit, c.Unit)
		setString(&cost.Description, c.Description)
		setString(&cost.Note, c.Note)
		setDecimal(&cost.CostMaterial, c.CostMaterial)
		setDecimal(&cost.CostLabor, c.CostLabor)
		setDecimal(&cost.CostOther, c.CostOther)
		setDecimal(&cost.Profit, c.Profit)
		if c.CurrencyCode != nil && *c.CurrencyCode != "" {
			cost.CurrencyCode = strings.ToUpper(*c.CurrencyCode)
		}
		setBool(&cost.Pending, c.Pending)
		setDate(&cost.PendingFollowUpDate, c.PendingFollowUpDate)
		out = append(out, cost)
	}
	return out, nil
}

func sameRef(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type statusChangeInput struct {
	ToStatus *int `json:"toStatus" validate:"required,min=0,max=200"`
}

// quoteTransitions lists the operator-driven moves besides InProgress to Done.
// Pending and InProgress follow the part count and are never set by hand.
var quoteTransitions = map[domain.QuoteStatus][]domain.QuoteStatus{
	domain.QuoteStatusPending:    {domain.QuoteStatusCancelled},
	domain.QuoteStatusInProgress: {domain.QuoteStatusCancelled},
	domain.QuoteStatusDone:       {domain.QuoteStatusApproved, domain.QuoteStatusCancelled},
	domain.QuoteStatusApproved:   {domain.QuoteStatusPresented, domain.QuoteStatusCancelled},
	domain.QuoteStatusPresented:  {domain.QuoteStatusExpired, domain.QuoteStatusCancelled},
}

// QuoteStatusChange validates an operator-requested status change of q and returns
// the target status. q must carry its parts and contacts.
func QuoteStatusChange(actor *domain.User, q *domain.Quote, raw []byte) (domain.QuoteStatus, error) {
	var in statusChangeInput
	if err := decode(raw, &in, nil, nil); err != nil {
		return q.Status, err
	}
	if err := check(&in); err != nil {
		return q.Status, err
	}

	to := domain.QuoteStatus(*in.ToStatus)
	if !to.IsValid() {
		return q.Status, reject("Quote status is invalid")
	}

	if to == domain.QuoteStatusDone && q.Status == domain.QuoteStatusInProgress {
		if len(q.Parts) == 0 {
			return q.Status, reject("Quote needs to have parts to be changed as Done")
		}
		if len(q.Contacts) == 0 {
			return q.Status, reject("Quote needs to have contacts to be changed as Done")
		}
		return to, nil
	}

	for _, allowed := range quoteTransitions[q.Status] {
		if allowed != to {
			continue
		}
		if to == domain.QuoteStatusApproved && !actor.IsRoleSystem && !actor.IsRoleAdmin && !actor.AuthQuoteApproval {
			return q.Status, forbid("User is not authorized")
		}
		return to, nil
	}
	return q.Status, reject("Change status is not allowed")
}

// QuoteRevisable rejects revising a quote that has not been presented
func QuoteRevisable(q *domain.Quote) error {
	if q.Status != domain.QuoteStatusPresented {
		return reject("Only presented quotes can be revised")
	}
	return nil
}

// POStatusChange rejects every explicit PO status change; PO status moves through
// setStatus on update and the pricing engine.
func POStatusChange(po *domain.PO, raw []byte) (domain.POStatus, error) {
	var in statusChangeInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return po.Status, reject(`"value" must be of type object`)
	}
	return po.Status, reject("Change status is not allowed")
}
