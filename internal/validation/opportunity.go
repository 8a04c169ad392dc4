package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/domain"
)

type opportunityInput struct {
	Status          *int                       `json:"status" validate:"omitempty,min=0,max=210"`
	Name            *string                    `json:"name" validate:"omitempty,min=1,max=250"`
	Note            *string                    `json:"note"`
	CurrencyCode    *string                    `json:"currencyCode" validate:"omitempty,max=5"`
	AmountEstimated *decimal.Decimal           `json:"amountEstimated" validate:"omitempty,gte=0"`
	SalesUserID     *string                    `json:"salesUserId" validate:"omitempty,eq=|uuid"`
	CompanyID       *string                    `json:"companyId" validate:"omitempty,uuid"`
	Parts           []opportunityPartInput     `json:"parts" validate:"omitempty,dive"`
	Contacts        []opportunityContactInput  `json:"contacts" validate:"omitempty,dive"`
	Proposals       []opportunityProposalInput `json:"proposals" validate:"omitempty,dive"`
}

type opportunityPartInput struct {
	ID          string  `json:"id" validate:"max=50"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=250"`
	Description *string `json:"description"`
}

type opportunityContactInput struct {
	ID        string  `json:"id" validate:"max=50"`
	CanDecide *bool   `json:"canDecide"`
	ToQuote   *bool   `json:"toQuote"`
	Note      *string `json:"note"`
	ContactID string  `json:"contactId" validate:"required,uuid"`
}

type opportunityProposalInput struct {
	ProposalUserID string `json:"proposalUserId" validate:"required,uuid"`
}

var opportunityDeep = []string{"quoted", "opportunityId", "contact", "proposalUser", "fullName"}

var opportunityOmit = []string{
	"id", "amount", "addUser", "date", "salesUser", "company", "quotes", "projects",
	"opportunities", "amountQuoted", "amountWon", "strStatus",
}

// OpportunityValidator validates opportunity writes and their nested collections
type OpportunityValidator struct {
	companies     CompanyFinder
	users         UserFinder
	contacts      ContactFinder
	opportunities OpportunityDuplicates
	currencies    CurrencyChecker
	settings      Settings
}

// NewOpportunityValidator creates an opportunity validator
func NewOpportunityValidator(companies CompanyFinder, users UserFinder, contacts ContactFinder, opportunities OpportunityDuplicates, currencies CurrencyChecker, settings Settings) *OpportunityValidator {
	return &OpportunityValidator{
		companies:     companies,
		users:         users,
		contacts:      contacts,
		opportunities: opportunities,
		currencies:    currencies,
		settings:      settings,
	}
}

// Validate returns the opportunity to persist. A nil child slice on the result
// leaves that collection untouched; an empty one clears it.
func (v *OpportunityValidator) Validate(ctx context.Context, mode Mode, actor *domain.User, raw []byte, existing *domain.Opportunity) (*domain.Opportunity, error) {
	var in opportunityInput
	if err := decode(raw, &in, opportunityDeep, opportunityOmit); err != nil {
		return nil, err
	}
	if err := check(&in); err != nil {
		return nil, err
	}
	if mode == ModeCreate {
		if err := requireFields(
			requiredField("name", in.Name != nil),
			requiredField("companyId", in.CompanyID != nil),
		); err != nil {
			return nil, err
		}
	}

	draft := &domain.Opportunity{CurrencyCode: v.settings.BaseCurrency}
	if mode == ModeUpdate {
		copied := *existing
		copied.Company, copied.SalesUser = nil, nil
		copied.Parts, copied.Contacts, copied.Proposals = nil, nil, nil
		draft = &copied
	}

	if in.Status != nil {
		status := domain.OpportunityStatus(*in.Status)
		if !status.IsValid() {
			return nil, reject(`"status" is invalid`)
		}
		draft.Status = status
	}
	setString(&draft.Name, in.Name)
	setString(&draft.Note, in.Note)
	setDecimal(&draft.AmountEstimated, in.AmountEstimated)
	if in.CurrencyCode != nil {
		draft.CurrencyCode = strings.ToUpper(*in.CurrencyCode)
	}
	if in.CompanyID != nil {
		draft.CompanyID = mustID(*in.CompanyID)
	}
	bodySales := refID(in.SalesUserID)
	if bodySales != nil {
		draft.SalesUserID = *bodySales
	}

	var err error
	if draft.Parts, err = v.mergeParts(in.Parts, existing); err != nil {
		return nil, err
	}
	if draft.Contacts, err = v.mergeContacts(in.Contacts, existing); err != nil {
		return nil, err
	}
	if draft.Proposals, err = v.mergeProposals(in.Proposals, existing); err != nil {
		return nil, err
	}

	if mode == ModeCreate && bodySales == nil {
		if !actor.IsRoleSales {
			return nil, reject(`"salesUserId" is required`)
		}
		draft.SalesUserID = actor.ID
	}

	company, err := v.companies.FindActive(ctx, draft.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	if company == nil {
		return nil, reject(`"companyId" is invalid`)
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

	if in.CurrencyCode != nil {
		known, err := v.currencies.IsKnown(ctx, draft.CurrencyCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check currency: %w", err)
		}
		if !known {
			return nil, reject(`"currencyCode" is invalid`)
		}
	}

	since := v.settings.now().Add(-v.settings.DuplicateWindow)
	dup, err := v.opportunities.HasDuplicate(ctx, draft.CompanyID, draft.Name, since, draft.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate opportunity: %w", err)
	}
	if dup {
		return nil, reject("Duplicated Opportunity")
	}

	if len(draft.Contacts) > 0 {
		ids := make([]uuid.UUID, len(draft.Contacts))
		for i, c := range draft.Contacts {
			ids[i] = c.ContactID
		}
		ok, err := allMatch(ctx, ids, func(ctx context.Context, id uuid.UUID) (bool, error) {
			c, err := v.contacts.FindActive(ctx, id)
			return c != nil && c.CompanyID == draft.CompanyID, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check contacts: %w", err)
		}
		if !ok {
			return nil, reject(`"contacts" invalid`)
		}
	}

	if len(draft.Proposals) > 0 {
		ids := make([]uuid.UUID, len(draft.Proposals))
		for i, p := range draft.Proposals {
			ids[i] = p.ProposalUserID
		}
		ok, err := allMatch(ctx, ids, func(ctx context.Context, id uuid.UUID) (bool, error) {
			u, err := v.users.FindActive(ctx, id)
			return u != nil, err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check proposal users: %w", err)
		}
		if !ok {
			return nil, reject(`"proposals" invalid`)
		}
	}

	return draft, nil
}

func (v *OpportunityValidator) mergeParts(in []opportunityPartInput, existing *domain.Opportunity) ([]*domain.OpportunityPart, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]*domain.OpportunityPart, 0, len(in))
	for _, p := range in {
		id, err := childID(p.ID)
		if err != nil {
			return nil, err
		}
		part := &domain.OpportunityPart{}
		if id != uuid.Nil {
			prev := findOpportunityPart(existing, id)
			if prev == nil {
				return nil, reject(`"id" is invalid`)
			}
			copied := *prev
			part = &copied
		} else if p.Name == nil {
			return nil, reject(`"name" is required`)
		}
		setString(&part.Name, p.Name)
		setString(&part.Description, p.Description)
		out = append(out, part)
	}
	return out, nil
}

func (v *OpportunityValidator) mergeContacts(in []opportunityContactInput, existing *domain.Opportunity) ([]*domain.OpportunityContact, error) {
	if in == nil {
		return nil, nil
	}
	seen := make(map[uuid.UUID]struct{}, len(in))
	out := make([]*domain.OpportunityContact, 0, len(in))
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

		row := &domain.OpportunityContact{CanDecide: true, ToQuote: true}
		var prev *domain.OpportunityContact
		if id != uuid.Nil {
			if prev = findOpportunityContact(existing, id); prev == nil {
				return nil, reject(`"id" is invalid`)
			}
		} else {
			prev = findOpportunityContactByContact(existing, contactID)
		}
		if prev != nil {
			copied := *prev
			copied.Contact = nil
			row = &copied
		}
		row.ContactID = contactID
		setBool(&row.CanDecide, c.CanDecide)
		setBool(&row.ToQuote, c.ToQuote)
		setString(&row.Note, c.Note)
		out = append(out, row)
	}
	return out, nil
}

func (v *OpportunityValidator) mergeProposals(in []opportunityProposalInput, existing *domain.Opportunity) ([]*domain.OpportunityProposal, error) {
	if in == nil {
		return nil, nil
	}
	seen := make(map[uuid.UUID]struct{}, len(in))
	out := make([]*domain.OpportunityProposal, 0, len(in))
	for _, p := range in {
		userID := mustID(p.ProposalUserID)
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		out = append(out, &domain.OpportunityProposal{ProposalUserID: userID})
	}
	return out, nil
}

func findOpportunityPart(o *domain.Opportunity, id uuid.UUID) *domain.OpportunityPart {
	if o == nil {
		return nil
	}
	for _, p := range o.Parts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func findOpportunityContact(o *domain.Opportunity, id uuid.UUID) *domain.OpportunityContact {
	if o == nil {
		return nil
	}
	for _, c := range o.Contacts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func findOpportunityContactByContact(o *domain.Opportunity, contactID uuid.UUID) *domain.OpportunityContact {
	if o == nil {
		return nil
	}
	for _, c := range o.Contacts {
		if c.ContactID == contactID {
			return c
		}
	}
	return nil
}
