package validation

import (
	"context"
	"fmt"

	"github.com/straye-as/sales-api/internal/domain"
)

type companyInput struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=255"`
	Street1      *string `json:"street1" validate:"omitempty,max=150"`
	Street2      *string `json:"street2" validate:"omitempty,max=150"`
	City         *string `json:"city" validate:"omitempty,max=75"`
	State        *string `json:"state" validate:"omitempty,max=75"`
	Region       *string `json:"region" validate:"omitempty,max=75"`
	ZipCode      *string `json:"zipCode" validate:"omitempty,max=25"`
	TaxID        *string `json:"taxId" validate:"omitempty,eq=|min=2,max=30"`
	Phone        *string `json:"phone" validate:"omitempty,eq=|min=7,max=25"`
	Phone2       *string `json:"phone2" validate:"omitempty,eq=|min=7,max=25"`
	IsClient     *bool   `json:"isClient"`
	IsPartner    *bool   `json:"isPartner"`
	IsSupplier   *bool   `json:"isSupplier"`
	IsCompetitor *bool   `json:"isCompetitor"`
	SalesUserID  *string `json:"salesUserId" validate:"omitempty,eq=|uuid"`
}

var companyOmit = []string{"id", "salesUser", "addUser", "contacts", "opportunities", "quotes", "projects"}

// CompanyValidator validates company writes
type CompanyValidator struct {
	users     UserFinder
	companies CompanyDuplicates
}

// NewCompanyValidator creates a company validator
func NewCompanyValidator(users UserFinder, companies CompanyDuplicates) *CompanyValidator {
	return &CompanyValidator{users: users, companies: companies}
}

// Validate returns the company to persist. existing is required on update.
func (v *CompanyValidator) Validate(ctx context.Context, mode Mode, actor *domain.User, raw []byte, existing *domain.Company) (*domain.Company, error) {
	var in companyInput
	if err := decode(raw, &in, nil, companyOmit); err != nil {
		return nil, err
	}
	if err := check(&in); err != nil {
		return nil, err
	}
	if mode == ModeCreate {
		if err := requireFields(
			requiredField("name", in.Name != nil),
			requiredField("city", in.City != nil),
			requiredField("state", in.State != nil),
			requiredField("region", in.Region != nil),
		); err != nil {
			return nil, err
		}
	}

	draft := &domain.Company{}
	if mode == ModeUpdate {
		copied := *existing
		copied.SalesUser = nil
		copied.Contacts = nil
		draft = &copied
	}
	setString(&draft.Name, in.Name)
	setString(&draft.Street1, in.Street1)
	setString(&draft.Street2, in.Street2)
	setString(&draft.City, in.City)
	setString(&draft.State, in.State)
	setString(&draft.Region, in.Region)
	setString(&draft.ZipCode, in.ZipCode)
	setString(&draft.TaxID, in.TaxID)
	setString(&draft.Phone, in.Phone)
	setString(&draft.Phone2, in.Phone2)
	setBool(&draft.IsClient, in.IsClient)
	setBool(&draft.IsPartner, in.IsPartner)
	setBool(&draft.IsSupplier, in.IsSupplier)
	setBool(&draft.IsCompetitor, in.IsCompetitor)
	if in.SalesUserID != nil {
		draft.SalesUserID = refID(in.SalesUserID)
	}

	if !draft.IsClient && !draft.IsPartner && !draft.IsSupplier && !draft.IsCompetitor {
		return nil, reject("At least one company type is required")
	}

	// Ownership is judged on the stored row so a body cannot claim the company.
	if mode == ModeUpdate && !actor.IsRoleSystem && !actor.IsRoleAdmin && !actor.IsRolePM && !actor.AuthCompanyMod &&
		existing.AddUserID != actor.ID &&
		(existing.SalesUserID == nil || *existing.SalesUserID != actor.ID) {
		return nil, forbid("Not authorized to update company")
	}

	if draft.IsClient && draft.SalesUserID == nil {
		if !actor.IsRoleSales {
			return nil, reject(`"salesUserId" is required`)
		}
		id := actor.ID
		draft.SalesUserID = &id
	}

	if draft.IsClient && refID(in.SalesUserID) != nil {
		sales, err := v.users.FindActive(ctx, *draft.SalesUserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load sales user: %w", err)
		}
		if sales == nil || !sales.IsRoleSales {
			return nil, reject(`"salesUserId" is not a sales user`)
		}
	}

	dup, err := v.companies.HasDuplicate(ctx, draft.Name, draft.City, draft.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate company: %w", err)
	}
	if dup {
		return nil, reject("Duplicated company")
	}

	return draft, nil
}
