package validation

import (
	"context"
	"fmt"

	"github.com/straye-as/sales-api/internal/domain"
)

type contactInput struct {
	Avatar        *string `json:"avatar"`
	Prefix        *string `json:"prefix" validate:"omitempty,max=25"`
	FName         *string `json:"fName" validate:"omitempty,min=1,max=100"`
	LName         *string `json:"lName" validate:"omitempty,min=1,max=100"`
	Salutation    *string `json:"salutation" validate:"omitempty,max=100"`
	Title         *string `json:"title" validate:"omitempty,max=100"`
	Department    *string `json:"department" validate:"omitempty,max=150"`
	Phone         *string `json:"phone" validate:"omitempty,eq=|min=7,max=25"`
	PhonePersonal *string `json:"phonePersonal" validate:"omitempty,eq=|min=7,max=25"`
	Email         *string `json:"email" validate:"omitempty,eq=|min=7,max=150,eq=|email"`
	EmailPersonal *string `json:"emailPersonal" validate:"omitempty,eq=|min=7,max=150,eq=|email"`
	Note          *string `json:"note"`
	CompanyID     *string `json:"companyId" validate:"omitempty,uuid"`
}

var contactOmit = []string{"id", "addUser", "company", "fullName", "name", "opportunities"}

// ContactValidator validates contact writes
type ContactValidator struct {
	companies CompanyFinder
	contacts  ContactDuplicates
}

// NewContactValidator creates a contact validator
func NewContactValidator(companies CompanyFinder, contacts ContactDuplicates) *ContactValidator {
	return &ContactValidator{companies: companies, contacts: contacts}
}

// Validate returns the contact to persist. existing is required on update.
func (v *ContactValidator) Validate(ctx context.Context, mode Mode, actor *domain.User, raw []byte, existing *domain.Contact) (*domain.Contact, error) {
	var in contactInput
	if err := decode(raw, &in, nil, contactOmit); err != nil {
		return nil, err
	}
	if err := check(&in); err != nil {
		return nil, err
	}
	if mode == ModeCreate {
		if err := requireFields(
			requiredField("fName", in.FName != nil),
			requiredField("lName", in.LName != nil),
			requiredField("companyId", in.CompanyID != nil),
		); err != nil {
			return nil, err
		}
	}

	draft := &domain.Contact{}
	if mode == ModeUpdate {
		copied := *existing
		copied.Company = nil
		draft = &copied
	}
	setString(&draft.Avatar, in.Avatar)
	setString(&draft.Prefix, in.Prefix)
	setString(&draft.FName, in.FName)
	setString(&draft.LName, in.LName)
	setString(&draft.Salutation, in.Salutation)
	setString(&draft.Title, in.Title)
	setString(&draft.Department, in.Department)
	setString(&draft.Phone, in.Phone)
	setString(&draft.PhonePersonal, in.PhonePersonal)
	setString(&draft.Email, in.Email)
	setString(&draft.EmailPersonal, in.EmailPersonal)
	setString(&draft.Note, in.Note)
	if in.CompanyID != nil {
		draft.CompanyID = mustID(*in.CompanyID)
	}

	if mode == ModeUpdate && !actor.IsRoleSystem && !actor.IsRoleAdmin && !actor.AuthContactMod &&
		existing.AddUserID != actor.ID {
		return nil, forbid("User is not authorized")
	}

	if in.CompanyID != nil {
		company, err := v.companies.FindActive(ctx, draft.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load company: %w", err)
		}
		if company == nil {
			return nil, reject(`"companyId" is invalid`)
		}
	}

	dup, err := v.contacts.HasDuplicate(ctx, draft.CompanyID, draft.FName, draft.LName, draft.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate contact: %w", err)
	}
	if dup {
		return nil, reject("Duplicated Contact")
	}

	return draft, nil
}
