package validation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type opportunityFixture struct {
	sales     *domain.User
	company   *domain.Company
	other     *domain.Company
	contact   *domain.Contact
	foreign   *domain.Contact
	settings  validation.Settings
	dups      *opportunityDups
	validator *validation.OpportunityValidator
}

func newOpportunityFixture() *opportunityFixture {
	f := &opportunityFixture{
		sales:   newUser(func(u *domain.User) { u.IsRoleSales = true }),
		company: newCompany(nil),
		other:   newCompany(func(c *domain.Company) { c.Name = "Other" }),
		dups:    &opportunityDups{},
	}
	f.contact = newContact(f.company.ID)
	f.foreign = newContact(f.other.ID)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f.settings = validation.DefaultSettings()
	f.settings.Now = func() time.Time { return now }

	f.validator = validation.NewOpportunityValidator(
		finder[domain.Company]{f.company.ID: f.company, f.other.ID: f.other},
		finder[domain.User]{f.sales.ID: f.sales},
		finder[domain.Contact]{f.contact.ID: f.contact, f.foreign.ID: f.foreign},
		f.dups,
		knownCodes{"USD": true, "MXN": true},
		f.settings,
	)
	return f
}

func TestOpportunityValidator_Create(t *testing.T) {
	f := newOpportunityFixture()
	admin := newUser(func(u *domain.User) { u.IsRoleAdmin = true })
	ctx := context.Background()

	t.Run("sales actor becomes the sales user", func(t *testing.T) {
		body := `{"name":"Pump upgrade","companyId":"` + f.company.ID.String() + `",
			"parts":[{"id":"new_1","name":"Pumps"},{"name":"Valves"}],
			"contacts":[{"contactId":"` + f.contact.ID.String() + `","canDecide":false}],
			"proposals":[{"proposalUserId":"` + f.sales.ID.String() + `"}]}`
		o, err := f.validator.Validate(ctx, validation.ModeCreate, f.sales, []byte(body), nil)
		require.NoError(t, err)

		assert.Equal(t, f.sales.ID, o.SalesUserID)
		assert.Equal(t, "USD", o.CurrencyCode)
		require.Len(t, o.Parts, 2)
		assert.Equal(t, uuid.Nil, o.Parts[0].ID, "placeholder ids are new rows")
		require.Len(t, o.Contacts, 1)
		assert.False(t, o.Contacts[0].CanDecide)
		assert.True(t, o.Contacts[0].ToQuote)
		require.Len(t, o.Proposals, 1)
		assert.Equal(t, f.settings.Now().Add(-7*24*time.Hour), f.dups.since)
	})

	tests := []struct {
		name    string
		actor   *domain.User
		body    string
		message string
	}{
		{"admin must name the sales user", admin, `{"name":"X","companyId":"` + f.company.ID.String() + `"}`, `"salesUserId" is required`},
		{"unknown company", f.sales, `{"name":"X","companyId":"` + uuid.NewString() + `"}`, `"companyId" is invalid`},
		{"unknown sales user", admin, `{"name":"X","companyId":"` + f.company.ID.String() + `","salesUserId":"` + uuid.NewString() + `"}`, `"salesUserId" is invalid`},
		{"contact of another company", f.sales, `{"name":"X","companyId":"` + f.company.ID.String() + `","contacts":[{"contactId":"` + f.foreign.ID.String() + `"}]}`, `"contacts" invalid`},
		{"contact listed twice", f.sales, `{"name":"X","companyId":"` + f.company.ID.String() + `","contacts":[{"contactId":"` + f.contact.ID.String() + `"},{"contactId":"` + f.contact.ID.String() + `"}]}`, `"contacts" invalid`},
		{"unknown currency", f.sales, `{"name":"X","companyId":"` + f.company.ID.String() + `","currencyCode":"zzz"}`, `"currencyCode" is invalid`},
		{"negative estimate", f.sales, `{"name":"X","companyId":"` + f.company.ID.String() + `","amountEstimated":-1}`, `"amountEstimated" must be greater than or equal to 0`},
		{"unknown status", f.sales, `{"name":"X","companyId":"` + f.company.ID.String() + `","status":15}`, `"status" is invalid`},
		{"new part needs name", f.sales, `{"name":"X","companyId":"` + f.company.ID.String() + `","parts":[{"description":"d"}]}`, `"name" is required`},
		{"bad part id", f.sales, `{"name":"X","companyId":"` + f.company.ID.String() + `","parts":[{"id":"abc","name":"n"}]}`, `"id" is invalid`},
		{"derived amount is ignored but unknown keys are not", f.sales, `{"name":"X","companyId":"` + f.company.ID.String() + `","amountWon":5,"foo":1}`, `"foo" is not allowed`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.validator.Validate(ctx, validation.ModeCreate, tc.actor, []byte(tc.body), nil)
			requireRejection(t, err, tc.message)
		})
	}

	t.Run("duplicate within window", func(t *testing.T) {
		f.dups.hit = true
		defer func() { f.dups.hit = false }()
		_, err := f.validator.Validate(ctx, validation.ModeCreate, f.sales, []byte(`{"name":"X","companyId":"`+f.company.ID.String()+`"}`), nil)
		requireRejection(t, err, "Duplicated Opportunity")
	})
}

func TestOpportunityValidator_UpdateMergesChildren(t *testing.T) {
	f := newOpportunityFixture()

	existing := &domain.Opportunity{
		Name:         "Pump upgrade",
		CurrencyCode: "USD",
		CompanyID:    f.company.ID,
		SalesUserID:  f.sales.ID,
	}
	existing.ID = uuid.New()
	existing.Active = true
	part := &domain.OpportunityPart{Name: "Pumps", Description: "keep me", Order: 1, OpportunityID: existing.ID}
	part.ID = uuid.New()
	link := &domain.OpportunityContact{ContactID: f.contact.ID, CanDecide: true, ToQuote: true, Note: "n", OpportunityID: existing.ID}
	link.ID = uuid.New()
	existing.Parts = []*domain.OpportunityPart{part}
	existing.Contacts = []*domain.OpportunityContact{link}

	t.Run("absent collections stay untouched", func(t *testing.T) {
		o, err := f.validator.Validate(context.Background(), validation.ModeUpdate, f.sales, []byte(`{"note":"hello"}`), existing)
		require.NoError(t, err)
		assert.Nil(t, o.Parts)
		assert.Nil(t, o.Contacts)
		assert.Nil(t, o.Proposals)
		assert.Equal(t, "hello", o.Note)
	})

	t.Run("empty collection clears", func(t *testing.T) {
		o, err := f.validator.Validate(context.Background(), validation.ModeUpdate, f.sales, []byte(`{"parts":[]}`), existing)
		require.NoError(t, err)
		require.NotNil(t, o.Parts)
		assert.Empty(t, o.Parts)
	})

	t.Run("known ids merge onto stored rows", func(t *testing.T) {
		body := `{"parts":[{"id":"` + part.ID.String() + `","name":"Pumps v2"}],
			"contacts":[{"contactId":"` + f.contact.ID.String() + `","toQuote":false}]}`
		o, err := f.validator.Validate(context.Background(), validation.ModeUpdate, f.sales, []byte(body), existing)
		require.NoError(t, err)

		require.Len(t, o.Parts, 1)
		assert.Equal(t, part.ID, o.Parts[0].ID)
		assert.Equal(t, "Pumps v2", o.Parts[0].Name)
		assert.Equal(t, "keep me", o.Parts[0].Description)
		assert.Equal(t, "Pumps", part.Name, "stored row is not mutated")

		require.Len(t, o.Contacts, 1)
		assert.Equal(t, link.ID, o.Contacts[0].ID, "contact rows are matched by contact when no id is sent")
		assert.False(t, o.Contacts[0].ToQuote)
		assert.Equal(t, "n", o.Contacts[0].Note)
	})

	t.Run("id of another opportunity", func(t *testing.T) {
		body := `{"parts":[{"id":"` + uuid.NewString() + `","name":"x"}]}`
		_, err := f.validator.Validate(context.Background(), validation.ModeUpdate, f.sales, []byte(body), existing)
		requireRejection(t, err, `"id" is invalid`)
	})
}
