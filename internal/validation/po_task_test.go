package validation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poFixture struct {
	sales     *domain.User
	estimator *domain.User
	client    *domain.Company
	supplier  *domain.Company
	buyer     *domain.Contact
	outsider  *domain.Contact
	source    *domain.QuotePartItem
	dups      *poDups
	validator *validation.POValidator
}

func newPOFixture() *poFixture {
	f := &poFixture{
		sales:     newUser(func(u *domain.User) { u.IsRoleSales = true }),
		estimator: newUser(func(u *domain.User) { u.IsRoleEstimator = true }),
		client:    newCompany(nil),
		supplier:  newCompany(func(c *domain.Company) { c.IsClient = false; c.IsSupplier = true }),
		dups:      &poDups{},
	}
	f.buyer = newContact(f.client.ID)
	f.outsider = newContact(f.supplier.ID)
	f.source = &domain.QuotePartItem{
		Item:         "A1",
		Quantity:     decimal.NewFromInt(3),
		Unit:         "pz",
		Description:  "Pump",
		CalUnitPrice: decimal.NewFromInt(120),
		UnitCost:     decimal.NewFromInt(80),
	}
	f.source.ID = uuid.New()

	f.validator = validation.NewPOValidator(
		finder[domain.Company]{f.client.ID: f.client, f.supplier.ID: f.supplier},
		finder[domain.Contact]{f.buyer.ID: f.buyer, f.outsider.ID: f.outsider},
		finder[domain.User]{f.sales.ID: f.sales, f.estimator.ID: f.estimator},
		finder[domain.QuotePartItem]{f.source.ID: f.source},
		f.dups,
		knownCodes{"USD": true, "MXN": true},
		validation.DefaultSettings(),
	)
	return f
}

func (f *poFixture) body(extra string) string {
	return `{"companyId":"` + f.client.ID.String() + `","buyerId":"` + f.buyer.ID.String() +
		`","salesUserId":"` + f.sales.ID.String() + `"` + extra + `}`
}

func TestPOValidator_Create(t *testing.T) {
	f := newPOFixture()
	admin := newUser(func(u *domain.User) { u.IsRoleAdmin = true })

	body := f.body(`,"poNumber":"PO-1","subTotal":5,"strStatus":"x","currencyCode":"mxn","discount":10,
		"items":[{"quotePartItemId":"` + f.source.ID.String() + `","quantity":1,"subTotal":9},{"description":"Freight","unitPrice":50}]`)
	po, err := f.validator.Validate(context.Background(), validation.ModeCreate, admin, []byte(body), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.POStatusReceived, po.Status)
	assert.Equal(t, "MXN", po.CurrencyCode)
	assert.Equal(t, domain.DiscountTypeAmount, po.DiscountType)
	assert.True(t, po.SubTotal.IsZero())
	require.Len(t, po.Items, 2)

	inherited := po.Items[0]
	assert.True(t, inherited.Quantity.Equal(decimal.NewFromInt(1)), "explicit quantity wins")
	assert.Equal(t, "pz", inherited.Unit)
	assert.Equal(t, "Pump", inherited.Description)
	assert.True(t, inherited.UnitPrice.Equal(decimal.NewFromInt(120)))
	assert.True(t, inherited.UnitCost.Equal(decimal.NewFromInt(80)))

	assert.Nil(t, po.Items[1].QuotePartItemID)
	assert.Equal(t, 1, f.dups.calls)
}

func TestPOValidator_Rejections(t *testing.T) {
	f := newPOFixture()
	admin := newUser(func(u *domain.User) { u.IsRoleAdmin = true })

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"buyer required", `{"companyId":"` + f.client.ID.String() + `","salesUserId":"` + f.sales.ID.String() + `"}`, `"buyerId" is required`},
		{"unknown company", `{"companyId":"` + uuid.NewString() + `","buyerId":"` + f.buyer.ID.String() + `","salesUserId":"` + f.sales.ID.String() + `"}`, `"companyId" is invalid`},
		{"company is not a client", `{"companyId":"` + f.supplier.ID.String() + `","buyerId":"` + f.outsider.ID.String() + `","salesUserId":"` + f.sales.ID.String() + `"}`, `"companyId" is not client`},
		{"sales user is not sales", `{"companyId":"` + f.client.ID.String() + `","buyerId":"` + f.buyer.ID.String() + `","salesUserId":"` + f.estimator.ID.String() + `"}`, `"salesUserId" is invalid`},
		{"unknown buyer", `{"companyId":"` + f.client.ID.String() + `","buyerId":"` + uuid.NewString() + `","salesUserId":"` + f.sales.ID.String() + `"}`, `"buyerId" is invalid`},
		{"buyer of another company", `{"companyId":"` + f.client.ID.String() + `","buyerId":"` + f.outsider.ID.String() + `","salesUserId":"` + f.sales.ID.String() + `"}`, `"buyerId" does not belong to company`},
		{"status outside the allow list", f.body(`,"setStatus":200`), `"setStatus" must be one of [50, 100, 250]`},
		{"tax below one", f.body(`,"taxPerc":1.5`), `"taxPerc" must be less than 1`},
		{"unknown quote item", f.body(`,"items":[{"quotePartItemId":"` + uuid.NewString() + `"}]`), `"quotePartItemId" is invalid`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.validator.Validate(context.Background(), validation.ModeCreate, admin, []byte(tc.body), nil)
			requireRejection(t, err, tc.message)
		})
	}

	t.Run("duplicate number", func(t *testing.T) {
		f.dups.hit = true
		defer func() { f.dups.hit = false }()
		_, err := f.validator.Validate(context.Background(), validation.ModeCreate, admin, []byte(f.body(`,"poNumber":"PO-1"`)), nil)
		requireRejection(t, err, "Duplicated PO")
	})
}

func TestPOValidator_Update(t *testing.T) {
	f := newPOFixture()
	admin := newUser(func(u *domain.User) { u.IsRoleAdmin = true })

	existing := &domain.PO{Status: domain.POStatusOnRevision, CompanyID: f.client.ID, BuyerID: f.buyer.ID, SalesUserID: f.sales.ID, CurrencyCode: "USD"}
	existing.ID = uuid.New()
	item := &domain.POItem{Description: "Pump", Quantity: decimal.NewFromInt(2), POID: existing.ID}
	item.ID = uuid.New()
	existing.Items = []*domain.POItem{item}

	_, err := f.validator.Validate(context.Background(), validation.ModeUpdate, admin, []byte(`{"companyId":"`+f.client.ID.String()+`"}`), existing)
	requireRejection(t, err, `"companyId" is not allowed`)

	po, err := f.validator.Validate(context.Background(), validation.ModeUpdate, admin,
		[]byte(`{"setStatus":50,"items":[{"id":"`+item.ID.String()+`","quantity":5}]}`), existing)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusAccepted, po.Status)
	require.Len(t, po.Items, 1)
	assert.Equal(t, item.ID, po.Items[0].ID)
	assert.Equal(t, "Pump", po.Items[0].Description)
	assert.True(t, po.Items[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 0, f.dups.calls, "blank po numbers are not checked")
}

func TestPOStatusChange(t *testing.T) {
	po := &domain.PO{Status: domain.POStatusReceived}
	status, err := validation.POStatusChange(po, []byte(`{"toStatus":50}`))
	requireRejection(t, err, "Change status is not allowed")
	assert.Equal(t, domain.POStatusReceived, status)
}

type taskFixture struct {
	user      *domain.User
	opp       *domain.Opportunity
	quote     *domain.Quote
	po        *domain.PO
	validator *validation.TaskValidator
}

func newTaskFixture() *taskFixture {
	f := &taskFixture{user: newUser(nil), opp: &domain.Opportunity{}, quote: &domain.Quote{}, po: &domain.PO{}}
	f.opp.ID, f.quote.ID, f.po.ID = uuid.New(), uuid.New(), uuid.New()
	f.validator = validation.NewTaskValidator(
		finder[domain.User]{f.user.ID: f.user},
		finder[domain.Opportunity]{f.opp.ID: f.opp},
		finder[domain.Quote]{f.quote.ID: f.quote},
		finder[domain.PO]{f.po.ID: f.po},
	)
	return f
}

func TestTaskValidator(t *testing.T) {
	f := newTaskFixture()
	base := `"name":"Call client","responsibleId":"` + f.user.ID.String() + `","startDate":"2026-03-01"`

	t.Run("valid with one link", func(t *testing.T) {
		task, err := f.validator.Validate(context.Background(), validation.ModeCreate, f.user,
			[]byte(`{`+base+`,"quoteId":"`+f.quote.ID.String()+`","opportunityId":"","progress":30}`), nil)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusScheduled, task.Status)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), task.StartDate)
		require.NotNil(t, task.QuoteID)
		assert.Nil(t, task.OpportunityID)
		assert.Equal(t, 30, task.Progress)
	})

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"two links", `{` + base + `,"opportunityId":"` + f.opp.ID.String() + `","quoteId":"` + f.quote.ID.String() + `"}`, "Only one of opportunityId, quoteId, or poId can be provided"},
		{"three links", `{` + base + `,"opportunityId":"` + f.opp.ID.String() + `","quoteId":"` + f.quote.ID.String() + `","poId":"` + f.po.ID.String() + `"}`, "Only one of opportunityId, quoteId, or poId can be provided"},
		{"start date required", `{"name":"n","responsibleId":"` + f.user.ID.String() + `"}`, `"startDate" is required`},
		{"bad date", `{` + base[:len(base)-len(`"2026-03-01"`)] + `"yesterday"}`, `"date" must be a valid date`},
		{"unknown responsible", `{"name":"n","responsibleId":"` + uuid.NewString() + `","startDate":"2026-03-01"}`, `"responsibleId" is invalid`},
		{"unknown opportunity", `{` + base + `,"opportunityId":"` + uuid.NewString() + `"}`, `"opportunityId" is invalid`},
		{"unknown quote", `{` + base + `,"quoteId":"` + uuid.NewString() + `"}`, `"quoteId" is invalid`},
		{"unknown po", `{` + base + `,"poId":"` + uuid.NewString() + `"}`, `"poId" is invalid`},
		{"progress above 100", `{` + base + `,"progress":101}`, `"progress" must be less than or equal to 100`},
		{"invalid status", `{` + base + `,"setStatus":15}`, `"setStatus" must be one of [10, 20, 100, 200, 250, 251]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.validator.Validate(context.Background(), validation.ModeCreate, f.user, []byte(tc.body), nil)
			requireRejection(t, err, tc.message)
		})
	}

	t.Run("update may move the link", func(t *testing.T) {
		existing := &domain.Task{Name: "n", ResponsibleID: f.user.ID, QuoteID: &f.quote.ID}
		existing.ID = uuid.New()

		_, err := f.validator.Validate(context.Background(), validation.ModeUpdate, f.user,
			[]byte(`{"poId":"`+f.po.ID.String()+`"}`), existing)
		requireRejection(t, err, "Only one of opportunityId, quoteId, or poId can be provided")

		task, err := f.validator.Validate(context.Background(), validation.ModeUpdate, f.user,
			[]byte(`{"poId":"`+f.po.ID.String()+`","quoteId":""}`), existing)
		require.NoError(t, err)
		assert.Nil(t, task.QuoteID)
		require.NotNil(t, task.POID)
		assert.Equal(t, f.po.ID, *task.POID)
	})
}
