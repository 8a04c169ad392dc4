package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"github.com/straye-as/sales-api/internal/testutil"
	"github.com/straye-as/sales-api/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

type quoteFixtures struct {
	estimator   *domain.User
	sales       *domain.User
	contact     *domain.Contact
	opportunity *domain.Opportunity
}

func setupQuoteFixtures(t *testing.T, env *testEnv) quoteFixtures {
	t.Helper()
	sales := testutil.CreateUser(t, env.db, testutil.Sales)
	company := testutil.CreateCompany(t, env.db, sales, "Acme")
	return quoteFixtures{
		estimator:   testutil.CreateUser(t, env.db, testutil.Estimator),
		sales:       sales,
		contact:     testutil.CreateContact(t, env.db, company, "Ana", "Lopez"),
		opportunity: testutil.CreateOpportunity(t, env.db, company, sales, "Plant", "Pumps"),
	}
}

func (f quoteFixtures) createBody() []byte {
	return []byte(fmt.Sprintf(`{
		"opportunityId": %q,
		"contacts": [{"contactId": %q}],
		"parts": [{
			"name": "Pumps",
			"opportunityPartId": %q,
			"items": [{"quantity": 2, "costs": [{"quantity": 1, "costMaterial": 50, "profit": 0.5, "currencyCode": "USD"}]}]
		}]
	}`, f.opportunity.ID, f.contact.ID, f.opportunity.Parts[0].ID))
}

func currentWeekNumber(seq int) string {
	year, week := time.Now().UTC().ISOWeek()
	return fmt.Sprintf("Q%02d%02d%02d", year%100, week, seq)
}

func partQuoted(t *testing.T, env *testEnv, id uuid.UUID) bool {
	t.Helper()
	part, err := env.opportunityRepo.FindPart(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, part)
	return part.Quoted
}

func TestQuoteService_Create(t *testing.T) {
	env := setupServices(t, nil)
	f := setupQuoteFixtures(t, env)

	dto, err := env.quotes.Create(as(f.estimator), f.createBody())
	require.NoError(t, err)

	assert.Equal(t, currentWeekNumber(1), dto.QuoteNumber)
	assert.Equal(t, domain.QuoteStatusInProgress, dto.Status)
	assert.Equal(t, "USD", dto.CurrencyCode)
	assert.Equal(t, f.sales.ID, dto.SalesUserID, "sales user defaults to the opportunity's")
	assert.Equal(t, f.estimator.ID, dto.AddUserID)

	require.Len(t, dto.Contacts, 1)
	require.Len(t, dto.Parts, 1)
	require.Len(t, dto.Parts[0].Items, 1)
	require.Len(t, dto.Parts[0].Items[0].Costs, 1)
	assert.Equal(t, 1, dto.Parts[0].Order)

	item := dto.Parts[0].Items[0]
	assertDec(t, "100", item.CalUnitPrice, "calUnitPrice")
	assertDec(t, "50", item.UnitCost, "unitCost")
	assertDec(t, "200", dto.SubTotal, "subTotal")
	assertDec(t, "32", dto.TaxAmount, "taxAmount")
	assertDec(t, "232", dto.Total, "total")
	assertDec(t, "0.5", dto.ProfitPerc, "profitPerc")

	assert.True(t, partQuoted(t, env, f.opportunity.Parts[0].ID))

	o, err := env.opportunityRepo.GetByID(context.Background(), f.opportunity.ID)
	require.NoError(t, err)
	assertDec(t, "232", o.AmountQuoted, "amountQuoted")

	second, err := env.quotes.Create(as(f.estimator), []byte(fmt.Sprintf(`{"opportunityId": %q}`, f.opportunity.ID)))
	require.NoError(t, err)
	assert.Equal(t, currentWeekNumber(2), second.QuoteNumber)
	assert.Equal(t, domain.QuoteStatusPending, second.Status)
}

func TestQuoteService_Create_Rejections(t *testing.T) {
	env := setupServices(t, nil)
	f := setupQuoteFixtures(t, env)

	t.Run("sales without quote role", func(t *testing.T) {
		plain := testutil.CreateUser(t, env.db)
		_, err := env.quotes.Create(as(plain), f.createBody())
		var forbidden *auth.ForbiddenError
		require.ErrorAs(t, err, &forbidden)
		assert.Equal(t, "Not authorized to create quotes", forbidden.Reason)
	})

	t.Run("unknown cost currency", func(t *testing.T) {
		body := fmt.Sprintf(`{"opportunityId": %q, "parts": [{"name": "X", "items": [{"quantity": 1, "costs": [{"costMaterial": 1, "currencyCode": "JPY"}]}]}]}`, f.opportunity.ID)
		_, err := env.quotes.Create(as(f.estimator), []byte(body))
		rej, ok := validation.AsRejection(err)
		require.True(t, ok, "expected a rejection, got %v", err)
		assert.Equal(t, `"currencyCode" is invalid`, rej.Message)
	})

	t.Run("no actor", func(t *testing.T) {
		_, err := env.quotes.Create(context.Background(), f.createBody())
		assert.Error(t, err)
	})

	seq, err := env.numbers.CurrentQuoteSequence(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, seq, "rejected creates consume no number")
}

func TestQuoteService_Update_RemovingPartResyncsFlag(t *testing.T) {
	env := setupServices(t, nil)
	f := setupQuoteFixtures(t, env)

	created, err := env.quotes.Create(as(f.estimator), f.createBody())
	require.NoError(t, err)
	require.True(t, partQuoted(t, env, f.opportunity.Parts[0].ID))

	t.Run("untouched collections survive a header edit", func(t *testing.T) {
		dto, err := env.quotes.Update(as(f.estimator), created.ID, []byte(`{"name": "Rev A", "taxPerc": 0}`))
		require.NoError(t, err)
		assert.Equal(t, "Rev A", dto.Name)
		require.Len(t, dto.Parts, 1)
		assert.Equal(t, created.Parts[0].ID, dto.Parts[0].ID)
		assertDec(t, "200", dto.Total, "total without tax")
	})

	dto, err := env.quotes.Update(as(f.estimator), created.ID, []byte(`{"parts": []}`))
	require.NoError(t, err)
	assert.Empty(t, dto.Parts)
	assert.True(t, dto.SubTotal.IsZero())
	assert.Equal(t, domain.QuoteStatusPending, dto.Status, "an emptied quote falls back to pending")
	assert.False(t, partQuoted(t, env, f.opportunity.Parts[0].ID))

	var items int64
	require.NoError(t, env.db.Model(&domain.QuotePartItem{}).Count(&items).Error)
	assert.Zero(t, items, "items go with their part")
}

func TestQuoteService_Update_EditsItemInPlace(t *testing.T) {
	env := setupServices(t, nil)
	f := setupQuoteFixtures(t, env)

	created, err := env.quotes.Create(as(f.estimator), f.createBody())
	require.NoError(t, err)
	part, item := created.Parts[0], created.Parts[0].Items[0]

	body := fmt.Sprintf(`{"parts": [{"id": %q, "items": [{"id": %q, "quantity": 3}]}]}`, part.ID, item.ID)
	dto, err := env.quotes.Update(as(f.estimator), created.ID, []byte(body))
	require.NoError(t, err)

	require.Len(t, dto.Parts[0].Items, 1)
	got := dto.Parts[0].Items[0]
	assert.Equal(t, item.ID, got.ID)
	require.Len(t, got.Costs, 1, "costs are left alone when omitted")
	assertDec(t, "300", dto.SubTotal, "subTotal")
}

func TestQuoteService_ChangeStatusAndRevise(t *testing.T) {
	env := setupServices(t, nil)
	f := setupQuoteFixtures(t, env)
	admin := testutil.CreateUser(t, env.db, testutil.Admin)

	created, err := env.quotes.Create(as(f.estimator), f.createBody())
	require.NoError(t, err)

	_, err = env.quotes.Revise(as(admin), created.ID)
	_, isRejection := validation.AsRejection(err)
	assert.True(t, isRejection, "only presented quotes can be revised")

	for _, to := range []domain.QuoteStatus{domain.QuoteStatusDone, domain.QuoteStatusApproved, domain.QuoteStatusPresented} {
		dto, err := env.quotes.ChangeStatus(as(admin), created.ID, []byte(fmt.Sprintf(`{"toStatus": %d}`, to)))
		require.NoError(t, err, "to %s", to)
		assert.Equal(t, to, dto.Status)
	}

	_, err = env.quotes.ChangeStatus(as(admin), created.ID, []byte(`{"toStatus": 0}`))
	_, isRejection = validation.AsRejection(err)
	assert.True(t, isRejection, "presented cannot go back to pending")

	rev, err := env.quotes.Revise(as(admin), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.QuoteNumber+"-R1", rev.QuoteNumber)
	require.NotNil(t, rev.RevisedQuoteID)
	assert.Equal(t, created.ID, *rev.RevisedQuoteID)
	assert.Equal(t, domain.QuoteStatusInProgress, rev.Status)
	require.Len(t, rev.Parts, 1)
	assert.NotEqual(t, created.Parts[0].ID, rev.Parts[0].ID)
	assert.Equal(t, created.Parts[0].OpportunityPartID, rev.Parts[0].OpportunityPartID)
	assertDec(t, "232", rev.Total, "revision keeps the figures")

	old, err := env.quotes.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusClosedAsRevision, old.Status)

	// the revision of a revision bumps the counter
	_, err = env.quotes.ChangeStatus(as(admin), rev.ID, []byte(`{"toStatus": 20}`))
	require.NoError(t, err)
	for _, to := range []int{30, 40} {
		_, err = env.quotes.ChangeStatus(as(admin), rev.ID, []byte(fmt.Sprintf(`{"toStatus": %d}`, to)))
		require.NoError(t, err)
	}
	rev2, err := env.quotes.Revise(as(admin), rev.ID)
	require.NoError(t, err)
	assert.Equal(t, created.QuoteNumber+"-R2", rev2.QuoteNumber)
}

func TestQuoteService_SoftDelete(t *testing.T) {
	env := setupServices(t, nil)
	f := setupQuoteFixtures(t, env)
	admin := testutil.CreateUser(t, env.db, testutil.Admin)

	created, err := env.quotes.Create(as(f.estimator), f.createBody())
	require.NoError(t, err)

	require.NoError(t, env.quotes.SoftDelete(as(admin), created.ID))
	assert.False(t, partQuoted(t, env, f.opportunity.Parts[0].ID))

	dto, err := env.quotes.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, dto.Active)

	err = env.quotes.SoftDelete(as(admin), created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestQuoteService_ListScoping(t *testing.T) {
	env := setupServices(t, nil)
	f := setupQuoteFixtures(t, env)
	testutil.CreateQuote(t, env.db, f.opportunity, "Q240101")
	other := testutil.CreateUser(t, env.db, testutil.Sales)

	list, total, err := env.quotes.List(as(other), repository.Page{}, repository.QuoteFilters{}, repository.SortConfig{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	list, total, err = env.quotes.List(as(f.sales), repository.Page{}, repository.QuoteFilters{}, repository.SortConfig{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Q240101", list[0].QuoteNumber)
}
