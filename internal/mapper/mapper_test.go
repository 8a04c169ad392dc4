package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestToUserDTO(t *testing.T) {
	u := &domain.User{FName: "Ana", LName: "Lopez", Email: "ana@example.com", Password: "hash", IsRoleSales: true}
	u.ID = uuid.New()
	u.AddDate = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	dto := mapper.ToUserDTO(u)
	assert.Equal(t, "Ana Lopez", dto.FullName)
	assert.Equal(t, "Lopez, Ana", dto.FormalName)
	assert.True(t, dto.Roles.Sales)
	assert.Equal(t, "2024-01-02T03:04:05Z", dto.AddDate)
}

func TestToQuoteDTO_DerivedFigures(t *testing.T) {
	q := &domain.Quote{
		Status:   domain.QuoteStatusInProgress,
		SubTotal: d("200"),
		Cost:     d("100"),
		TaxPerc:  d("0.16"),
		Parts: []*domain.QuotePart{{
			Name: "P",
			Items: []*domain.QuotePartItem{{
				Quantity: d("2"), Fixed: true, FixedPrice: d("100"), CalUnitPrice: d("90"),
			}},
		}},
	}

	dto := mapper.ToQuoteDTO(q)
	assert.Equal(t, "InProgress", dto.StrStatus)
	assert.True(t, d("32").Equal(dto.TaxAmount))
	assert.True(t, d("232").Equal(dto.Total))
	assert.True(t, d("0.5").Equal(dto.ProfitPerc))
	require.Len(t, dto.Parts, 1)
	item := dto.Parts[0].Items[0]
	assert.True(t, d("100").Equal(item.UnitPrice))
	assert.True(t, d("200").Equal(item.SubTotal))
	assert.NotNil(t, dto.Contacts, "empty collections serialize as []")
}

func TestToPODTO_Amount(t *testing.T) {
	po := &domain.PO{Status: domain.POStatusAccepted, SubTotal: d("100"), TaxPerc: d("0.1"),
		Items: []*domain.POItem{{Quantity: d("2"), UnitPrice: d("50")}}}
	dto := mapper.ToPODTO(po)
	assert.Equal(t, "Accepted", dto.StrStatus)
	assert.True(t, d("110").Equal(dto.Amount))
	assert.True(t, d("100").Equal(dto.ProfitPerc), "po profit is reported as a percentage")
	assert.True(t, d("100").Equal(dto.Items[0].SubTotal))
}

func TestToOpportunityDTO(t *testing.T) {
	o := &domain.Opportunity{
		Status:          domain.OpportunityStatusQuoted,
		AmountEstimated: d("10"),
		AmountQuoted:    d("25"),
		Contacts: []*domain.OpportunityContact{{
			ContactID: uuid.New(),
			Contact:   &domain.Contact{Prefix: "Ing.", FName: "Luis", LName: "Perez"},
		}},
	}
	dto := mapper.ToOpportunityDTO(o)
	assert.Equal(t, "Quoted", dto.StrStatus)
	assert.True(t, d("25").Equal(dto.Amount))
	assert.Equal(t, "Ing. Luis Perez", dto.Contacts[0].FullName)
}
