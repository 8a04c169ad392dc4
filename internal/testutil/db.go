// Package testutil opens throwaway databases and builds fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/internal/database"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetupTestDB opens a private in-memory SQLite database with every model migrated.
// The pool holds a single connection, so a transaction and the pool can never
// see two different databases.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db), "failed to migrate test database")
	return db
}

// Now is the fixed clock used by fixtures
var Now = time.Date(2024, time.March, 14, 10, 0, 0, 0, time.UTC)

func audit(addUser uuid.UUID) domain.Audit {
	return domain.Audit{Active: true, AddDate: Now, AddUserID: addUser}
}

func create(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	require.NoError(t, db.Omit(clause.Associations).Create(v).Error)
}

// UserOption adjusts a fixture user before insert
type UserOption func(u *domain.User)

// Admin grants the admin role
func Admin(u *domain.User) { u.IsRoleAdmin = true }

// Sales grants the sales role with add and modify rights on every entity
func Sales(u *domain.User) {
	u.IsRoleSales = true
	u.AuthCompanyAdd, u.AuthCompanyMod = true, true
	u.AuthContactAdd, u.AuthContactMod = true, true
	u.AuthOpportunityAdd, u.AuthOpportunityMod = true, true
	u.AuthQuoteAdd, u.AuthQuoteMod = true, true
	u.AuthPOAdd, u.AuthPOMod = true, true
}

// Estimator grants the estimator role
func Estimator(u *domain.User) { u.IsRoleEstimator = true }

// CreateUser inserts an active user with a unique email
func CreateUser(t *testing.T, db *gorm.DB, opts ...UserOption) *domain.User {
	t.Helper()
	id := uuid.New()
	u := &domain.User{
		BaseModel: domain.BaseModel{ID: id},
		FName:     "Test",
		LName:     "User",
		Email:     id.String() + "@example.com",
		Password:  "x",
		Access:    true,
		Audit:     audit(id),
	}
	for _, opt := range opts {
		opt(u)
	}
	create(t, db, u)
	return u
}

// CreateCompany inserts an active client company sold by salesUser
func CreateCompany(t *testing.T, db *gorm.DB, salesUser *domain.User, name string) *domain.Company {
	t.Helper()
	c := &domain.Company{
		Name:        name,
		City:        "Monterrey",
		State:       "NL",
		Region:      "North",
		IsClient:    true,
		SalesUserID: &salesUser.ID,
		Audit:       audit(salesUser.ID),
	}
	create(t, db, c)
	return c
}

// CreateContact inserts an active contact of company
func CreateContact(t *testing.T, db *gorm.DB, company *domain.Company, fName, lName string) *domain.Contact {
	t.Helper()
	c := &domain.Contact{
		CompanyID: company.ID,
		FName:     fName,
		LName:     lName,
		Audit:     audit(company.AddUserID),
	}
	create(t, db, c)
	return c
}

// CreateOpportunity inserts an active opportunity of company with the given part names
func CreateOpportunity(t *testing.T, db *gorm.DB, company *domain.Company, salesUser *domain.User, name string, parts ...string) *domain.Opportunity {
	t.Helper()
	o := &domain.Opportunity{
		Name:         name,
		CurrencyCode: "USD",
		CompanyID:    company.ID,
		SalesUserID:  salesUser.ID,
		Audit:        audit(salesUser.ID),
	}
	create(t, db, o)
	for i, name := range parts {
		p := &domain.OpportunityPart{
			Order:         i + 1,
			Name:          name,
			OpportunityID: o.ID,
			AddUserID:     salesUser.ID,
			AddDate:       Now,
		}
		create(t, db, p)
		o.Parts = append(o.Parts, p)
	}
	return o
}

// CreateQuote inserts a pending quote of opportunity with the given number
func CreateQuote(t *testing.T, db *gorm.DB, o *domain.Opportunity, number string) *domain.Quote {
	t.Helper()
	q := &domain.Quote{
		QuoteNumber:   number,
		TaxPerc:       decimal.RequireFromString("0.16"),
		CurrencyCode:  "USD",
		OpportunityID: o.ID,
		SalesUserID:   o.SalesUserID,
		Audit:         audit(o.SalesUserID),
	}
	create(t, db, q)
	return q
}

// SeedCurrencies inserts rate rows with the given rates against USD
func SeedCurrencies(t *testing.T, db *gorm.DB, rates map[string]string) {
	t.Helper()
	for code, rate := range rates {
		create(t, db, &domain.Currency{Code: code, Rate: decimal.RequireFromString(rate), Date: Now})
	}
}
