package service_test

import (
	"context"
	"testing"

	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/currency"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"github.com/straye-as/sales-api/internal/storage"
	"github.com/straye-as/sales-api/internal/testutil"
	"github.com/straye-as/sales-api/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db *gorm.DB

	companyRepo     *repository.CompanyRepository
	opportunityRepo *repository.OpportunityRepository
	quoteRepo       *repository.QuoteRepository
	poRepo          *repository.PORepository

	companies     *service.CompanyService
	contacts      *service.ContactService
	opportunities *service.OpportunityService
	quotes        *service.QuoteService
	pos           *service.POService
	tasks         *service.TaskService
	currencies    *service.CurrencyService
	numbers       *service.NumberSequenceService
}

// setupServices wires every service against a fresh database seeded with USD and MXN
func setupServices(t *testing.T, archive storage.Storage) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.SeedCurrencies(t, db, map[string]string{"USD": "1", "MXN": "20"})

	logger := zap.NewNop()
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	contactRepo := repository.NewContactRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	poRepo := repository.NewPORepository(db)
	taskRepo := repository.NewTaskRepository(db)
	currencyRepo := repository.NewCurrencyRepository(db)
	tx := repository.NewTxRunner(db)
	locks := service.NewDocumentLocks()
	settings := validation.DefaultSettings()

	currencies := service.NewCurrencyService(currencyRepo, currency.NewTable(nil), currency.StaticFeed{},
		archive, "USD", []string{"USD", "MXN", "EUR"}, logger)
	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), logger)

	return &testEnv{
		db:              db,
		companyRepo:     companyRepo,
		opportunityRepo: opportunityRepo,
		quoteRepo:       quoteRepo,
		poRepo:          poRepo,
		companies:       service.NewCompanyService(companyRepo, userRepo, logger),
		contacts:        service.NewContactService(contactRepo, companyRepo, logger),
		opportunities: service.NewOpportunityService(opportunityRepo, companyRepo, userRepo, contactRepo,
			currencyRepo, tx, locks, settings, logger),
		quotes: service.NewQuoteService(quoteRepo, opportunityRepo, contactRepo, userRepo, currencyRepo,
			numbers, currencies, tx, locks, settings, logger),
		pos: service.NewPOService(poRepo, companyRepo, contactRepo, userRepo, quoteRepo, currencyRepo,
			tx, locks, settings, logger),
		tasks:      service.NewTaskService(taskRepo, userRepo, opportunityRepo, quoteRepo, poRepo, logger),
		currencies: currencies,
		numbers:    numbers,
	}
}

func as(u *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), auth.NewUserContext(u, "jwt"))
}
