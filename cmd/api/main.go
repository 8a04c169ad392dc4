package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/sales-api/docs"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/config"
	"github.com/straye-as/sales-api/internal/currency"
	"github.com/straye-as/sales-api/internal/database"
	"github.com/straye-as/sales-api/internal/datawarehouse"
	"github.com/straye-as/sales-api/internal/http/handler"
	"github.com/straye-as/sales-api/internal/http/middleware"
	"github.com/straye-as/sales-api/internal/http/router"
	"github.com/straye-as/sales-api/internal/jobs"
	"github.com/straye-as/sales-api/internal/logger"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"github.com/straye-as/sales-api/internal/storage"
	"github.com/straye-as/sales-api/internal/validation"
	"go.uber.org/zap"
)

// @title Sales API
// @version 1.0
// @description CRM and quoting API for companies, opportunities, quotes, purchase orders and tasks

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// The warehouse is optional; without it the warehouse feed falls back to stored rates
	var dwClient *datawarehouse.Client
	if cfg.DataWarehouse.Enabled {
		dwClient, err = datawarehouse.NewClient(&cfg.DataWarehouse, log)
		if err != nil {
			log.Warn("Data warehouse connection failed, continuing without it", zap.Error(err))
			dwClient = nil
		}
	}

	var archive storage.Storage
	if cfg.Currency.ArchiveSnapshots {
		archive, err = storage.NewStorage(&cfg.Storage, log)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		log.Info("Rate snapshot archive enabled", zap.String("mode", cfg.Storage.Mode))
	}

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	contactRepo := repository.NewContactRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	poRepo := repository.NewPORepository(db)
	taskRepo := repository.NewTaskRepository(db)
	currencyRepo := repository.NewCurrencyRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	tx := repository.NewTxRunner(db)

	settings := validation.Settings{
		BaseCurrency:    cfg.Currency.Base,
		DefaultTaxPerc:  decimal.NewFromFloat(cfg.Sales.DefaultTaxPerc),
		DuplicateWindow: time.Duration(cfg.Sales.DuplicateOpportunityDays) * 24 * time.Hour,
		Now:             time.Now,
	}
	locks := service.NewDocumentLocks()

	feed := rateFeed(cfg, currencyRepo, dwClient, log)
	currencyService := service.NewCurrencyService(currencyRepo, currency.NewTable(nil), feed, archive,
		cfg.Currency.Base, cfg.Currency.Selected, log)
	if cfg.Currency.SeedOnStart {
		if _, err := currencyService.SeedOnStart(ctx); err != nil {
			return fmt.Errorf("failed to seed currencies: %w", err)
		}
	}
	if err := currencyService.Load(ctx); err != nil {
		return err
	}

	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, log)
	userService := service.NewUserService(userRepo, log)
	companyService := service.NewCompanyService(companyRepo, userRepo, log)
	contactService := service.NewContactService(contactRepo, companyRepo, log)
	opportunityService := service.NewOpportunityService(opportunityRepo, companyRepo, userRepo, contactRepo,
		currencyRepo, tx, locks, settings, log)
	quoteService := service.NewQuoteService(quoteRepo, opportunityRepo, contactRepo, userRepo, currencyRepo,
		numberSequenceService, currencyService, tx, locks, settings, log)
	poService := service.NewPOService(poRepo, companyRepo, contactRepo, userRepo, quoteRepo, currencyRepo,
		tx, locks, settings, log)
	taskService := service.NewTaskService(taskRepo, userRepo, opportunityRepo, quoteRepo, poRepo, log)

	authMiddleware := auth.NewMiddleware(cfg, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, dwClient, authMiddleware, rateLimiter, router.Handlers{
		Auth:          handler.NewAuthHandler(userService, authMiddleware.Validator(), log),
		Users:         handler.NewUserHandler(userService, log),
		Companies:     handler.NewCompanyHandler(companyService, log),
		Contacts:      handler.NewContactHandler(contactService, log),
		Opportunities: handler.NewOpportunityHandler(opportunityService, log),
		Quotes:        handler.NewQuoteHandler(quoteService, log),
		POs:           handler.NewPOHandler(poService, log),
		Tasks:         handler.NewTaskHandler(taskService, log),
		Currencies:    handler.NewCurrencyHandler(currencyService, log),
		Sequences:     handler.NewNumberSequenceHandler(numberSequenceService, log),
	})

	var scheduler *jobs.Scheduler
	if cfg.Currency.RefreshCron != "" {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterCurrencyRefreshJob(scheduler, currencyService, log,
			cfg.Currency.RefreshCron, jobs.DefaultRefreshTimeout, true); err != nil {
			log.Error("Failed to register currency refresh job", zap.Error(err))
			scheduler = nil
		} else {
			scheduler.Start()
		}
	} else {
		log.Info("Currency refresh job disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      http.TimeoutHandler(rt.Setup(), cfg.Server.RequestTimeoutDuration(), `{"type":"internal_error","title":"Service Unavailable","status":503,"detail":"request timed out"}`),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if dwClient != nil {
			if err := dwClient.Close(); err != nil {
				log.Warn("Error closing data warehouse connection", zap.Error(err))
			}
		}
		log.Info("Server stopped gracefully")
	}
	return nil
}

// rateFeed picks the exchange rate source named by currency.feedSource
func rateFeed(cfg *config.Config, currencyRepo *repository.CurrencyRepository, dwClient *datawarehouse.Client, log *zap.Logger) currency.Feed {
	switch cfg.Currency.FeedSource {
	case "static":
		return currency.StaticFeed{}
	case "warehouse":
		if dwClient != nil {
			return dwClient.RateFeed(cfg.Currency.Base)
		}
		log.Warn("Warehouse rate feed requested but the warehouse is unavailable, using stored rates")
	case "database", "":
	default:
		log.Warn("Unknown currency feed source, using stored rates", zap.String("source", cfg.Currency.FeedSource))
	}
	return currencyRepo.Feed(cfg.Currency.Base)
}
