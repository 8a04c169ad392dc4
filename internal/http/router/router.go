package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/sales-api/internal/auth"
	"github.com/straye-as/sales-api/internal/config"
	"github.com/straye-as/sales-api/internal/database"
	"github.com/straye-as/sales-api/internal/datawarehouse"
	"github.com/straye-as/sales-api/internal/http/handler"
	"github.com/straye-as/sales-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/straye-as/sales-api/docs" // registers the swagger spec
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Companies     *handler.CompanyHandler
	Contacts      *handler.ContactHandler
	Opportunities *handler.OpportunityHandler
	Quotes        *handler.QuoteHandler
	POs           *handler.POHandler
	Tasks         *handler.TaskHandler
	Currencies    *handler.CurrencyHandler
	Sequences     *handler.NumberSequenceHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	dwClient       *datawarehouse.Client
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	h              Handlers
}

// NewRouter builds the router. dwClient may be nil when the warehouse is not configured.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	dwClient *datawarehouse.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		dwClient:       dwClient,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		h:              handlers,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", rt.h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.LimitByUser)

			r.Get("/auth/me", rt.h.Auth.Me)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", rt.h.Users.List)
				r.Post("/", rt.h.Users.Create)
				r.Get("/{id}", rt.h.Users.Get)
				r.Put("/{id}", rt.h.Users.Update)
				r.Delete("/{id}", rt.h.Users.Delete)
			})

			r.Route("/companies", func(r chi.Router) {
				r.Get("/", rt.h.Companies.List)
				r.Post("/", rt.h.Companies.Create)
				r.Get("/{id}", rt.h.Companies.Get)
				r.Put("/{id}", rt.h.Companies.Update)
				r.Delete("/{id}", rt.h.Companies.Delete)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", rt.h.Contacts.List)
				r.Post("/", rt.h.Contacts.Create)
				r.Get("/{id}", rt.h.Contacts.Get)
				r.Put("/{id}", rt.h.Contacts.Update)
				r.Delete("/{id}", rt.h.Contacts.Delete)
			})

			r.Route("/opportunities", func(r chi.Router) {
				r.Get("/", rt.h.Opportunities.List)
				r.Post("/", rt.h.Opportunities.Create)
				r.Get("/{id}", rt.h.Opportunities.Get)
				r.Put("/{id}", rt.h.Opportunities.Update)
				r.Delete("/{id}", rt.h.Opportunities.Delete)
			})

			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", rt.h.Quotes.List)
				r.Post("/", rt.h.Quotes.Create)
				r.Get("/{id}", rt.h.Quotes.Get)
				r.Put("/{id}", rt.h.Quotes.Update)
				r.Delete("/{id}", rt.h.Quotes.Delete)
				r.Put("/{id}/status", rt.h.Quotes.ChangeStatus)
				r.Post("/{id}/revise", rt.h.Quotes.Revise)
				r.Post("/{id}/recalculate", rt.h.Quotes.Recalculate)
			})

			r.Route("/pos", func(r chi.Router) {
				r.Get("/", rt.h.POs.List)
				r.Post("/", rt.h.POs.Create)
				r.Get("/{id}", rt.h.POs.Get)
				r.Put("/{id}", rt.h.POs.Update)
				r.Delete("/{id}", rt.h.POs.Delete)
				r.Put("/{id}/status", rt.h.POs.ChangeStatus)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", rt.h.Tasks.List)
				r.Post("/", rt.h.Tasks.Create)
				r.Get("/{id}", rt.h.Tasks.Get)
				r.Put("/{id}", rt.h.Tasks.Update)
				r.Delete("/{id}", rt.h.Tasks.Delete)
			})

			r.Route("/currencies", func(r chi.Router) {
				r.Get("/", rt.h.Currencies.List)
				r.Post("/convert", rt.h.Currencies.Convert)
				r.With(rt.authMiddleware.RequireAdmin).Post("/refresh", rt.h.Currencies.Refresh)
				r.With(rt.authMiddleware.RequireAdmin).Post("/seed", rt.h.Currencies.Seed)
				r.Get("/{code}", rt.h.Currencies.Get)
			})

			r.Route("/sequences", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAdmin)
				r.Get("/", rt.h.Sequences.List)
				r.Get("/quotes/current", rt.h.Sequences.CurrentQuote)
			})
		})
	})

	return r
}

// databaseHealth reports readiness with pool statistics
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

// readiness checks the database and, when configured, the warehouse.
// A warehouse failure is reported but does not fail readiness.
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	healthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		healthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	if rt.dwClient != nil {
		checks["datawarehouse"] = rt.dwClient.HealthCheck(r.Context())
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{"status": status, "checks": checks})
}
