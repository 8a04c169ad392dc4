package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/service"
	"go.uber.org/zap"
)

// CurrencyHandler exposes the currency table
type CurrencyHandler struct {
	currencyService *service.CurrencyService
	logger          *zap.Logger
}

func NewCurrencyHandler(currencyService *service.CurrencyService, logger *zap.Logger) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService, logger: logger}
}

// List godoc
// @Summary List currencies
// @Tags Currencies
// @Produce json
// @Param selected query bool false "Only currencies offered in pickers"
// @Success 200 {array} domain.CurrencyDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /currencies [get]
func (h *CurrencyHandler) List(w http.ResponseWriter, r *http.Request) {
	selected, ok := queryBool(w, r, "selected")
	if !ok {
		return
	}
	currencies, err := h.currencyService.List(r.Context(), selected != nil && *selected)
	if err != nil {
		respondError(w, h.logger, "list currencies", err)
		return
	}
	respondJSON(w, http.StatusOK, currencies)
}

// Get godoc
// @Summary Get currency by ISO code
// @Tags Currencies
// @Produce json
// @Param code path string true "ISO 4217 code"
// @Success 200 {object} domain.CurrencyDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /currencies/{code} [get]
func (h *CurrencyHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	c, err := h.currencyService.Get(r.Context(), code)
	if err != nil {
		respondError(w, h.logger, "get currency", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Convert godoc
// @Summary Convert an amount between currencies
// @Tags Currencies
// @Accept json
// @Produce json
// @Param request body domain.ConvertCurrencyRequest true "Amount and currency codes"
// @Success 200 {object} domain.ConversionDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /currencies/convert [post]
func (h *CurrencyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req domain.ConvertCurrencyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	conv, err := h.currencyService.Convert(r.Context(), req.Amount, req.From, req.To)
	if err != nil {
		respondError(w, h.logger, "convert currency", err)
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

// Refresh godoc
// @Summary Refresh exchange rates from the configured feed
// @Tags Currencies
// @Produce json
// @Success 200 {object} domain.RatesSnapshotDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /currencies/refresh [post]
func (h *CurrencyHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.currencyService.Refresh(r.Context())
	if err != nil {
		respondError(w, h.logger, "refresh rates", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.RatesSnapshotDTO{
		Base:      snap.Base(),
		FetchedAt: snap.FetchedAt(),
		Rates:     snap.Map(),
	})
}

// Seed godoc
// @Summary Insert missing catalog currencies
// @Tags Currencies
// @Produce json
// @Success 200 {object} domain.SeedResultDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /currencies/seed [post]
func (h *CurrencyHandler) Seed(w http.ResponseWriter, r *http.Request) {
	n, err := h.currencyService.Seed(r.Context())
	if err != nil {
		respondError(w, h.logger, "seed currencies", err)
		return
	}
	respondJSON(w, http.StatusOK, domain.SeedResultDTO{Inserted: n})
}
