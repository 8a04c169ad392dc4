package handler

import (
	"net/http"

	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"go.uber.org/zap"
)

// QuoteHandler handles HTTP requests for quotes and their lifecycle
type QuoteHandler struct {
	quoteService *service.QuoteService
	logger       *zap.Logger
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService *service.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
		logger:       logger,
	}
}

// List godoc
// @Summary List quotes
// @Tags Quotes
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param opportunityId query string false "Filter by opportunity"
// @Param companyId query string false "Filter by company"
// @Param status query int false "Filter by status"
// @Param search query string false "Search by number or name"
// @Param active query bool false "Active flag, defaults to true"
// @Param sortBy query string false "Sort field"
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [get]
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters repository.QuoteFilters
	var ok bool
	if filters.OpportunityID, ok = queryUUID(w, r, "opportunityId"); !ok {
		return
	}
	if filters.CompanyID, ok = queryUUID(w, r, "companyId"); !ok {
		return
	}
	if filters.Active, ok = queryBool(w, r, "active"); !ok {
		return
	}
	status, ok := queryInt(w, r, "status")
	if !ok {
		return
	}
	if status != nil {
		s := domain.QuoteStatus(*status)
		filters.Status = &s
	}
	filters.Search = r.URL.Query().Get("search")

	page := parsePage(r)
	quotes, total, err := h.quoteService.List(r.Context(), page, filters, parseSort(r))
	if err != nil {
		respondError(w, h.logger, "list quotes", err)
		return
	}
	respondPage(w, quotes, total, page)
}

// Get godoc
// @Summary Get quote with parts, items and costs
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.QuoteDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [get]
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	quote, err := h.quoteService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "get quote", err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Create godoc
// @Summary Create quote
// @Description Assigns the next weekly quote number and prices the quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param quote body object true "Quote with parts, items and costs"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [post]
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	quote, err := h.quoteService.Create(r.Context(), body)
	if err != nil {
		respondError(w, h.logger, "create quote", err)
		return
	}
	w.Header().Set("Location", "/api/v1/quotes/"+quote.ID.String())
	respondJSON(w, http.StatusCreated, quote)
}

// Update godoc
// @Summary Update quote
// @Description Reconciles nested parts, items and costs, then recalculates the figures
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param quote body object true "Fields to change"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [put]
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	quote, err := h.quoteService.Update(r.Context(), id, body)
	if err != nil {
		respondError(w, h.logger, "update quote", err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// ChangeStatus godoc
// @Summary Change quote status
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.ChangeQuoteStatusRequest true "Target status"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/status [put]
func (h *QuoteHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	quote, err := h.quoteService.ChangeStatus(r.Context(), id, body)
	if err != nil {
		respondError(w, h.logger, "change quote status", err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Revise godoc
// @Summary Revise a presented quote
// @Description Copies the quote under the next -R number and closes the original as revised
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/revise [post]
func (h *QuoteHandler) Revise(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	quote, err := h.quoteService.Revise(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "revise quote", err)
		return
	}
	w.Header().Set("Location", "/api/v1/quotes/"+quote.ID.String())
	respondJSON(w, http.StatusCreated, quote)
}

// Recalculate godoc
// @Summary Recalculate quote figures
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.QuoteDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/recalculate [post]
func (h *QuoteHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	quote, err := h.quoteService.Recalculate(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "recalculate quote", err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Delete godoc
// @Summary Soft delete quote
// @Tags Quotes
// @Param id path string true "Quote ID"
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [delete]
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.quoteService.SoftDelete(r.Context(), id); err != nil {
		respondError(w, h.logger, "delete quote", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
