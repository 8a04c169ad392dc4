package handler

import (
	"net/http"

	"github.com/straye-as/sales-api/internal/domain"
	"github.com/straye-as/sales-api/internal/repository"
	"github.com/straye-as/sales-api/internal/service"
	"go.uber.org/zap"
)

// OpportunityHandler handles HTTP requests for opportunities
type OpportunityHandler struct {
	opportunityService *service.OpportunityService
	logger             *zap.Logger
}

// NewOpportunityHandler creates a new OpportunityHandler
func NewOpportunityHandler(opportunityService *service.OpportunityService, logger *zap.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		logger:             logger,
	}
}

// List godoc
// @Summary List opportunities
// @Tags Opportunities
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param companyId query string false "Filter by company"
// @Param salesUserId query string false "Filter by sales user"
// @Param status query int false "Filter by status"
// @Param search query string false "Search by name"
// @Param active query bool false "Active flag, defaults to true"
// @Param sortBy query string false "Sort field"
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities [get]
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters repository.OpportunityFilters
	var ok bool
	if filters.CompanyID, ok = queryUUID(w, r, "companyId"); !ok {
		return
	}
	if filters.SalesUserID, ok = queryUUID(w, r, "salesUserId"); !ok {
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
		s := domain.OpportunityStatus(*status)
		filters.Status = &s
	}
	filters.Search = r.URL.Query().Get("search")

	page := parsePage(r)
	opps, total, err := h.opportunityService.List(r.Context(), page, filters, parseSort(r))
	if err != nil {
		respondError(w, h.logger, "list opportunities", err)
		return
	}
	respondPage(w, opps, total, page)
}

// Get godoc
// @Summary Get opportunity with parts, contacts and proposals
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID"
// @Success 200 {object} domain.OpportunityDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	opp, err := h.opportunityService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "get opportunity", err)
		return
	}
	respondJSON(w, http.StatusOK, opp)
}

// Create godoc
// @Summary Create opportunity
// @Description Parts, contacts and proposals are created in the same transaction
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param opportunity body object true "Opportunity with nested collections"
// @Success 201 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities [post]
func (h *OpportunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	opp, err := h.opportunityService.Create(r.Context(), body)
	if err != nil {
		respondError(w, h.logger, "create opportunity", err)
		return
	}
	w.Header().Set("Location", "/api/v1/opportunities/"+opp.ID.String())
	respondJSON(w, http.StatusCreated, opp)
}

// Update godoc
// @Summary Update opportunity
// @Description Nested collections that are sent replace the stored ones; omitted collections stay
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID"
// @Param opportunity body object true "Fields to change"
// @Success 200 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id} [put]
func (h *OpportunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	opp, err := h.opportunityService.Update(r.Context(), id, body)
	if err != nil {
		respondError(w, h.logger, "update opportunity", err)
		return
	}
	respondJSON(w, http.StatusOK, opp)
}

// Delete godoc
// @Summary Soft delete opportunity
// @Tags Opportunities
// @Param id path string true "Opportunity ID"
// @Success 204
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /opportunities/{id} [delete]
func (h *OpportunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.opportunityService.SoftDelete(r.Context(), id); err != nil {
		respondError(w, h.logger, "delete opportunity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
